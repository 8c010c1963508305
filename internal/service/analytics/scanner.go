package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/record"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/clock"
)

const (
	// The scanner polls its wall-clock budget every budgetCheckInterval
	// rows.
	budgetCheckInterval = 250

	recentEventsLimit = 10
)

type userTally struct {
	weekdayProductive int64
	weekendProductive int64
	breakSeconds      int64
	lunchSeconds      int64
}

type dayTally struct {
	user       string
	date       string
	weekend    bool
	productive int64
	breakSecs  int64
	lunchSecs  int64
}

// accumulators is the scanner's working memory for one query run. It is
// owned exclusively by that run and destroyed afterwards; only the derived
// snapshot is ever cached.
type accumulators struct {
	events         int
	scanned        int
	stateCounts    map[string]int
	stateDurations map[string]int64
	users          map[string]*userTally
	userDays       map[string]*dayTally // "user|date"
	dayProductive  map[string]int64
	recent         *recentBuffer
	budgetExceeded bool
}

func newAccumulators() *accumulators {
	return &accumulators{
		stateCounts:    make(map[string]int),
		stateDurations: make(map[string]int64),
		users:          make(map[string]*userTally),
		userDays:       make(map[string]*dayTally),
		dayProductive:  make(map[string]int64),
		recent:         newRecentBuffer(recentEventsLimit),
	}
}

// scanRecords walks rows newest-first, accumulating everything inside the
// period bounds. rows must be sorted ascending by effective time: the walk
// terminates the moment a row falls strictly before the period's lower
// bound, since nothing earlier in the list can still be inside the period.
// On budget exhaustion the scan stops and flags the result instead of
// running to completion.
func scanRecords(
	rows []record.AttendanceRecord,
	bounds period.Bounds,
	userFilter string,
	budget *clock.Budget,
	loc *time.Location,
) *accumulators {
	acc := newAccumulators()
	filter := strings.TrimSpace(userFilter)

	for i := len(rows) - 1; i >= 0; i-- {
		acc.scanned++
		if acc.scanned%budgetCheckInterval == 0 && budget.Exceeded() {
			acc.budgetExceeded = true
			break
		}

		r := rows[i]
		et := r.EffectiveTime(loc)
		if et.Before(bounds.Start) {
			break
		}
		if et.After(bounds.End) {
			continue
		}
		if filter != "" && !strings.EqualFold(r.User, filter) {
			continue
		}
		acc.admit(r, et)
	}
	return acc
}

func (a *accumulators) admit(r record.AttendanceRecord, effective time.Time) {
	a.events++
	a.stateCounts[r.State]++
	a.stateDurations[r.State] += r.DurationSeconds

	ut := a.users[r.User]
	if ut == nil {
		ut = &userTally{}
		a.users[r.User] = ut
	}

	dayKey := r.User + "|" + r.DateKey
	dt := a.userDays[dayKey]
	if dt == nil {
		dt = &dayTally{user: r.User, date: r.DateKey, weekend: r.Weekend}
		a.userDays[dayKey] = dt
	}

	switch {
	case record.IsProductive(r.State):
		if r.Weekend {
			ut.weekendProductive += r.DurationSeconds
		} else {
			ut.weekdayProductive += r.DurationSeconds
		}
		dt.productive += r.DurationSeconds
		a.dayProductive[r.DateKey] += r.DurationSeconds
	case r.State == record.StateBreak:
		ut.breakSeconds += r.DurationSeconds
		dt.breakSecs += r.DurationSeconds
	case r.State == record.StateLunch:
		ut.lunchSeconds += r.DurationSeconds
		dt.lunchSecs += r.DurationSeconds
	}

	a.recent.admit(recentEvent{record: r, at: effective})
}

// hoursSplit sums the productive and non-productive buckets.
func (a *accumulators) hoursSplit() (productive, nonProductive float64) {
	var prodSecs, nonProdSecs int64
	for state, secs := range a.stateDurations {
		switch {
		case record.IsProductive(state):
			prodSecs += secs
		case record.IsNonProductive(state):
			nonProdSecs += secs
		}
	}
	return float64(prodSecs) / 3600.0, float64(nonProdSecs) / 3600.0
}

type recentEvent struct {
	record record.AttendanceRecord
	at     time.Time
}

// recentBuffer keeps the newest N events, sorted descending by time. The
// oldest element is evicted only when the buffer is full and a newer
// candidate arrives.
type recentBuffer struct {
	limit  int
	events []recentEvent
}

func newRecentBuffer(limit int) *recentBuffer {
	return &recentBuffer{limit: limit}
}

func (b *recentBuffer) admit(e recentEvent) {
	if len(b.events) >= b.limit {
		oldest := b.events[len(b.events)-1]
		if !e.at.After(oldest.at) {
			return
		}
		b.events = b.events[:len(b.events)-1]
	}
	at := sort.Search(len(b.events), func(i int) bool {
		return b.events[i].at.Before(e.at)
	})
	b.events = append(b.events, recentEvent{})
	copy(b.events[at+1:], b.events[at:])
	b.events[at] = e
}

// Items returns the buffered events, newest first.
func (b *recentBuffer) Items() []recentEvent {
	return b.events
}
