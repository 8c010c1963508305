package record

import (
	"strconv"
	"strings"
	"time"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/timeparse"
)

// State vocabulary as it appears in the source sheets. Unrecognized labels
// pass through and aggregate under their own bucket.
const (
	StateAvailable  = "Available"
	StateAdminWork  = "Administrative Work"
	StateTraining   = "Training"
	StateMeeting    = "Meeting"
	StateBreak      = "Break"
	StateLunch      = "Lunch"
	StateEndOfShift = "End of Shift"
)

// IsProductive reports whether a state counts toward billable/productive
// time.
func IsProductive(state string) bool {
	switch state {
	case StateAvailable, StateAdminWork, StateTraining, StateMeeting:
		return true
	}
	return false
}

// IsNonProductive reports whether a state counts toward the non-productive
// hours split. End of Shift and unrecognized states count toward neither.
func IsNonProductive(state string) bool {
	return state == StateBreak || state == StateLunch
}

// AttendanceRecord is one normalized state-change event. Records are
// immutable once created; re-ingestion replaces the whole cached set.
//
// DurationSeconds is genuinely seconds: the legacy source column is labeled
// as minutes but has always carried seconds. Every hour conversion divides
// by 3600, never by 60.
type AttendanceRecord struct {
	User            string
	State           string
	Timestamp       time.Time
	DurationSeconds int64
	DateKey         string // local calendar date, may disagree with Timestamp's date
	ISOWeekday      int    // 1=Monday .. 7=Sunday
	Weekend         bool
}

// EffectiveTime is the instant used for sorting and scan-bound comparisons:
// the timestamp when present, otherwise the calendar-date midnight.
func (r AttendanceRecord) EffectiveTime(loc *time.Location) time.Time {
	if !r.Timestamp.IsZero() {
		return r.Timestamp
	}
	if midnight, ok := timeparse.MidnightOf(r.DateKey, loc); ok {
		return midnight
	}
	return time.Time{}
}

// Hours converts the duration to hours.
func (r AttendanceRecord) Hours() float64 {
	return float64(r.DurationSeconds) / 3600.0
}

// RawRow is one uninterpreted row pulled from the backing store, already
// mapped by header name.
type RawRow struct {
	User      string
	State     string
	Timestamp string
	Duration  string
	Date      string // optional explicit date column
}

// Normalize converts a raw row into an AttendanceRecord. A row with an
// unparsable timestamp is rejected rather than kept with a null time; an
// explicit date column that parses overrides the date key derived from the
// timestamp.
func Normalize(raw RawRow, loc *time.Location) (AttendanceRecord, error) {
	user := strings.TrimSpace(raw.User)
	if user == "" {
		return AttendanceRecord{}, ErrMissingIdentity
	}
	state := strings.TrimSpace(raw.State)
	if state == "" {
		return AttendanceRecord{}, ErrMissingState
	}

	ts, err := timeparse.Parse(raw.Timestamp, loc)
	if err != nil {
		return AttendanceRecord{}, ErrBadTimestamp
	}
	ts = ts.In(loc)

	dateKey := timeparse.DateKey(ts, loc)
	anchor := ts
	if raw.Date != "" {
		if d, err := timeparse.Parse(raw.Date, loc); err == nil {
			dateKey = timeparse.DateKey(d, loc)
			anchor = d.In(loc)
		}
	}

	weekday := timeparse.ISOWeekday(anchor)

	return AttendanceRecord{
		User:            user,
		State:           state,
		Timestamp:       ts,
		DurationSeconds: parseDurationSeconds(raw.Duration),
		DateKey:         dateKey,
		ISOWeekday:      weekday,
		Weekend:         timeparse.IsWeekend(weekday),
	}, nil
}

// parseDurationSeconds tolerates integer and fractional text; anything
// unparsable or negative becomes 0.
func parseDurationSeconds(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(f + 0.5)
}
