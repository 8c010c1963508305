package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/timeparse"
)

// Two deliberately distinct cap policies. The compliance calculator caps
// break AND lunch at 30 minutes; the daily pivot export uses the wider
// 30/60 caps for readability. Do not unify them: reports built on each have
// diverging historical baselines.
const (
	complianceBreakCapSeconds int64 = 30 * 60
	complianceLunchCapSeconds int64 = 30 * 60

	pivotBreakCapSeconds int64 = 30 * 60
	pivotLunchCapSeconds int64 = 60 * 60

	fullDaySeconds int64 = 8 * 3600
	fullDayHours         = 8.0

	topPerformerLimit = 5
)

var (
	scorePenaltyDay  = decimal.NewFromFloat(2.5)
	scorePenaltyWeek = decimal.NewFromInt(10)
	scoreCeiling     = decimal.NewFromInt(100)
)

// hmLabel formats a duration in seconds as "2h 30m".
func hmLabel(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
}

// buildCompliance derives the per-user compliance list from the scanner's
// accumulators, sorted by user for stable output.
func buildCompliance(acc *accumulators, loc *time.Location) []analytics.UserCompliance {
	violationWeeks := make(map[string]map[string]bool) // user -> iso week -> seen
	violationDays := make(map[string]int)
	trackedDays := make(map[string]int)

	for _, dt := range acc.userDays {
		trackedDays[dt.user]++
		if dt.breakSecs > complianceBreakCapSeconds || dt.lunchSecs > complianceLunchCapSeconds {
			violationDays[dt.user]++
			if midnight, ok := timeparse.MidnightOf(dt.date, loc); ok {
				year, week := midnight.ISOWeek()
				wk := fmt.Sprintf("%d-W%02d", year, week)
				if violationWeeks[dt.user] == nil {
					violationWeeks[dt.user] = make(map[string]bool)
				}
				violationWeeks[dt.user][wk] = true
			}
		}
	}

	out := make([]analytics.UserCompliance, 0, len(acc.users))
	for user, ut := range acc.users {
		exceededBreak := exceededDays(ut.breakSeconds, complianceBreakCapSeconds)
		exceededLunch := exceededDays(ut.lunchSeconds, complianceLunchCapSeconds)
		exceededWeeks := len(violationWeeks[user])

		out = append(out, analytics.UserCompliance{
			User:                     user,
			WeekdayProductiveSeconds: ut.weekdayProductive,
			WeekendProductiveSeconds: ut.weekendProductive,
			BreakSeconds:             ut.breakSeconds,
			LunchSeconds:             ut.lunchSeconds,
			WeekdayProductiveLabel:   hmLabel(ut.weekdayProductive),
			WeekendProductiveLabel:   hmLabel(ut.weekendProductive),
			BreakLabel:               hmLabel(ut.breakSeconds),
			LunchLabel:               hmLabel(ut.lunchSeconds),
			ExceededBreakDays:        exceededBreak,
			ExceededLunchDays:        exceededLunch,
			ExceededWeeks:            exceededWeeks,
			ViolationDays:            violationDays[user],
			TrackedDays:              trackedDays[user],
			ComplianceScore:          complianceScore(exceededBreak, exceededLunch, exceededWeeks),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].User) < strings.ToLower(out[j].User)
	})
	return out
}

// exceededDays is floor(total/cap), except that landing exactly on the cap
// does not count: the policy is strictly "more than", not "at least".
func exceededDays(total, capSeconds int64) int {
	if total <= capSeconds {
		return 0
	}
	return int(total / capSeconds)
}

// complianceScore is 100 − 2.5 per exceeded break day − 2.5 per exceeded
// lunch day − 10 per exceeded week, floored at 0.
func complianceScore(exceededBreakDays, exceededLunchDays, exceededWeeks int) float64 {
	score := scoreCeiling.
		Sub(scorePenaltyDay.Mul(decimal.NewFromInt(int64(exceededBreakDays)))).
		Sub(scorePenaltyDay.Mul(decimal.NewFromInt(int64(exceededLunchDays)))).
		Sub(scorePenaltyWeek.Mul(decimal.NewFromInt(int64(exceededWeeks))))
	if score.IsNegative() {
		return 0
	}
	f, _ := score.Float64()
	return f
}

// buildRanking ranks users by weekday productive time against weekday
// capacity (weekday count × 8h), capped at 100%, descending, top 5.
func buildRanking(acc *accumulators, bounds period.Bounds) []analytics.RankingEntry {
	capacitySecs := int64(bounds.WorkingDays()) * fullDaySeconds
	entries := make([]analytics.RankingEntry, 0, len(acc.users))
	for user, ut := range acc.users {
		pct := 0.0
		if capacitySecs > 0 {
			pct = float64(ut.weekdayProductive) / float64(capacitySecs) * 100
			if pct > 100 {
				pct = 100
			}
		}
		entries = append(entries, analytics.RankingEntry{
			User:                   user,
			WeekdayProductiveHours: float64(ut.weekdayProductive) / 3600.0,
			CapacityPct:            pct,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CapacityPct != entries[j].CapacityPct {
			return entries[i].CapacityPct > entries[j].CapacityPct
		}
		return strings.ToLower(entries[i].User) < strings.ToLower(entries[j].User)
	})
	if len(entries) > topPerformerLimit {
		entries = entries[:topPerformerLimit]
	}
	return entries
}

// complianceRate is the percentage of user-days without a violation,
// defaulting to 100 when there are no user-days.
func complianceRate(acc *accumulators) float64 {
	total := len(acc.userDays)
	if total == 0 {
		return 100
	}
	clean := 0
	for _, dt := range acc.userDays {
		if dt.breakSecs <= complianceBreakCapSeconds && dt.lunchSecs <= complianceLunchCapSeconds {
			clean++
		}
	}
	return float64(clean) / float64(total) * 100
}

// efficiencyRate is billable over billable-plus-non-productive, defaulting
// to 0 when the denominator is 0.
func efficiencyRate(productiveHours, nonProductiveHours float64) float64 {
	denom := productiveHours + nonProductiveHours
	if denom == 0 {
		return 0
	}
	return productiveHours / denom * 100
}
