package analytics

import (
	"strings"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
)

// Request names one analytics query: a period plus an optional identity
// filter (empty means all users).
type Request struct {
	Granularity period.Granularity
	PeriodID    string
	User        string
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.PeriodID) == "" {
		return period.ErrPeriodRequired
	}
	return nil
}

// CacheKey is the analytics cache key shape: granularity|period|user-or-all.
func (r Request) CacheKey() string {
	user := strings.TrimSpace(r.User)
	if user == "" {
		user = "all"
	}
	return string(r.Granularity) + "|" + r.PeriodID + "|" + user
}

// PeriodMeta echoes the resolved bounds back to callers.
type PeriodMeta struct {
	Granularity string `json:"granularity"`
	ID          string `json:"id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	WorkingDays int    `json:"workingDays"`
	Timezone    string `json:"timezone"`
}

// StateSummary aggregates one state bucket.
type StateSummary struct {
	Count           int     `json:"count"`
	DurationSeconds int64   `json:"durationSeconds"`
	Hours           float64 `json:"hours"`
}

// UserCompliance is the per-user compliance block of a full snapshot.
type UserCompliance struct {
	User                     string  `json:"user"`
	WeekdayProductiveSeconds int64   `json:"weekdayProductiveSeconds"`
	WeekendProductiveSeconds int64   `json:"weekendProductiveSeconds"`
	BreakSeconds             int64   `json:"breakSeconds"`
	LunchSeconds             int64   `json:"lunchSeconds"`
	WeekdayProductiveLabel   string  `json:"weekdayProductiveLabel"`
	WeekendProductiveLabel   string  `json:"weekendProductiveLabel"`
	BreakLabel               string  `json:"breakLabel"`
	LunchLabel               string  `json:"lunchLabel"`
	ExceededBreakDays        int     `json:"exceededBreakDays"`
	ExceededLunchDays        int     `json:"exceededLunchDays"`
	ExceededWeeks            int     `json:"exceededWeeks"`
	ViolationDays            int     `json:"violationDays"`
	TrackedDays              int     `json:"trackedDays"`
	ComplianceScore          float64 `json:"complianceScore"`
}

// RankingEntry is one row of the top-5 weekday capacity ranking.
type RankingEntry struct {
	User                   string  `json:"user"`
	WeekdayProductiveHours float64 `json:"weekdayProductiveHours"`
	CapacityPct            float64 `json:"capacityPct"`
}

// DailyMetric is one point of the per-day productive series.
type DailyMetric struct {
	Date            string  `json:"date"`
	Weekend         bool    `json:"weekend"`
	ProductiveHours float64 `json:"productiveHours"`
}

// EventView is one entry of the bounded recent-event feed.
type EventView struct {
	User            string `json:"user"`
	State           string `json:"state"`
	Timestamp       string `json:"timestamp"`
	DurationSeconds int64  `json:"durationSeconds"`
}

// Overview is the executive summary block.
type Overview struct {
	ActiveUsers        int     `json:"activeUsers"`
	TotalEvents        int     `json:"totalEvents"`
	ProductiveHours    float64 `json:"productiveHours"`
	NonProductiveHours float64 `json:"nonProductiveHours"`
	EfficiencyPct      float64 `json:"efficiencyPct"`
	CompliancePct      float64 `json:"compliancePct"`
	TopState           string  `json:"topState"`
}

// Snapshot is the cached, externally consumed analytics result. Enhanced is
// false when the scan ran out of budget and only the population-level
// summary could be computed.
type Snapshot struct {
	ID          string `json:"id"`
	GeneratedAt string `json:"generatedAt"`
	Enhanced    bool   `json:"enhanced"`
	UserFilter  string `json:"userFilter,omitempty"`

	Period PeriodMeta `json:"period"`

	TotalEvents        int                     `json:"totalEvents"`
	States             map[string]StateSummary `json:"states"`
	ProductiveHours    float64                 `json:"productiveHours"`
	NonProductiveHours float64                 `json:"nonProductiveHours"`

	Compliance    []UserCompliance `json:"compliance"`
	TopPerformers []RankingEntry   `json:"topPerformers"`
	Daily         []DailyMetric    `json:"daily"`
	RecentEvents  []EventView      `json:"recentEvents"`
	Overview      Overview         `json:"overview"`
	Insights      []string         `json:"insights"`
}

// PivotOptions controls the daily pivot export.
type PivotOptions struct {
	IncludeWeekends   bool
	IncludeTotals     bool
	HighlightLowHours bool
	ShowTotalHours    bool
	ShowDiscrepancy   bool
	ShowOvertime      bool
}

// PivotRequest selects the pivot's period and user subset (empty = all).
type PivotRequest struct {
	Granularity period.Granularity
	PeriodID    string
	Users       []string
	Options     PivotOptions
}

// PivotUserRow is one user row of the daily pivot matrix. Cells are already
// formatted: two-decimal hours, or "OFF" for suppressed weekend cells.
type PivotUserRow struct {
	User            string    `json:"user"`
	Cells           []string  `json:"cells"`
	HoursByDay      []float64 `json:"hoursByDay"`
	TotalHours      float64   `json:"totalHours"`
	WeekdayHours    float64   `json:"weekdayHours"`
	WeekendHours    float64   `json:"weekendHours"`
	DiscrepancyDays int       `json:"discrepancyDays"`
	OvertimeHours   float64   `json:"overtimeHours"`
	PerfectDays     int       `json:"perfectDays"`
	ViolationDays   int       `json:"violationDays"`
	EfficiencyPct   float64   `json:"efficiencyPct"`
}

// PivotMatrix is the user × calendar-day matrix plus column totals. Totals
// and averages are sums of the already-rounded cell values, so minor drift
// versus raw-second sums is expected.
type PivotMatrix struct {
	Period       PeriodMeta     `json:"period"`
	GeneratedAt  string         `json:"generatedAt"`
	DayNames     []string       `json:"dayNames"`
	DayDates     []string       `json:"dayDates"`
	DayWeekend   []bool         `json:"dayWeekend"`
	Rows         []PivotUserRow `json:"rows"`
	ColumnTotals []float64      `json:"columnTotals"`
	GrandTotal   float64        `json:"grandTotal"`
	Options      PivotOptions   `json:"-"`
}
