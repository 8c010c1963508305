package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/clock"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/timeparse"
)

// BuildDailyPivot implements analytics.Service. It produces the user ×
// calendar-day productive-hours matrix with the pivot-level 30/60 cap
// policy (wider than the compliance calculator's 30/30 on purpose).
func (s *ServiceImpl) BuildDailyPivot(ctx context.Context, req analytics.PivotRequest) (analytics.PivotMatrix, error) {
	bounds, err := period.Resolve(req.Granularity, req.PeriodID, s.loc)
	if err != nil {
		return analytics.PivotMatrix{}, err
	}

	rows, err := s.rows.FetchAll(ctx)
	if err != nil {
		return analytics.PivotMatrix{}, fmt.Errorf("failed to load attendance rows: %w", err)
	}

	budget := clock.NewBudget(s.clock, s.scanBudget)
	acc := scanRecords(rows, bounds, "", budget, s.loc)

	selected := userSelection(req.Users)

	// user -> date key -> tallies
	byUser := make(map[string]map[string]*dayTally)
	for _, dt := range acc.userDays {
		if selected != nil && !selected[strings.ToLower(dt.user)] {
			continue
		}
		if byUser[dt.user] == nil {
			byUser[dt.user] = make(map[string]*dayTally)
		}
		byUser[dt.user][dt.date] = dt
	}

	if selected != nil && len(byUser) == 0 {
		return analytics.PivotMatrix{}, analytics.ErrNoUsersSelected
	}

	users := make([]string, 0, len(byUser))
	for user := range byUser {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i]) < strings.ToLower(users[j])
	})

	days := bounds.Days()
	matrix := analytics.PivotMatrix{
		Period: analytics.PeriodMeta{
			Granularity: string(bounds.Granularity),
			ID:          bounds.ID,
			Start:       bounds.Start.Format("2006-01-02"),
			End:         bounds.End.Format("2006-01-02"),
			WorkingDays: bounds.WorkingDays(),
			Timezone:    s.loc.String(),
		},
		GeneratedAt: s.clock.Now().In(s.loc).Format(time.RFC3339),
		Options:     req.Options,
	}
	for _, d := range days {
		weekend := timeparse.IsWeekend(timeparse.ISOWeekday(d))
		matrix.DayNames = append(matrix.DayNames, d.Format("Mon"))
		matrix.DayDates = append(matrix.DayDates, d.Format("2006-01-02"))
		matrix.DayWeekend = append(matrix.DayWeekend, weekend)
	}

	columnTotals := make([]decimal.Decimal, len(days))
	for i := range columnTotals {
		columnTotals[i] = decimal.Zero
	}

	for _, user := range users {
		row := buildPivotRow(user, byUser[user], days, bounds, req.Options, s.loc)
		// Totals sum the already-rounded cell values; drift versus raw
		// seconds is accepted.
		for i, h := range row.HoursByDay {
			if row.Cells[i] == pivotOffMarker {
				continue
			}
			columnTotals[i] = columnTotals[i].Add(decimal.NewFromFloat(h))
		}
		matrix.Rows = append(matrix.Rows, row)
	}

	grand := decimal.Zero
	for i, t := range columnTotals {
		f, _ := t.Float64()
		matrix.ColumnTotals = append(matrix.ColumnTotals, f)
		grand = grand.Add(columnTotals[i])
	}
	matrix.GrandTotal, _ = grand.Float64()

	return matrix, nil
}

const pivotOffMarker = "OFF"

func userSelection(users []string) map[string]bool {
	cleaned := make(map[string]bool)
	for _, u := range users {
		u = strings.TrimSpace(u)
		if u != "" {
			cleaned[strings.ToLower(u)] = true
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

func buildPivotRow(
	user string,
	tallies map[string]*dayTally,
	days []time.Time,
	bounds period.Bounds,
	opts analytics.PivotOptions,
	loc *time.Location,
) analytics.PivotUserRow {
	row := analytics.PivotUserRow{User: user}

	total := decimal.Zero
	weekdayTotal := decimal.Zero
	weekendTotal := decimal.Zero
	overtime := decimal.Zero

	for _, d := range days {
		key := timeparse.DateKey(d, loc)
		weekend := timeparse.IsWeekend(timeparse.ISOWeekday(d))

		var prodSecs, breakSecs, lunchSecs int64
		if dt := tallies[key]; dt != nil {
			prodSecs, breakSecs, lunchSecs = dt.productive, dt.breakSecs, dt.lunchSecs
		}

		hours := decimal.NewFromInt(prodSecs).Div(decimal.NewFromInt(3600)).Round(2)
		h, _ := hours.Float64()
		row.HoursByDay = append(row.HoursByDay, h)

		switch {
		case weekend && !opts.IncludeWeekends:
			row.Cells = append(row.Cells, pivotOffMarker)
		case opts.HighlightLowHours && !weekend && h > 0 && h < fullDayHours:
			row.Cells = append(row.Cells, hours.StringFixed(2)+"*")
		default:
			row.Cells = append(row.Cells, hours.StringFixed(2))
		}

		if weekend {
			weekendTotal = weekendTotal.Add(hours)
		} else {
			weekdayTotal = weekdayTotal.Add(hours)
			if h > 0 && h < fullDayHours {
				row.DiscrepancyDays++
			}
			if h > fullDayHours {
				overtime = overtime.Add(hours.Sub(decimal.NewFromFloat(fullDayHours)))
			}
		}
		total = total.Add(hours)

		if prodSecs > 0 || breakSecs > 0 || lunchSecs > 0 {
			if breakSecs > pivotBreakCapSeconds || lunchSecs > pivotLunchCapSeconds {
				row.ViolationDays++
			}
			if h >= fullDayHours && breakSecs <= pivotBreakCapSeconds && lunchSecs <= pivotLunchCapSeconds {
				row.PerfectDays++
			}
		}
	}

	row.TotalHours, _ = total.Float64()
	row.WeekdayHours, _ = weekdayTotal.Float64()
	row.WeekendHours, _ = weekendTotal.Float64()
	row.OvertimeHours, _ = overtime.Float64()

	if wd := bounds.WorkingDays(); wd > 0 {
		row.EfficiencyPct = row.WeekdayHours / (float64(wd) * fullDayHours) * 100
	}
	return row
}
