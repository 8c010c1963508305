// Package export assembles the CSV report surfaces on top of the analytics
// service.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
)

type Service struct {
	analytics analytics.Service
}

func NewExportService(analyticsService analytics.Service) *Service {
	return &Service{analytics: analyticsService}
}

// DailyPivotCSV renders the daily pivot matrix: a header block, a two-row
// column header (day names then dates), one row per user, optional
// totals/averages rows, and a fixed legend footer.
func (s *Service) DailyPivotCSV(ctx context.Context, req analytics.PivotRequest) (string, error) {
	matrix, err := s.analytics.BuildDailyPivot(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to build daily pivot: %w", err)
	}

	opts := req.Options
	var b csvBuilder

	b.row("Daily Attendance Pivot")
	b.row("Generated", matrix.GeneratedAt)
	b.row("Period", matrix.Period.ID, matrix.Period.Start+" - "+matrix.Period.End)
	b.row("Users", fmt.Sprintf("%d", len(matrix.Rows)), "Days", fmt.Sprintf("%d", len(matrix.DayDates)))
	b.blank()

	summaryHeaders := summaryColumns(opts)

	names := append([]string{""}, matrix.DayNames...)
	names = append(names, summaryHeaders...)
	b.row(names...)

	dates := append([]string{"User"}, matrix.DayDates...)
	for range summaryHeaders {
		dates = append(dates, "")
	}
	b.row(dates...)

	for _, row := range matrix.Rows {
		fields := append([]string{row.User}, row.Cells...)
		if opts.ShowTotalHours {
			fields = append(fields, formatHours(row.TotalHours))
		}
		if opts.ShowDiscrepancy {
			fields = append(fields, fmt.Sprintf("%d", row.DiscrepancyDays))
		}
		if opts.ShowOvertime {
			fields = append(fields, formatHours(row.OvertimeHours))
		}
		b.row(fields...)
	}

	if opts.IncludeTotals {
		totals := []string{"TOTAL"}
		for _, t := range matrix.ColumnTotals {
			totals = append(totals, formatHours(t))
		}
		if opts.ShowTotalHours {
			totals = append(totals, formatHours(matrix.GrandTotal))
		}
		b.row(totals...)

		averages := []string{"AVERAGE"}
		n := len(matrix.Rows)
		for _, t := range matrix.ColumnTotals {
			if n == 0 {
				averages = append(averages, formatHours(0))
				continue
			}
			avg := decimal.NewFromFloat(t).Div(decimal.NewFromInt(int64(n))).Round(2)
			averages = append(averages, avg.StringFixed(2))
		}
		b.row(averages...)
	}

	b.blank()
	b.row("Legend")
	b.row("OFF", "weekend day excluded from totals")
	if opts.HighlightLowHours {
		b.row("*", "weekday with fewer than 8.00 productive hours")
	}
	b.row("Hours", "productive time only; breaks and lunch excluded")

	return b.String(), nil
}

func summaryColumns(opts analytics.PivotOptions) []string {
	var cols []string
	if opts.ShowTotalHours {
		cols = append(cols, "Total Hours")
	}
	if opts.ShowDiscrepancy {
		cols = append(cols, "Discrepancy Days")
	}
	if opts.ShowOvertime {
		cols = append(cols, "Overtime Hours")
	}
	return cols
}

func formatHours(h float64) string {
	return decimal.NewFromFloat(h).Round(2).StringFixed(2)
}

// csvBuilder assembles comma-separated rows with minimal quoting.
type csvBuilder struct {
	sb strings.Builder
}

func (b *csvBuilder) row(fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.sb.WriteByte(',')
		}
		b.sb.WriteString(escapeCSV(f))
	}
	b.sb.WriteByte('\n')
}

func (b *csvBuilder) blank() {
	b.sb.WriteByte('\n')
}

func (b *csvBuilder) String() string {
	return b.sb.String()
}

func escapeCSV(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}
