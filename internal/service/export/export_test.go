package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
)

type stubAnalytics struct {
	snapshot analytics.Snapshot
	matrix   analytics.PivotMatrix
	err      error
}

func (s *stubAnalytics) GetAnalytics(_ context.Context, _ analytics.Request) (analytics.Snapshot, error) {
	return s.snapshot, s.err
}

func (s *stubAnalytics) BuildDailyPivot(_ context.Context, req analytics.PivotRequest) (analytics.PivotMatrix, error) {
	m := s.matrix
	m.Options = req.Options
	return m, s.err
}

func threeDayMatrix() analytics.PivotMatrix {
	return analytics.PivotMatrix{
		Period: analytics.PeriodMeta{
			ID: "2024-W11", Start: "2024-03-11", End: "2024-03-17", WorkingDays: 5,
		},
		GeneratedAt: "2024-03-18T08:00:00-05:00",
		DayNames:    []string{"Mon", "Tue", "Sat"},
		DayDates:    []string{"2024-03-11", "2024-03-12", "2024-03-16"},
		DayWeekend:  []bool{false, false, true},
		Rows: []analytics.PivotUserRow{
			{
				User:            "alice",
				Cells:           []string{"8.00", "4.00*", "OFF"},
				HoursByDay:      []float64{8, 4, 2},
				TotalHours:      12,
				DiscrepancyDays: 1,
				OvertimeHours:   0,
			},
			{
				User:          "bob",
				Cells:         []string{"10.00", "0.00", "OFF"},
				HoursByDay:    []float64{10, 0, 0},
				TotalHours:    10,
				OvertimeHours: 2,
			},
		},
		ColumnTotals: []float64{18, 4, 0},
		GrandTotal:   22,
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestDailyPivotCSV(t *testing.T) {
	t.Parallel()
	svc := NewExportService(&stubAnalytics{matrix: threeDayMatrix()})

	out, err := svc.DailyPivotCSV(context.Background(), analytics.PivotRequest{
		PeriodID: "2024-W11",
		Options: analytics.PivotOptions{
			IncludeTotals:     true,
			HighlightLowHours: true,
			ShowTotalHours:    true,
			ShowDiscrepancy:   true,
			ShowOvertime:      true,
		},
	})
	require.NoError(t, err)

	got := lines(out)
	require.GreaterOrEqual(t, len(got), 16)

	assert.Equal(t, "Daily Attendance Pivot", got[0])
	assert.Equal(t, "Generated,2024-03-18T08:00:00-05:00", got[1])
	assert.Equal(t, "Period,2024-W11,2024-03-11 - 2024-03-17", got[2])
	assert.Equal(t, "Users,2,Days,3", got[3])
	assert.Equal(t, "", got[4])

	assert.Equal(t, ",Mon,Tue,Sat,Total Hours,Discrepancy Days,Overtime Hours", got[5])
	assert.Equal(t, "User,2024-03-11,2024-03-12,2024-03-16,,,", got[6])

	assert.Equal(t, "alice,8.00,4.00*,OFF,12.00,1,0.00", got[7])
	assert.Equal(t, "bob,10.00,0.00,OFF,10.00,0,2.00", got[8])

	assert.Equal(t, "TOTAL,18.00,4.00,0.00,22.00", got[9])
	assert.Equal(t, "AVERAGE,9.00,2.00,0.00", got[10])

	assert.Equal(t, "", got[11])
	assert.Equal(t, "Legend", got[12])
	assert.Equal(t, "OFF,weekend day excluded from totals", got[13])
	assert.Equal(t, "*,weekday with fewer than 8.00 productive hours", got[14])
	assert.Equal(t, "Hours,productive time only; breaks and lunch excluded", got[15])
}

func TestDailyPivotCSV_MinimalOptions(t *testing.T) {
	t.Parallel()
	svc := NewExportService(&stubAnalytics{matrix: threeDayMatrix()})

	out, err := svc.DailyPivotCSV(context.Background(), analytics.PivotRequest{
		PeriodID: "2024-W11",
	})
	require.NoError(t, err)

	got := lines(out)
	assert.Equal(t, ",Mon,Tue,Sat", got[5])
	assert.Equal(t, "User,2024-03-11,2024-03-12,2024-03-16", got[6])
	assert.Equal(t, "alice,8.00,4.00*,OFF", got[7])
	assert.NotContains(t, out, "TOTAL")
	assert.NotContains(t, out, "AVERAGE")
	assert.NotContains(t, out, "*,weekday")
}

func TestDailyPivotCSV_PropagatesError(t *testing.T) {
	t.Parallel()
	boom := errors.New("no rows")
	svc := NewExportService(&stubAnalytics{err: boom})

	_, err := svc.DailyPivotCSV(context.Background(), analytics.PivotRequest{PeriodID: "2024-W11"})
	assert.ErrorIs(t, err, boom)
}

func TestComplianceCSV(t *testing.T) {
	t.Parallel()
	svc := NewExportService(&stubAnalytics{snapshot: analytics.Snapshot{
		Enhanced:    true,
		GeneratedAt: "2024-03-18T08:00:00-05:00",
		Period: analytics.PeriodMeta{
			ID: "2024-W11", Start: "2024-03-11", End: "2024-03-17",
		},
		Compliance: []analytics.UserCompliance{
			{
				User:                     "alice",
				WeekdayProductiveSeconds: 12 * 3600,
				WeekendProductiveSeconds: 2 * 3600,
				BreakSeconds:             1800,
				LunchSeconds:             2700,
				ComplianceScore:          92.5,
			},
		},
	}})

	out, err := svc.ComplianceCSV(context.Background(), "Week", "2024-W11", "")
	require.NoError(t, err)

	got := lines(out)
	assert.Equal(t, "Compliance Report", got[0])
	assert.Equal(t, "Period,2024-W11,2024-03-11 - 2024-03-17", got[2])
	assert.Equal(t, "", got[3])
	assert.Equal(t, "User,Productive Hours,Non-Productive Hours,Break Hours,Lunch Hours,Compliance Score", got[4])
	assert.Equal(t, "alice,14.00,1.25,0.50,0.75,92.50", got[5])
	assert.NotContains(t, out, "Note,")
}

func TestComplianceCSV_BasicNote(t *testing.T) {
	t.Parallel()
	svc := NewExportService(&stubAnalytics{snapshot: analytics.Snapshot{
		Enhanced:    false,
		GeneratedAt: "2024-03-18T08:00:00-05:00",
		Period:      analytics.PeriodMeta{ID: "2024-W11"},
	}})

	out, err := svc.ComplianceCSV(context.Background(), "Week", "2024-W11", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Note,basic analytics: per-user detail unavailable for this period")
}

func TestEscapeCSV(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain", escapeCSV("plain"))
	assert.Equal(t, `"a,b"`, escapeCSV("a,b"))
	assert.Equal(t, `"say ""hi"""`, escapeCSV(`say "hi"`))
	assert.Equal(t, "\"line\nbreak\"", escapeCSV("line\nbreak"))
}
