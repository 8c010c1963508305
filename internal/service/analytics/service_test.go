package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/record"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/cache"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/clock"
)

type fakeRows struct {
	rows  []record.AttendanceRecord
	err   error
	calls int
}

func (f *fakeRows) FetchAll(_ context.Context) ([]record.AttendanceRecord, error) {
	f.calls++
	return f.rows, f.err
}

type serviceFixture struct {
	svc   analytics.Service
	rows  *fakeRows
	clock *clock.Manual
}

func newFixture(t *testing.T, rows *fakeRows, window, scanBudget time.Duration) serviceFixture {
	t.Helper()
	loc := mustLoc(t)
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	blob := cache.NewBlob(cache.NewMemoryStore(clk, 0), clk, "v2", 90000, 6*time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAnalyticsService(rows, blob, clk, loc, logger, window, scanBudget, 5*time.Minute)
	return serviceFixture{svc: svc, rows: rows, clock: clk}
}

func weekRows(t *testing.T) []record.AttendanceRecord {
	t.Helper()
	loc := mustLoc(t)
	day := time.Date(2024, 3, 11, 9, 0, 0, 0, loc)
	return []record.AttendanceRecord{
		rec("alice", record.StateAvailable, day, 28800, loc),
		rec("alice", record.StateBreak, day.Add(2*time.Hour), 900, loc),
		rec("bob", record.StateAvailable, day.Add(time.Hour), 14400, loc),
		rec("bob", record.StateLunch, day.Add(3*time.Hour), 2700, loc),
	}
}

func TestGetAnalytics_RequestValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t, &fakeRows{}, 25*time.Second, 18*time.Second)

	_, err := fx.svc.GetAnalytics(ctx, analytics.Request{Granularity: period.Week})
	assert.ErrorIs(t, err, period.ErrPeriodRequired)

	_, err = fx.svc.GetAnalytics(ctx, analytics.Request{Granularity: period.Week, PeriodID: "bogus"})
	assert.ErrorIs(t, err, period.ErrInvalidPeriod)

	assert.Equal(t, 0, fx.rows.calls)
}

func TestGetAnalytics_RowFetchErrorPropagates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("store unavailable")
	fx := newFixture(t, &fakeRows{err: boom}, 25*time.Second, 18*time.Second)

	_, err := fx.svc.GetAnalytics(ctx, analytics.Request{Granularity: period.Week, PeriodID: "2024-W11"})
	assert.ErrorIs(t, err, boom)
}

func TestGetAnalytics_FullSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t, &fakeRows{rows: weekRows(t)}, 25*time.Second, 18*time.Second)

	snap, err := fx.svc.GetAnalytics(ctx, analytics.Request{Granularity: period.Week, PeriodID: "2024-W11"})
	require.NoError(t, err)

	assert.True(t, snap.Enhanced)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 4, snap.TotalEvents)
	assert.Equal(t, "2024-03-11", snap.Period.Start)
	assert.Equal(t, "2024-03-17", snap.Period.End)
	assert.Equal(t, 5, snap.Period.WorkingDays)
	assert.Equal(t, "America/Jamaica", snap.Period.Timezone)

	assert.InDelta(t, 12.0, snap.ProductiveHours, 1e-9)
	assert.InDelta(t, 1.0, snap.NonProductiveHours, 1e-9)
	assert.Equal(t, 2, snap.States[record.StateAvailable].Count)
	assert.InDelta(t, 12.0, snap.States[record.StateAvailable].Hours, 1e-9)

	require.Len(t, snap.Compliance, 2)
	assert.Equal(t, "alice", snap.Compliance[0].User)
	require.Len(t, snap.TopPerformers, 2)
	assert.Equal(t, "alice", snap.TopPerformers[0].User)

	assert.Len(t, snap.Daily, 7)
	assert.Equal(t, "2024-03-11", snap.Daily[0].Date)
	assert.InDelta(t, 12.0, snap.Daily[0].ProductiveHours, 1e-9)
	assert.True(t, snap.Daily[5].Weekend)

	assert.Len(t, snap.RecentEvents, 4)
	assert.Equal(t, record.StateLunch, snap.RecentEvents[0].State)

	assert.Equal(t, 2, snap.Overview.ActiveUsers)
	assert.Equal(t, record.StateAvailable, snap.Overview.TopState)
	assert.NotEmpty(t, snap.Insights)
}

func TestGetAnalytics_UserFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t, &fakeRows{rows: weekRows(t)}, 25*time.Second, 18*time.Second)

	snap, err := fx.svc.GetAnalytics(ctx, analytics.Request{
		Granularity: period.Week, PeriodID: "2024-W11", User: "ALICE",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, snap.TotalEvents)
	assert.Equal(t, 1, snap.Overview.ActiveUsers)
	require.Len(t, snap.Compliance, 1)
	assert.Equal(t, "alice", snap.Compliance[0].User)
}

func TestGetAnalytics_CachedWithinTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t, &fakeRows{rows: weekRows(t)}, 25*time.Second, 18*time.Second)
	req := analytics.Request{Granularity: period.Week, PeriodID: "2024-W11"}

	first, err := fx.svc.GetAnalytics(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 1, fx.rows.calls)

	second, err := fx.svc.GetAnalytics(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.rows.calls, "second query must be served from cache")
	assert.Equal(t, first.ID, second.ID)

	// A different user filter is a different cache entry.
	_, err = fx.svc.GetAnalytics(ctx, analytics.Request{
		Granularity: period.Week, PeriodID: "2024-W11", User: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, fx.rows.calls)
}

func TestGetAnalytics_DegradesOnScanBudget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loc := mustLoc(t)

	rows := make([]record.AttendanceRecord, 400)
	for i := range rows {
		rows[i] = rec("alice", record.StateAvailable,
			time.Date(2024, 3, 11, 0, 0, 0, 0, loc).Add(time.Duration(i)*time.Minute), 60, loc)
	}
	// A zero scan budget trips at the first poll.
	fx := newFixture(t, &fakeRows{rows: rows}, 25*time.Second, 0)

	snap, err := fx.svc.GetAnalytics(ctx, analytics.Request{Granularity: period.Week, PeriodID: "2024-W11"})
	require.NoError(t, err)

	assert.False(t, snap.Enhanced)
	assert.Empty(t, snap.Compliance)
	assert.Empty(t, snap.TopPerformers)
	assert.Empty(t, snap.Daily)
	assert.Greater(t, snap.TotalEvents, 0)
	assert.Equal(t, 1, snap.Overview.ActiveUsers)
	require.NotEmpty(t, snap.Insights)
	assert.Contains(t, snap.Insights[0], "Basic analytics only")
}

func TestGetAnalytics_EmptyPeriod(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t, &fakeRows{}, 25*time.Second, 18*time.Second)

	snap, err := fx.svc.GetAnalytics(ctx, analytics.Request{Granularity: period.Week, PeriodID: "2024-W20"})
	require.NoError(t, err)

	assert.True(t, snap.Enhanced)
	assert.Equal(t, 0, snap.TotalEvents)
	assert.Equal(t, 100.0, snap.Overview.CompliancePct)
	assert.Equal(t, 0.0, snap.Overview.EfficiencyPct)
	require.NotEmpty(t, snap.Insights)
	assert.Contains(t, snap.Insights[0], "No attendance activity")
}

func TestTopState(t *testing.T) {
	t.Parallel()

	acc := newAccumulators()
	assert.Equal(t, "", topState(acc))

	acc.stateDurations["Break"] = 600
	acc.stateDurations["Available"] = 3600
	assert.Equal(t, "Available", topState(acc))

	// Ties resolve to the lexicographically smaller state.
	acc.stateDurations["Break"] = 3600
	assert.Equal(t, "Available", topState(acc))
}
