package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/service/export"
)

type stubAnalyticsService struct {
	lastRequest      analytics.Request
	lastPivotRequest analytics.PivotRequest
	snapshot         analytics.Snapshot
	matrix           analytics.PivotMatrix
	err              error
}

func (s *stubAnalyticsService) GetAnalytics(_ context.Context, req analytics.Request) (analytics.Snapshot, error) {
	s.lastRequest = req
	return s.snapshot, s.err
}

func (s *stubAnalyticsService) BuildDailyPivot(_ context.Context, req analytics.PivotRequest) (analytics.PivotMatrix, error) {
	s.lastPivotRequest = req
	return s.matrix, s.err
}

func newTestHandler(stub *stubAnalyticsService) *AnalyticsHandler {
	return NewAnalyticsHandler(stub, export.NewExportService(stub))
}

func TestGetAnalytics_OK(t *testing.T) {
	t.Parallel()
	stub := &stubAnalyticsService{snapshot: analytics.Snapshot{ID: "snap-1", Enhanced: true}}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?granularity=month&period=2024-03&user=alice", nil)
	rr := httptest.NewRecorder()
	h.GetAnalytics(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, period.Month, stub.lastRequest.Granularity)
	assert.Equal(t, "2024-03", stub.lastRequest.PeriodID)
	assert.Equal(t, "alice", stub.lastRequest.User)

	var body struct {
		Success bool               `json:"success"`
		Data    analytics.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "snap-1", body.Data.ID)
}

func TestGetAnalytics_DefaultsToWeek(t *testing.T) {
	t.Parallel()
	stub := &stubAnalyticsService{}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?period=2024-W11", nil)
	rr := httptest.NewRecorder()
	h.GetAnalytics(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, period.Week, stub.lastRequest.Granularity)
}

func TestGetAnalytics_Errors(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&stubAnalyticsService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?granularity=decade&period=2024", nil)
	rr := httptest.NewRecorder()
	h.GetAnalytics(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	h = newTestHandler(&stubAnalyticsService{err: period.ErrPeriodRequired})
	req = httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil)
	rr = httptest.NewRecorder()
	h.GetAnalytics(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "period is required")

	h = newTestHandler(&stubAnalyticsService{err: analytics.ErrRequiredColumnsMissing})
	req = httptest.NewRequest(http.MethodGet, "/api/v1/analytics?period=2024-W11", nil)
	rr = httptest.NewRecorder()
	h.GetAnalytics(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestExportDailyPivot_FlagsAndHeaders(t *testing.T) {
	t.Parallel()
	stub := &stubAnalyticsService{}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/export/daily-pivot.csv?period=2024-W11&users=alice,%20bob&weekends=true&highlight=1&totals=false", nil)
	rr := httptest.NewRecorder()
	h.ExportDailyPivot(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="daily-pivot-2024-W11.csv"`, rr.Header().Get("Content-Disposition"))

	got := stub.lastPivotRequest
	assert.Equal(t, "2024-W11", got.PeriodID)
	assert.Equal(t, []string{"alice", "bob"}, got.Users)
	assert.True(t, got.Options.IncludeWeekends)
	assert.True(t, got.Options.HighlightLowHours)
	assert.False(t, got.Options.IncludeTotals, "explicit totals=false overrides the default")
	assert.True(t, got.Options.ShowTotalHours, "defaults on when unset")
	assert.False(t, got.Options.ShowDiscrepancy)
}

func TestExportCompliance(t *testing.T) {
	t.Parallel()
	stub := &stubAnalyticsService{snapshot: analytics.Snapshot{Enhanced: true}}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/compliance.csv?period=2024-W11&user=alice", nil)
	rr := httptest.NewRecorder()
	h.ExportCompliance(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="compliance-2024-W11.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "alice", stub.lastRequest.User)
	assert.Contains(t, rr.Body.String(), "Compliance Report")
}

func TestSplitUsers(t *testing.T) {
	t.Parallel()

	assert.Nil(t, splitUsers(""))
	assert.Nil(t, splitUsers("  "))
	assert.Equal(t, []string{"alice", "bob"}, splitUsers("alice, bob,"))
}
