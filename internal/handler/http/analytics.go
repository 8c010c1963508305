package http

import (
	"net/http"
	"strings"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/handler/http/response"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/service/export"
)

type AnalyticsHandler struct {
	analyticsService analytics.Service
	exportService    *export.Service
}

func NewAnalyticsHandler(analyticsService analytics.Service, exportService *export.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		exportService:    exportService,
	}
}

// GetAnalytics serves GET /api/v1/analytics?granularity=&period=&user=
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	granularity, err := period.ParseGranularity(queryDefault(r, "granularity", "Week"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	snap, err := h.analyticsService.GetAnalytics(r.Context(), analytics.Request{
		Granularity: granularity,
		PeriodID:    r.URL.Query().Get("period"),
		User:        r.URL.Query().Get("user"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, snap)
}

// ExportDailyPivot serves GET /api/v1/export/daily-pivot.csv
func (h *AnalyticsHandler) ExportDailyPivot(w http.ResponseWriter, r *http.Request) {
	granularity, err := period.ParseGranularity(queryDefault(r, "granularity", "Week"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req := analytics.PivotRequest{
		Granularity: granularity,
		PeriodID:    r.URL.Query().Get("period"),
		Users:       splitUsers(r.URL.Query().Get("users")),
		Options: analytics.PivotOptions{
			IncludeWeekends:   queryFlag(r, "weekends"),
			IncludeTotals:     queryFlagDefault(r, "totals", true),
			HighlightLowHours: queryFlag(r, "highlight"),
			ShowTotalHours:    queryFlagDefault(r, "totalHours", true),
			ShowDiscrepancy:   queryFlag(r, "discrepancy"),
			ShowOvertime:      queryFlag(r, "overtime"),
		},
	}

	body, err := h.exportService.DailyPivotCSV(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.CSV(w, "daily-pivot-"+req.PeriodID+".csv", body)
}

// ExportCompliance serves GET /api/v1/export/compliance.csv
func (h *AnalyticsHandler) ExportCompliance(w http.ResponseWriter, r *http.Request) {
	granularity, err := period.ParseGranularity(queryDefault(r, "granularity", "Week"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	periodID := r.URL.Query().Get("period")
	body, err := h.exportService.ComplianceCSV(r.Context(), granularity, periodID, r.URL.Query().Get("user"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.CSV(w, "compliance-"+periodID+".csv", body)
}

func queryDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func queryFlag(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func queryFlagDefault(r *http.Request, key string, fallback bool) bool {
	if r.URL.Query().Get(key) == "" {
		return fallback
	}
	return queryFlag(r, key)
}

func splitUsers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	users := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			users = append(users, p)
		}
	}
	return users
}
