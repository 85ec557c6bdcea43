package handler

import (
	"net/http"

	"stockpilot-api/internal/middleware"
	"stockpilot-api/internal/service"
	"stockpilot-api/pkg/apierror"
	"stockpilot-api/pkg/response"
)

// AnalyticsHandler handles analytics-related HTTP requests.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// Summary handles GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	summary, err := h.analyticsService.Summary(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, summary)
}

// Report handles GET /api/v1/analytics/report
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	report, err := h.analyticsService.Report(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, report)
}
