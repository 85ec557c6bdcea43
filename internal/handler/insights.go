package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stockpilot-api/internal/middleware"
	"stockpilot-api/internal/repository"
	"stockpilot-api/internal/service"
	"stockpilot-api/pkg/apierror"
	"stockpilot-api/pkg/response"
	"stockpilot-api/pkg/uid"
)

// Default and maximum page sizes for insight listings.
const (
	defaultInsightLimit = 50
	maxInsightLimit     = 200
)

// InsightHandler handles insight-related HTTP requests.
type InsightHandler struct {
	insightService *service.InsightService
	repo           repository.BusinessRepository
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(insightService *service.InsightService, repo repository.BusinessRepository) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		repo:           repo,
	}
}

// List handles GET /api/v1/insights
func (h *InsightHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	limit := defaultInsightLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(w, apierror.BadRequest("limit must be a positive integer"))
			return
		}
		if parsed > maxInsightLimit {
			parsed = maxInsightLimit
		}
		limit = parsed
	}

	insights, err := h.repo.ListInsights(r.Context(), userID, limit)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"insights": insights,
		"count":    len(insights),
	})
}

// Generate handles POST /api/v1/insights/generate
func (h *InsightHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	insights, err := h.insightService.GenerateAndSave(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"insights":  insights,
		"generated": len(insights),
	})
}

// MarkRead handles POST /api/v1/insights/{insight_id}/read
func (h *InsightHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	insightID := chi.URLParam(r, "insight_id")
	if !uid.IsValid(insightID) {
		response.Error(w, apierror.BadRequest("insight_id must be a valid UUID"))
		return
	}

	if err := h.repo.MarkInsightRead(r.Context(), userID, insightID); err != nil {
		if err == repository.ErrNotFound {
			response.Error(w, apierror.NotFound("insight not found"))
			return
		}
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"id":      insightID,
		"is_read": true,
	})
}
