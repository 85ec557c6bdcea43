package handler

import (
	"encoding/json"
	"net/http"

	"stockpilot-api/internal/middleware"
	"stockpilot-api/internal/service"
	"stockpilot-api/pkg/apierror"
	"stockpilot-api/pkg/response"
)

// AssistantHandler handles natural-language query HTTP requests.
type AssistantHandler struct {
	assistantService *service.AssistantService
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(assistantService *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
	}
}

// QueryRequest represents the request body for a business question.
type QueryRequest struct {
	Question string `json:"question"`
}

// Query handles POST /api/v1/assistant/query
func (h *AssistantHandler) Query(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	resp, err := h.assistantService.Answer(r.Context(), userID, req.Question)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, resp)
}
