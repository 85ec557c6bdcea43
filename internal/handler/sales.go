package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"stockpilot-api/internal/middleware"
	"stockpilot-api/internal/model"
	"stockpilot-api/internal/repository"
	"stockpilot-api/internal/service"
	"stockpilot-api/pkg/apierror"
	"stockpilot-api/pkg/response"
	"stockpilot-api/pkg/uid"
)

// SalesHandler handles sale recording and stock adjustment requests.
type SalesHandler struct {
	repo      repository.BusinessRepository
	analytics *service.AnalyticsService
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(repo repository.BusinessRepository, analytics *service.AnalyticsService) *SalesHandler {
	return &SalesHandler{
		repo:      repo,
		analytics: analytics,
	}
}

// CreateSaleRequest represents the request body for recording a sale.
type CreateSaleRequest struct {
	CustomerName  *string           `json:"customer_name,omitempty"`
	CustomerEmail *string           `json:"customer_email,omitempty"`
	TotalAmount   float64           `json:"total_amount"`
	PaymentMethod string            `json:"payment_method"`
	Notes         *string           `json:"notes,omitempty"`
	Items         []SaleItemRequest `json:"items"`
}

// SaleItemRequest is one line of a sale request.
type SaleItemRequest struct {
	ItemID    string  `json:"inventory_item_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// CreateSale handles POST /api/v1/sales
func (h *SalesHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if len(req.Items) == 0 {
		response.Error(w, apierror.ValidationError("sale requires at least one item",
			apierror.FieldError{Field: "items", Message: "must not be empty"}))
		return
	}

	sale := &model.Sale{
		UserID:        userID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	if sale.PaymentMethod == "" {
		sale.PaymentMethod = "cash"
	}
	for _, item := range req.Items {
		if !uid.IsValid(item.ItemID) {
			response.Error(w, apierror.ValidationError("invalid item reference",
				apierror.FieldError{Field: "inventory_item_id", Message: "must be a valid UUID"}))
			return
		}
		sale.Items = append(sale.Items, model.SaleItem{
			ItemID:     item.ItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: float64(item.Quantity) * item.UnitPrice,
		})
	}

	if err := h.repo.CreateSale(r.Context(), sale); err != nil {
		response.Error(w, mapSaleError(err))
		return
	}

	h.analytics.Invalidate(r.Context(), userID)
	response.Created(w, sale)
}

// AdjustStockRequest represents the request body for a stock adjustment.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// AdjustStock handles POST /api/v1/inventory/{item_id}/adjust
func (h *SalesHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	itemID := chi.URLParam(r, "item_id")
	if !uid.IsValid(itemID) {
		response.Error(w, apierror.BadRequest("item_id must be a valid UUID"))
		return
	}

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Delta == 0 {
		response.Error(w, apierror.ValidationError("delta must be non-zero",
			apierror.FieldError{Field: "delta", Message: "must not be zero"}))
		return
	}
	if req.Reason == "" {
		req.Reason = "manual adjustment"
	}

	if err := h.repo.AdjustStock(r.Context(), userID, itemID, req.Delta, req.Reason); err != nil {
		response.Error(w, mapSaleError(err))
		return
	}

	h.analytics.Invalidate(r.Context(), userID)
	response.OK(w, map[string]interface{}{
		"item_id": itemID,
		"delta":   req.Delta,
		"reason":  req.Reason,
	})
}

// mapSaleError translates repository errors to API errors. Stock and
// validation failures are client errors, not server faults.
func mapSaleError(err error) error {
	switch {
	case err == repository.ErrNotFound:
		return apierror.NotFound("item not found")
	case strings.Contains(err.Error(), "insufficient stock"),
		strings.Contains(err.Error(), "stock negative"):
		return apierror.UnprocessableEntity(err.Error())
	case strings.Contains(err.Error(), "does not match"),
		strings.Contains(err.Error(), "non-positive quantity"),
		strings.Contains(err.Error(), "no line items"):
		return apierror.UnprocessableEntity(err.Error())
	default:
		return err
	}
}
