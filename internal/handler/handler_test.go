package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"stockpilot-api/internal/middleware"
)

// authedRequest builds a request carrying an authenticated user ID, the way
// the auth middleware would.
func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, "user-1")
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response not JSON: %v", err)
	}
	return body
}

func TestMarkReadRejectsMalformedID(t *testing.T) {
	h := NewInsightHandler(nil, nil)

	rec := httptest.NewRecorder()
	r := authedRequest(http.MethodPost, "/api/v1/insights/not-a-uuid/read", "")
	r = withURLParam(r, "insight_id", "not-a-uuid")

	h.MarkRead(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed insight ID, got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body["success"] != false {
		t.Errorf("Expected success=false, got %v", body["success"])
	}
}

func TestMarkReadRequiresAuth(t *testing.T) {
	h := NewInsightHandler(nil, nil)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/insights/x/read", nil)

	h.MarkRead(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without user context, got %d", rec.Code)
	}
}

func TestListInsightsRejectsBadLimit(t *testing.T) {
	h := NewInsightHandler(nil, nil)

	for _, limit := range []string{"abc", "-5", "0"} {
		rec := httptest.NewRecorder()
		r := authedRequest(http.MethodGet, "/api/v1/insights?limit="+limit, "")

		h.List(rec, r)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Limit %q: expected 400, got %d", limit, rec.Code)
		}
	}
}

func TestCreateSaleRejectsEmptyItems(t *testing.T) {
	h := NewSalesHandler(nil, nil)

	rec := httptest.NewRecorder()
	r := authedRequest(http.MethodPost, "/api/v1/sales", `{"total_amount": 10, "items": []}`)

	h.CreateSale(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty items, got %d", rec.Code)
	}
}

func TestCreateSaleRejectsBadItemID(t *testing.T) {
	h := NewSalesHandler(nil, nil)

	rec := httptest.NewRecorder()
	r := authedRequest(http.MethodPost, "/api/v1/sales",
		`{"total_amount": 10, "items": [{"inventory_item_id": "nope", "quantity": 1, "unit_price": 10}]}`)

	h.CreateSale(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed item ID, got %d", rec.Code)
	}
}

func TestAdjustStockRejectsZeroDelta(t *testing.T) {
	h := NewSalesHandler(nil, nil)

	rec := httptest.NewRecorder()
	r := authedRequest(http.MethodPost, "/api/v1/inventory/x/adjust", `{"delta": 0}`)
	r = withURLParam(r, "item_id", "2b1f8f0a-58a8-4f4e-9f2d-98a1c3a0b7de")

	h.AdjustStock(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for zero delta, got %d", rec.Code)
	}
}

func TestStatusEndpointShape(t *testing.T) {
	h := New(nil)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Service string `json:"service"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response not JSON: %v", err)
	}
	if body.Data.Service != "stockpilot-api" || body.Data.Status != "ok" {
		t.Errorf("Wrong status payload: %+v", body.Data)
	}
}
