package model

import (
	"strings"
	"testing"
)

func validSale() *Sale {
	return &Sale{
		ID:          "sale-1",
		UserID:      "user-1",
		TotalAmount: 70,
		Status:      SaleStatusCompleted,
		Items: []SaleItem{
			{ItemID: "item-1", Quantity: 2, UnitPrice: 20, TotalPrice: 40},
			{ItemID: "item-2", Quantity: 3, UnitPrice: 10, TotalPrice: 30},
		},
	}
}

func TestSaleValidateAccepts(t *testing.T) {
	if err := validSale().Validate(); err != nil {
		t.Errorf("Valid sale rejected: %v", err)
	}
}

func TestSaleValidateTotalMismatch(t *testing.T) {
	s := validSale()
	s.TotalAmount = 99

	err := s.Validate()
	if err == nil {
		t.Fatal("Expected error for mismatched total")
	}
	if !strings.Contains(err.Error(), "does not match") {
		t.Errorf("Wrong error: %v", err)
	}
}

func TestSaleValidateToleratesRounding(t *testing.T) {
	s := &Sale{
		TotalAmount: 0.30,
		Items: []SaleItem{
			{ItemID: "item-1", Quantity: 3, UnitPrice: 0.10, TotalPrice: 0.30},
		},
	}
	// 3 * 0.10 accumulates float error; the tolerance must absorb it.
	if err := s.Validate(); err != nil {
		t.Errorf("Rounding noise rejected: %v", err)
	}
}

func TestSaleValidateLineTotalMismatch(t *testing.T) {
	s := validSale()
	s.Items[0].TotalPrice = 45
	s.TotalAmount = 75

	if err := s.Validate(); err == nil {
		t.Error("Expected error for bad line total")
	}
}

func TestSaleValidateNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		s := validSale()
		s.Items[0].Quantity = qty
		if err := s.Validate(); err == nil {
			t.Errorf("Expected error for quantity %d", qty)
		}
	}
}

func TestSaleValidateNoItems(t *testing.T) {
	s := &Sale{TotalAmount: 0}
	if err := s.Validate(); err == nil {
		t.Error("Expected error for sale without items")
	}
}

func TestIsLowStock(t *testing.T) {
	cases := []struct {
		name     string
		stock    int
		minStock int
		want     bool
	}{
		{"below threshold", 2, 5, true},
		{"at threshold", 5, 5, true},
		{"above threshold", 6, 5, false},
		{"zero threshold never low", 0, 0, false},
		{"zero stock with threshold", 0, 1, true},
	}
	for _, tc := range cases {
		item := InventoryItem{CurrentStock: tc.stock, MinStockLevel: tc.minStock}
		if got := item.IsLowStock(); got != tc.want {
			t.Errorf("%s: IsLowStock() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStockValue(t *testing.T) {
	item := InventoryItem{CurrentStock: 4, UnitPrice: 12.50}
	if got := item.StockValue(); got != 50 {
		t.Errorf("StockValue() = %.2f, want 50", got)
	}
}

func TestSnapshotItemByID(t *testing.T) {
	snap := &BusinessSnapshot{
		Inventory: []InventoryItem{
			{ID: "a", Name: "First"},
			{ID: "b", Name: "Second"},
		},
	}

	if item := snap.ItemByID("b"); item == nil || item.Name != "Second" {
		t.Errorf("ItemByID(b) = %+v", item)
	}
	if item := snap.ItemByID("missing"); item != nil {
		t.Errorf("Expected nil for unknown ID, got %+v", item)
	}
}
