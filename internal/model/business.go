package model

import (
	"fmt"
	"math"
	"time"
)

// Sale status values.
const (
	SaleStatusCompleted = "completed"
	SaleStatusPending   = "pending"
	SaleStatusCancelled = "cancelled"
)

// Stock movement types.
const (
	MovementIn  = "in"
	MovementOut = "out"
)

// InventoryItem represents a single stocked product owned by a user.
type InventoryItem struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Name          string    `json:"name" db:"name"`
	SKU           *string   `json:"sku,omitempty" db:"sku"`
	CategoryID    *string   `json:"category_id,omitempty" db:"category_id"`
	CurrentStock  int       `json:"current_stock" db:"current_stock"`
	MinStockLevel int       `json:"min_stock_level" db:"min_stock_level"`
	UnitPrice     float64   `json:"unit_price" db:"unit_price"`
	CostPrice     *float64  `json:"cost_price,omitempty" db:"cost_price"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether the item is at or below its minimum stock level.
// Items with a zero threshold are never considered low stock.
func (i *InventoryItem) IsLowStock() bool {
	return i.MinStockLevel > 0 && i.CurrentStock <= i.MinStockLevel
}

// StockValue returns the capital currently tied up in this item.
func (i *InventoryItem) StockValue() float64 {
	return float64(i.CurrentStock) * i.UnitPrice
}

// Sale represents one completed/pending transaction with its line items.
type Sale struct {
	ID            string     `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	CustomerName  *string    `json:"customer_name,omitempty" db:"customer_name"`
	CustomerEmail *string    `json:"customer_email,omitempty" db:"customer_email"`
	TotalAmount   float64    `json:"total_amount" db:"total_amount"`
	PaymentMethod string     `json:"payment_method" db:"payment_method"`
	Status        string     `json:"status" db:"status"`
	Notes         *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	Items         []SaleItem `json:"sale_items" db:"-"`
}

// ItemsTotal sums the line item totals of the sale.
func (s *Sale) ItemsTotal() float64 {
	var total float64
	for _, it := range s.Items {
		total += it.TotalPrice
	}
	return total
}

// Validate checks the sale total invariant: total_amount must equal the sum
// of its line items, and every line must carry a positive quantity.
func (s *Sale) Validate() error {
	if len(s.Items) == 0 {
		return fmt.Errorf("sale has no line items")
	}
	for _, it := range s.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("sale item %s has non-positive quantity %d", it.ItemID, it.Quantity)
		}
		if math.Abs(it.TotalPrice-float64(it.Quantity)*it.UnitPrice) > 0.01 {
			return fmt.Errorf("sale item %s total %.2f does not match quantity x unit price", it.ItemID, it.TotalPrice)
		}
	}
	if math.Abs(s.TotalAmount-s.ItemsTotal()) > 0.01 {
		return fmt.Errorf("sale total %.2f does not match line items total %.2f", s.TotalAmount, s.ItemsTotal())
	}
	return nil
}

// SaleItem is one line of a sale. Unit price is captured at sale time and
// never recomputed from the current item price.
type SaleItem struct {
	ID         string  `json:"id" db:"id"`
	SaleID     string  `json:"sale_id" db:"sale_id"`
	ItemID     string  `json:"inventory_item_id" db:"inventory_item_id"`
	Quantity   int     `json:"quantity" db:"quantity"`
	UnitPrice  float64 `json:"unit_price" db:"unit_price"`
	TotalPrice float64 `json:"total_price" db:"total_price"`
}

// StockMovement is one entry in the append-only stock ledger.
type StockMovement struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	ItemID       *string   `json:"item_id,omitempty" db:"item_id"`
	MovementType string    `json:"movement_type" db:"movement_type"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Reason       string    `json:"reason" db:"reason"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Category groups inventory items. Items without one fall into the
// "Uncategorized" bucket during analysis.
type Category struct {
	ID          string  `json:"id" db:"id"`
	UserID      string  `json:"user_id" db:"user_id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}

// BusinessSnapshot bundles one user's data at one point in time. It is
// rebuilt on every analytics or assistant request and never persisted.
// Sales are ordered most recent first.
type BusinessSnapshot struct {
	Inventory      []InventoryItem `json:"inventory"`
	Sales          []Sale          `json:"sales"`
	StockMovements []StockMovement `json:"stock_movements"`
	Categories     []Category      `json:"categories"`
}

// ItemByID resolves an inventory item from the snapshot, or nil.
func (s *BusinessSnapshot) ItemByID(id string) *InventoryItem {
	for i := range s.Inventory {
		if s.Inventory[i].ID == id {
			return &s.Inventory[i]
		}
	}
	return nil
}

// BusinessSummary is the compact digest of a snapshot. It feeds both the LLM
// prompt and the rule-based answer library so the two paths see the same facts.
type BusinessSummary struct {
	InventoryCount      int            `json:"inventory_count"`
	TotalInventoryValue float64        `json:"total_inventory_value"`
	LowStockCount       int            `json:"low_stock_count"`
	CategoryCount       int            `json:"category_count"`
	RecentSaleCount     int            `json:"recent_sale_count"`
	RecentRevenue       float64        `json:"recent_revenue"`
	AvgOrderValue       float64        `json:"avg_order_value"`
	TopProducts         []ProductStat  `json:"top_products"`
	CategoryBreakdown   []CategoryStat `json:"category_breakdown"`
	MovementCount       int            `json:"movement_count"`
}

// ProductStat is a per-product sales aggregate.
type ProductStat struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// CategoryStat is a per-category inventory aggregate.
type CategoryStat struct {
	Name  string  `json:"name"`
	Items int     `json:"items"`
	Value float64 `json:"value"`
}
