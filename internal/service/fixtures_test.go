package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockpilot-api/internal/model"
	"stockpilot-api/pkg/uid"
)

// --- Test Fixtures ---

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func testItem(name string, stock, minStock int, price float64) model.InventoryItem {
	return model.InventoryItem{
		ID:            uid.New(),
		UserID:        "user-1",
		Name:          name,
		CurrentStock:  stock,
		MinStockLevel: minStock,
		UnitPrice:     price,
		UpdatedAt:     time.Now(),
	}
}

func testSale(amount float64, daysAgo int, items ...model.SaleItem) model.Sale {
	return model.Sale{
		ID:            uid.New(),
		UserID:        "user-1",
		TotalAmount:   amount,
		PaymentMethod: "cash",
		Status:        model.SaleStatusCompleted,
		CreatedAt:     time.Now().AddDate(0, 0, -daysAgo),
		Items:         items,
	}
}

func saleLine(itemID string, qty int, unitPrice float64) model.SaleItem {
	return model.SaleItem{
		ID:         uid.New(),
		ItemID:     itemID,
		Quantity:   qty,
		UnitPrice:  unitPrice,
		TotalPrice: float64(qty) * unitPrice,
	}
}

// shopSnapshot is a small healthy business: three items, a handful of sales.
func shopSnapshot() *model.BusinessSnapshot {
	coffee := testItem("Coffee Beans", 40, 10, 18.50)
	mug := testItem("Ceramic Mug", 25, 5, 12.00)
	grinder := testItem("Burr Grinder", 8, 2, 149.99)

	return &model.BusinessSnapshot{
		Inventory: []model.InventoryItem{coffee, mug, grinder},
		Sales: []model.Sale{
			testSale(37.00, 1, saleLine(coffee.ID, 2, 18.50)),
			testSale(149.99, 2, saleLine(grinder.ID, 1, 149.99)),
			testSale(24.00, 3, saleLine(mug.ID, 2, 12.00)),
			testSale(18.50, 5, saleLine(coffee.ID, 1, 18.50)),
		},
		Categories: []model.Category{
			{ID: uid.New(), UserID: "user-1", Name: "Beverages"},
		},
	}
}

// --- Fake repository ---

// fakeRepo is an in-memory BusinessRepository for service tests. Per-method
// error fields simulate store failures.
type fakeRepo struct {
	inventory  []model.InventoryItem
	sales      []model.Sale
	movements  []model.StockMovement
	categories []model.Category
	insights   []model.Insight
	userIDs    []string

	inventoryErr error
	salesErr     error
	appendErr    error

	mu              sync.Mutex
	appendedBatches int
}

func (f *fakeRepo) ListInventory(ctx context.Context, userID string, limit int) ([]model.InventoryItem, error) {
	if f.inventoryErr != nil {
		return nil, f.inventoryErr
	}
	return f.inventory, nil
}

func (f *fakeRepo) ListSalesWithItems(ctx context.Context, userID string, limit int) ([]model.Sale, error) {
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return f.sales, nil
}

func (f *fakeRepo) ListStockMovements(ctx context.Context, userID string, limit int) ([]model.StockMovement, error) {
	return f.movements, nil
}

func (f *fakeRepo) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	return f.categories, nil
}

func (f *fakeRepo) CreateSale(ctx context.Context, sale *model.Sale) error {
	f.sales = append([]model.Sale{*sale}, f.sales...)
	return nil
}

func (f *fakeRepo) AdjustStock(ctx context.Context, userID, itemID string, delta int, reason string) error {
	return nil
}

func (f *fakeRepo) AppendInsights(ctx context.Context, insights []model.Insight) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insights = append(f.insights, insights...)
	f.appendedBatches++
	return nil
}

// appendCount reads appendedBatches safely while scheduler goroutines run.
func (f *fakeRepo) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendedBatches
}

func (f *fakeRepo) ListInsights(ctx context.Context, userID string, limit int) ([]model.Insight, error) {
	return f.insights, nil
}

func (f *fakeRepo) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	for i := range f.insights {
		if f.insights[i].ID == insightID {
			f.insights[i].IsRead = true
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRepo) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	return f.userIDs, nil
}

func (f *fakeRepo) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (f *fakeRepo) Close() error { return nil }
