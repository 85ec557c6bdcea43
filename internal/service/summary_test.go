package service

import (
	"strings"
	"testing"

	"stockpilot-api/internal/model"
	"stockpilot-api/pkg/uid"
)

func TestBuildSummaryCounts(t *testing.T) {
	snap := shopSnapshot()
	sum := BuildSummary(snap)

	if sum.InventoryCount != 3 {
		t.Errorf("Expected 3 inventory items, got %d", sum.InventoryCount)
	}
	if sum.RecentSaleCount != 4 {
		t.Errorf("Expected 4 recent sales, got %d", sum.RecentSaleCount)
	}

	wantRevenue := 37.00 + 149.99 + 24.00 + 18.50
	if sum.RecentRevenue != wantRevenue {
		t.Errorf("Expected revenue %.2f, got %.2f", wantRevenue, sum.RecentRevenue)
	}
	wantAvg := wantRevenue / 4
	if sum.AvgOrderValue != wantAvg {
		t.Errorf("Expected avg order %.2f, got %.2f", wantAvg, sum.AvgOrderValue)
	}

	wantValue := 40*18.50 + 25*12.00 + 8*149.99
	if sum.TotalInventoryValue != wantValue {
		t.Errorf("Expected inventory value %.2f, got %.2f", wantValue, sum.TotalInventoryValue)
	}
}

func TestBuildSummaryLowStockCount(t *testing.T) {
	snap := &model.BusinessSnapshot{
		Inventory: []model.InventoryItem{
			testItem("At threshold", 5, 5, 10),
			testItem("Below threshold", 1, 5, 10),
			testItem("Healthy", 50, 5, 10),
			testItem("No threshold", 0, 0, 10), // zero min never counts as low
		},
	}

	sum := BuildSummary(snap)
	if sum.LowStockCount != 2 {
		t.Errorf("Expected 2 low stock items, got %d", sum.LowStockCount)
	}
}

func TestBuildSummaryEmptySnapshot(t *testing.T) {
	sum := BuildSummary(&model.BusinessSnapshot{})

	if sum.InventoryCount != 0 || sum.RecentSaleCount != 0 {
		t.Errorf("Expected zero counts, got inventory=%d sales=%d", sum.InventoryCount, sum.RecentSaleCount)
	}
	if sum.AvgOrderValue != 0 {
		t.Errorf("Expected zero avg order value, got %.2f", sum.AvgOrderValue)
	}
}

func TestTopProductsByRevenueRanking(t *testing.T) {
	snap := shopSnapshot()
	top := TopProductsByRevenue(snap, 5)

	if len(top) != 3 {
		t.Fatalf("Expected 3 products, got %d", len(top))
	}
	if top[0].Name != "Burr Grinder" {
		t.Errorf("Expected Burr Grinder first by revenue, got %s", top[0].Name)
	}
	if top[1].Name != "Coffee Beans" {
		t.Errorf("Expected Coffee Beans second, got %s", top[1].Name)
	}
	if top[0].Revenue != 149.99 {
		t.Errorf("Expected grinder revenue 149.99, got %.2f", top[0].Revenue)
	}
}

func TestTopProductsTieKeepsFirstSeenOrder(t *testing.T) {
	a := testItem("Alpha", 10, 0, 20)
	b := testItem("Beta", 10, 0, 20)

	snap := &model.BusinessSnapshot{
		Inventory: []model.InventoryItem{a, b},
		Sales: []model.Sale{
			testSale(40, 1, saleLine(a.ID, 2, 20)),
			testSale(40, 2, saleLine(b.ID, 2, 20)),
		},
	}

	top := TopProductsByRevenue(snap, 5)
	if len(top) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(top))
	}
	// Alpha appears first in the sales stream; equal revenue must not reorder.
	if top[0].Name != "Alpha" || top[1].Name != "Beta" {
		t.Errorf("Tie broke first-seen order: got %s, %s", top[0].Name, top[1].Name)
	}
}

func TestProductNameFallbackForUnknownItem(t *testing.T) {
	ghostID := uid.New()
	snap := &model.BusinessSnapshot{
		Sales: []model.Sale{
			testSale(30, 1, saleLine(ghostID, 3, 10)),
		},
	}

	top := TopProductsByRevenue(snap, 5)
	if len(top) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(top))
	}
	if !strings.HasPrefix(top[0].Name, "Product ") {
		t.Errorf("Expected placeholder name for unknown item, got %q", top[0].Name)
	}
}

func TestCategoryBreakdownUncategorizedBucket(t *testing.T) {
	cat := model.Category{ID: uid.New(), UserID: "user-1", Name: "Beverages"}
	inCat := testItem("Coffee Beans", 10, 0, 20)
	inCat.CategoryID = &cat.ID
	loose := testItem("Mystery Box", 5, 0, 8)

	snap := &model.BusinessSnapshot{
		Inventory:  []model.InventoryItem{inCat, loose},
		Categories: []model.Category{cat},
	}

	breakdown := CategoryBreakdown(snap)

	var beverages, uncategorized *model.CategoryStat
	for i := range breakdown {
		switch breakdown[i].Name {
		case "Beverages":
			beverages = &breakdown[i]
		case uncategorizedBucket:
			uncategorized = &breakdown[i]
		}
	}

	if beverages == nil || beverages.Items != 1 || beverages.Value != 200 {
		t.Errorf("Beverages bucket wrong: %+v", beverages)
	}
	if uncategorized == nil || uncategorized.Items != 1 || uncategorized.Value != 40 {
		t.Errorf("Uncategorized bucket wrong: %+v", uncategorized)
	}
}

func TestFormatSummaryContainsSections(t *testing.T) {
	text := FormatSummary(BuildSummary(shopSnapshot()))

	for _, section := range []string{
		"INVENTORY OVERVIEW:",
		"SALES PERFORMANCE",
		"TOP PERFORMING PRODUCTS:",
		"CATEGORY BREAKDOWN:",
		"RECENT STOCK MOVEMENTS:",
	} {
		if !strings.Contains(text, section) {
			t.Errorf("Summary text missing section %q", section)
		}
	}

	if !strings.Contains(text, "Total Items: 3") {
		t.Errorf("Summary text missing item count:\n%s", text)
	}
}
