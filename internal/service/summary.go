package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"stockpilot-api/internal/model"

	"github.com/dustin/go-humanize"
)

// trailingWindow is the number of most-recent sales used for recency-bounded
// aggregates (revenue, order count, velocity comparisons).
const trailingWindow = 30

// uncategorizedBucket is the category name for items without a category.
const uncategorizedBucket = "Uncategorized"

// BuildSummary reduces a snapshot into the compact digest consumed by both
// the LLM prompt and the rule-based answer library.
func BuildSummary(snap *model.BusinessSnapshot) model.BusinessSummary {
	sum := model.BusinessSummary{
		InventoryCount: len(snap.Inventory),
		CategoryCount:  len(snap.Categories),
		MovementCount:  len(snap.StockMovements),
	}

	for _, item := range snap.Inventory {
		sum.TotalInventoryValue += item.StockValue()
		if item.IsLowStock() {
			sum.LowStockCount++
		}
	}

	recent := trailingSales(snap.Sales, trailingWindow)
	sum.RecentSaleCount = len(recent)
	for _, sale := range recent {
		sum.RecentRevenue += sale.TotalAmount
	}
	if sum.RecentSaleCount > 0 {
		sum.AvgOrderValue = sum.RecentRevenue / float64(sum.RecentSaleCount)
	}

	sum.TopProducts = TopProductsByRevenue(snap, 5)
	sum.CategoryBreakdown = CategoryBreakdown(snap)

	return sum
}

// trailingSales returns the first n sales of the snapshot's most-recent-first
// ordering.
func trailingSales(sales []model.Sale, n int) []model.Sale {
	if len(sales) < n {
		return sales
	}
	return sales[:n]
}

// windowRevenue sums total amounts over sales[from:to), clamped to bounds.
func windowRevenue(sales []model.Sale, from, to int) float64 {
	if from > len(sales) {
		from = len(sales)
	}
	if to > len(sales) {
		to = len(sales)
	}
	var total float64
	for _, s := range sales[from:to] {
		total += s.TotalAmount
	}
	return total
}

// TopProductsByRevenue ranks products by revenue (quantity x captured unit
// price summed across all sales in the snapshot). Ties keep first-seen order.
// Note the rule-based best-seller handler intentionally ranks by quantity
// instead; the two rankings are distinct operations.
func TopProductsByRevenue(snap *model.BusinessSnapshot, n int) []model.ProductStat {
	stats := accumulateProductStats(snap)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Revenue > stats[j].Revenue
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// TopProductsByQuantity ranks products by units sold. Ties keep first-seen
// order.
func TopProductsByQuantity(snap *model.BusinessSnapshot, n int) []model.ProductStat {
	stats := accumulateProductStats(snap)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Quantity > stats[j].Quantity
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// accumulateProductStats folds sale line items into per-product aggregates,
// preserving discovery order for deterministic tie-breaking.
func accumulateProductStats(snap *model.BusinessSnapshot) []model.ProductStat {
	var stats []model.ProductStat
	index := make(map[string]int)

	for _, sale := range snap.Sales {
		for _, it := range sale.Items {
			i, ok := index[it.ItemID]
			if !ok {
				i = len(stats)
				index[it.ItemID] = i
				name := "Product " + it.ItemID
				if item := snap.ItemByID(it.ItemID); item != nil {
					name = item.Name
				}
				stats = append(stats, model.ProductStat{ItemID: it.ItemID, Name: name})
			}
			stats[i].Quantity += it.Quantity
			stats[i].Revenue += float64(it.Quantity) * it.UnitPrice
		}
	}
	return stats
}

// CategoryBreakdown aggregates item count and stock value per category.
// Items with no category fold into the "Uncategorized" bucket.
func CategoryBreakdown(snap *model.BusinessSnapshot) []model.CategoryStat {
	names := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		names[c.ID] = c.Name
	}

	var stats []model.CategoryStat
	index := make(map[string]int)

	for _, item := range snap.Inventory {
		name := uncategorizedBucket
		if item.CategoryID != nil {
			if n, ok := names[*item.CategoryID]; ok {
				name = n
			}
		}

		i, ok := index[name]
		if !ok {
			i = len(stats)
			index[name] = i
			stats = append(stats, model.CategoryStat{Name: name})
		}
		stats[i].Items++
		stats[i].Value += item.StockValue()
	}
	return stats
}

// FormatSummary renders the digest as the text block embedded in the LLM
// prompt.
func FormatSummary(sum model.BusinessSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "INVENTORY OVERVIEW:\n")
	fmt.Fprintf(&b, "- Total Items: %d\n", sum.InventoryCount)
	fmt.Fprintf(&b, "- Total Inventory Value: $%s\n", humanize.Commaf(round2(sum.TotalInventoryValue)))
	fmt.Fprintf(&b, "- Low Stock Items: %d\n", sum.LowStockCount)
	fmt.Fprintf(&b, "- Categories: %d\n\n", sum.CategoryCount)

	fmt.Fprintf(&b, "SALES PERFORMANCE (Last %d transactions):\n", trailingWindow)
	fmt.Fprintf(&b, "- Total Revenue: $%s\n", humanize.Commaf(round2(sum.RecentRevenue)))
	fmt.Fprintf(&b, "- Number of Sales: %d\n", sum.RecentSaleCount)
	fmt.Fprintf(&b, "- Average Order Value: $%.2f\n\n", sum.AvgOrderValue)

	b.WriteString("TOP PERFORMING PRODUCTS:\n")
	for _, p := range sum.TopProducts {
		fmt.Fprintf(&b, "- %s: %d units, $%s\n", p.Name, p.Quantity, humanize.Commaf(round2(p.Revenue)))
	}

	b.WriteString("\nCATEGORY BREAKDOWN:\n")
	for _, c := range sum.CategoryBreakdown {
		fmt.Fprintf(&b, "- %s: %d items, $%s value\n", c.Name, c.Items, humanize.Commaf(round2(c.Value)))
	}

	fmt.Fprintf(&b, "\nRECENT STOCK MOVEMENTS: %d movements tracked\n", sum.MovementCount)

	return b.String()
}

// round2 rounds to two decimal places for display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
