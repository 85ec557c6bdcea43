package service

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"stockpilot-api/internal/model"
)

// Cost fallback when an item has no recorded cost price.
const defaultCostRatio = 0.6

// AnswerWithRules answers a business question with keyword dispatch over the
// snapshot. It is the fallback path when no language model is configured or
// the model call fails, so it must always produce an answer. Dispatch order
// is fixed; the first matching topic wins.
func AnswerWithRules(snap *model.BusinessSnapshot, question string) *model.QueryResponse {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "profit") || strings.Contains(q, "margin"):
		return profitAnswer(snap)
	case strings.Contains(q, "trend") || strings.Contains(q, "forecast"):
		return trendAnswer(snap)
	case strings.Contains(q, "best-sell") || strings.Contains(q, "best sell") || strings.Contains(q, "top product"):
		return bestSellerAnswer(snap)
	case strings.Contains(q, "inventory") || strings.Contains(q, "stock"):
		return inventoryAnswer(snap)
	case strings.Contains(q, "revenue") || strings.Contains(q, "sales"):
		return revenueAnswer(snap)
	default:
		return defaultAnswer(snap)
	}
}

// profitAnswer estimates margin from all sales against inventory cost basis.
// Missing cost prices fall back to a fixed fraction of the unit price.
func profitAnswer(snap *model.BusinessSnapshot) *model.QueryResponse {
	var revenue float64
	for _, sale := range snap.Sales {
		revenue += sale.TotalAmount
	}
	if revenue == 0 {
		return &model.QueryResponse{
			Answer:     "There is not enough sales data yet to estimate your profit margins.",
			Insights:   []string{"No completed sales were found in the current window."},
			Confidence: 70,
			Sources:    []string{"sales_data", "inventory_data"},
		}
	}

	var cost float64
	for _, item := range snap.Inventory {
		unitCost := item.UnitPrice * defaultCostRatio
		if item.CostPrice != nil {
			unitCost = *item.CostPrice
		}
		cost += float64(item.CurrentStock) * unitCost
	}
	margin := (revenue - cost) / revenue * 100

	return &model.QueryResponse{
		Answer: fmt.Sprintf("Your estimated profit margin is %.1f%% based on $%s in sales revenue against current inventory cost.",
			margin, humanize.Commaf(round2(revenue))),
		Insights: []string{
			fmt.Sprintf("Total revenue across recorded sales: $%s", humanize.Commaf(round2(revenue))),
			fmt.Sprintf("Estimated inventory cost basis: $%s", humanize.Commaf(round2(cost))),
		},
		Recommendations: []string{
			"Record cost prices on all items for accurate margin tracking.",
			"Review low-margin items for pricing adjustments.",
		},
		Data: []model.DataPoint{
			{Label: "Revenue", Value: fmt.Sprintf("$%s", humanize.Commaf(round2(revenue)))},
			{Label: "Estimated Cost", Value: fmt.Sprintf("$%s", humanize.Commaf(round2(cost)))},
			{Label: "Margin", Value: fmt.Sprintf("%.1f%%", margin)},
		},
		Confidence: 70,
		Sources:    []string{"sales_data", "inventory_data"},
	}
}

// trendAnswer compares the trailing revenue window against the one before it.
func trendAnswer(snap *model.BusinessSnapshot) *model.QueryResponse {
	recent := windowRevenue(snap.Sales, 0, trailingWindow)
	prior := windowRevenue(snap.Sales, trailingWindow, 2*trailingWindow)

	if prior == 0 {
		return &model.QueryResponse{
			Answer:     "There is no prior sales period to compare against yet, so a trend cannot be computed.",
			Insights:   []string{fmt.Sprintf("Recent period revenue: $%s", humanize.Commaf(round2(recent)))},
			Confidence: 80,
			Sources:    []string{"sales_trends", "revenue_analysis"},
		}
	}

	change := (recent - prior) / prior * 100
	direction := "up"
	if change < 0 {
		direction = "down"
	}

	return &model.QueryResponse{
		Answer: fmt.Sprintf("Your sales revenue is %s %.1f%% compared to the previous period ($%s vs $%s).",
			direction, absFloat(change), humanize.Commaf(round2(recent)), humanize.Commaf(round2(prior))),
		Insights: []string{
			fmt.Sprintf("Recent period revenue: $%s", humanize.Commaf(round2(recent))),
			fmt.Sprintf("Previous period revenue: $%s", humanize.Commaf(round2(prior))),
		},
		Recommendations: []string{"Track this trend weekly to catch shifts early."},
		Data: []model.DataPoint{
			{Label: "Recent Revenue", Value: fmt.Sprintf("$%s", humanize.Commaf(round2(recent)))},
			{Label: "Previous Revenue", Value: fmt.Sprintf("$%s", humanize.Commaf(round2(prior)))},
			{Label: "Change", Value: fmt.Sprintf("%.1f%%", change)},
		},
		Confidence: 80,
		Sources:    []string{"sales_trends", "revenue_analysis"},
	}
}

func bestSellerAnswer(snap *model.BusinessSnapshot) *model.QueryResponse {
	top := TopProductsByQuantity(snap, 3)
	if len(top) == 0 {
		return &model.QueryResponse{
			Answer:     "No sales have been recorded yet, so there is no best-selling product to report.",
			Confidence: 75,
			Sources:    []string{"sales_data"},
		}
	}

	data := make([]model.DataPoint, 0, len(top))
	for _, p := range top {
		data = append(data, model.DataPoint{
			Label: p.Name,
			Value: fmt.Sprintf("%d units", p.Quantity),
		})
	}

	return &model.QueryResponse{
		Answer: fmt.Sprintf("Your best-selling product is %q with %d units sold.", top[0].Name, top[0].Quantity),
		Insights: []string{
			fmt.Sprintf("%q also generated $%s in revenue.", top[0].Name, humanize.Commaf(round2(top[0].Revenue))),
		},
		Recommendations: []string{fmt.Sprintf("Keep %q well stocked to avoid missed sales.", top[0].Name)},
		Data:            data,
		Confidence:      75,
		Sources:         []string{"sales_data"},
	}
}

func inventoryAnswer(snap *model.BusinessSnapshot) *model.QueryResponse {
	var totalValue float64
	lowStock := 0
	for _, item := range snap.Inventory {
		totalValue += item.StockValue()
		if item.IsLowStock() {
			lowStock++
		}
	}

	answer := fmt.Sprintf("You have %d inventory items worth $%s in total.",
		len(snap.Inventory), humanize.Commaf(round2(totalValue)))
	insights := []string{}
	recommendations := []string{}
	if lowStock > 0 {
		insights = append(insights, fmt.Sprintf("%d items are at or below their minimum stock level.", lowStock))
		recommendations = append(recommendations, "Restock low items before they run out.")
	}

	return &model.QueryResponse{
		Answer:          answer,
		Insights:        insights,
		Recommendations: recommendations,
		Data: []model.DataPoint{
			{Label: "Total Items", Value: fmt.Sprintf("%d", len(snap.Inventory))},
			{Label: "Inventory Value", Value: fmt.Sprintf("$%s", humanize.Commaf(round2(totalValue)))},
			{Label: "Low Stock Items", Value: fmt.Sprintf("%d", lowStock)},
		},
		Confidence: 75,
		Sources:    []string{"inventory_data"},
	}
}

func revenueAnswer(snap *model.BusinessSnapshot) *model.QueryResponse {
	recent := trailingSales(snap.Sales, trailingWindow)
	var total float64
	for _, sale := range recent {
		total += sale.TotalAmount
	}

	avg := 0.0
	if len(recent) > 0 {
		avg = total / float64(len(recent))
	}

	return &model.QueryResponse{
		Answer: fmt.Sprintf("Your recent revenue is $%s across %d sales.",
			humanize.Commaf(round2(total)), len(recent)),
		Insights: []string{
			fmt.Sprintf("Average sale value: $%s", humanize.Commaf(round2(avg))),
		},
		Data: []model.DataPoint{
			{Label: "Recent Revenue", Value: fmt.Sprintf("$%s", humanize.Commaf(round2(total)))},
			{Label: "Sale Count", Value: fmt.Sprintf("%d", len(recent))},
			{Label: "Average Sale", Value: fmt.Sprintf("$%s", humanize.Commaf(round2(avg)))},
		},
		Confidence: 75,
		Sources:    []string{"sales_data", "revenue_analysis"},
	}
}

func defaultAnswer(snap *model.BusinessSnapshot) *model.QueryResponse {
	return &model.QueryResponse{
		Answer: "I can help you analyze profits, sales trends, best-selling products, inventory levels, and revenue. Try asking about one of those topics.",
		Insights: []string{
			fmt.Sprintf("Your business currently tracks %d inventory items and %d recorded sales.",
				len(snap.Inventory), len(snap.Sales)),
		},
		Data: []model.DataPoint{
			{Label: "Inventory Items", Value: fmt.Sprintf("%d", len(snap.Inventory))},
			{Label: "Recorded Sales", Value: fmt.Sprintf("%d", len(snap.Sales))},
		},
		Confidence: 60,
		Sources:    []string{"general_business_data"},
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
