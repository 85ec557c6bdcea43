package service

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"stockpilot-api/internal/model"
)

// Heuristic constants for the forecast/anomaly engine. These are deliberate
// simplifications, not fitted model parameters.
const (
	revenueGrowthFactor = 1.15 // flat 15% growth assumption
	salesGrowthFactor   = 1.1
	forecastConfidence  = 85

	velocityDeclineRatio = 0.7 // recent window below 70% of prior fires an anomaly
	highValueThreshold   = 100.0
	trendDays            = 30
	predictedDays        = 7 // most recent days that get a synthesized prediction
)

// AnalyticsEngine computes forecasts, anomalies, recommendations, the revenue
// trend series and the optimization score from one snapshot. The computation
// is deterministic for a given snapshot and clock unless Jitter is set.
type AnalyticsEngine struct {
	// Now supplies the reference time for trend bucketing and the seasonal
	// calendar rule. Defaults to time.Now.
	Now func() time.Time

	// Jitter, when non-nil, perturbs the predicted value of the most recent
	// trend days by up to +/-10%. Nil keeps predictions equal to actuals.
	// rand.Rand is not safe for concurrent use and reports are generated
	// per request, so draws go through jitterMu.
	Jitter *rand.Rand

	jitterMu sync.Mutex
}

// NewAnalyticsEngine creates an engine with a real clock and no jitter.
func NewAnalyticsEngine() *AnalyticsEngine {
	return &AnalyticsEngine{Now: time.Now}
}

// GenerateReport runs the full engine over a snapshot.
func (e *AnalyticsEngine) GenerateReport(snap *model.BusinessSnapshot) *model.AnalyticsReport {
	now := e.now()

	return &model.AnalyticsReport{
		Forecasts:          e.forecast(snap),
		Anomalies:          e.detectAnomalies(snap, now),
		Recommendations:    e.buildRecommendations(snap, now),
		RevenueTrend:       e.revenueTrend(snap, now),
		ProductPerformance: productPerformance(snap),
		OptimizationScore:  OptimizationScore(snap),
		GeneratedAt:        now,
	}
}

func (e *AnalyticsEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// forecast projects revenue and sales volume from the trailing window.
// Revenue scales the trailing average daily revenue by a flat growth factor;
// the result is monotonically non-decreasing in trailing revenue.
func (e *AnalyticsEngine) forecast(snap *model.BusinessSnapshot) model.Forecast {
	recent := trailingSales(snap.Sales, trailingWindow)

	var totalRevenue float64
	for _, sale := range recent {
		totalRevenue += sale.TotalAmount
	}
	avgDailyRevenue := totalRevenue / trailingWindow

	return model.Forecast{
		Revenue:    int(math.Round(avgDailyRevenue * trailingWindow * revenueGrowthFactor)),
		Sales:      int(math.Round(float64(len(recent)) * salesGrowthFactor)),
		Confidence: forecastConfidence,
	}
}

// detectAnomalies evaluates each anomaly rule independently; zero or more
// may fire.
func (e *AnalyticsEngine) detectAnomalies(snap *model.BusinessSnapshot, now time.Time) []model.Anomaly {
	var anomalies []model.Anomaly

	// Critical stock: one aggregate anomaly naming the count and an example.
	var critical []model.InventoryItem
	for _, item := range snap.Inventory {
		if item.IsLowStock() {
			critical = append(critical, item)
		}
	}
	if len(critical) > 0 {
		anomalies = append(anomalies, model.Anomaly{
			Title: "Critical Stock Levels Detected",
			Description: fmt.Sprintf("%d items are below minimum stock levels, risking stockouts. Items like %q need immediate restocking.",
				len(critical), critical[0].Name),
			Severity:   model.SeverityHigh,
			Confidence: 0.95,
			DetectedAt: now,
		})
	}

	// Sales velocity decline: compares sale counts over the last 30 calendar
	// days against the 30 days before that. An empty prior window means no
	// anomaly, not an error.
	recentCutoff := now.AddDate(0, 0, -trendDays)
	priorCutoff := now.AddDate(0, 0, -2*trendDays)
	recentCount, priorCount := 0, 0
	for _, sale := range snap.Sales {
		switch {
		case !sale.CreatedAt.Before(recentCutoff):
			recentCount++
		case !sale.CreatedAt.Before(priorCutoff):
			priorCount++
		}
	}
	if priorCount > 0 && float64(recentCount) < float64(priorCount)*velocityDeclineRatio {
		anomalies = append(anomalies, model.Anomaly{
			Title:       "Sales Velocity Decline",
			Description: "Sales frequency has decreased by more than 30% compared to the previous period.",
			Severity:    model.SeverityMedium,
			Confidence:  0.8,
			DetectedAt:  now,
		})
	}

	return anomalies
}

// buildRecommendations ranks high-value focus items and applies the seasonal
// calendar rule.
func (e *AnalyticsEngine) buildRecommendations(snap *model.BusinessSnapshot, now time.Time) []model.Recommendation {
	var recs []model.Recommendation

	highValue := HighValueItems(snap, 3)
	if len(highValue) > 0 {
		recs = append(recs, model.Recommendation{
			Title: "Optimize High-Value Inventory",
			Description: fmt.Sprintf("Focus on %d high-value items like %q that represent significant capital investment.",
				len(highValue), highValue[0].Name),
			Category:   "Inventory",
			Impact:     "High",
			Confidence: 0.85,
		})
	}

	if isHolidaySeason(now.Month()) {
		recs = append(recs, model.Recommendation{
			Title:       "Prepare for Seasonal Demand",
			Description: "Historical patterns suggest increased demand during holiday season. Consider increasing stock levels.",
			Category:    "Forecasting",
			Impact:      "Medium",
			Confidence:  0.7,
		})
	}

	return recs
}

// HighValueItems returns up to n items priced above the high-value threshold,
// ranked by capital tied up (unit price x current stock) descending.
func HighValueItems(snap *model.BusinessSnapshot, n int) []model.InventoryItem {
	var items []model.InventoryItem
	for _, item := range snap.Inventory {
		if item.UnitPrice > highValueThreshold {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StockValue() > items[j].StockValue()
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// isHolidaySeason reports whether the month falls in the Oct-Jan window.
func isHolidaySeason(m time.Month) bool {
	return m >= time.October || m == time.January
}

// revenueTrend builds the trailing daily revenue series. The most recent
// predictedDays get a synthesized prediction; older days predict the actual.
func (e *AnalyticsEngine) revenueTrend(snap *model.BusinessSnapshot, now time.Time) []model.TrendPoint {
	// Bucket revenue by calendar day once.
	daily := make(map[string]float64)
	for _, sale := range snap.Sales {
		day := sale.CreatedAt.In(now.Location()).Format("2006-01-02")
		daily[day] += sale.TotalAmount
	}

	trend := make([]model.TrendPoint, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		actual := daily[date.Format("2006-01-02")]

		predicted := actual
		if i < predictedDays && e.Jitter != nil {
			// +/- up to 10% of the actual value.
			e.jitterMu.Lock()
			draw := e.Jitter.Float64()
			e.jitterMu.Unlock()
			predicted = math.Round(actual * (1 + draw*0.2 - 0.1))
		}

		trend = append(trend, model.TrendPoint{
			Period:    date.Format("Jan 2"),
			Actual:    actual,
			Predicted: predicted,
		})
	}
	return trend
}

// productPerformance returns the top products by revenue as chart points.
func productPerformance(snap *model.BusinessSnapshot) []model.ChartPoint {
	top := TopProductsByRevenue(snap, 5)
	points := make([]model.ChartPoint, 0, len(top))
	for _, p := range top {
		points = append(points, model.ChartPoint{Name: p.Name, Value: p.Revenue})
	}
	return points
}

// OptimizationScore averages stock health and sales efficiency, each clamped
// to [0,100]. Empty inventory or sales contribute 0 for their term rather
// than dividing by zero, so the result is always within [0,100].
func OptimizationScore(snap *model.BusinessSnapshot) int {
	var stockTerm float64
	if len(snap.Inventory) > 0 {
		above := 0
		for _, item := range snap.Inventory {
			if item.CurrentStock > item.MinStockLevel {
				above++
			}
		}
		stockTerm = float64(above) / float64(len(snap.Inventory)) * 100
	}

	var salesEfficiency float64
	if len(snap.Sales) > 0 {
		salesEfficiency = math.Min(100, float64(len(snap.Sales))/trailingWindow*10)
	}

	return int(math.Round((stockTerm + salesEfficiency) / 2))
}
