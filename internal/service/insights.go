package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockpilot-api/internal/model"
	"stockpilot-api/internal/repository"
	"stockpilot-api/pkg/uid"
)

// Thresholds for the persisted insight rules.
const (
	saleTrendWindow    = 10  // sales compared per window, most recent vs the 10 before
	saleTrendMinTotal  = 5   // below this many sales the trend rule stays silent
	saleTrendUpRatio   = 1.2 // recent above this multiple of prior fires an upward trend
	saleTrendDownRatio = 0.8 // recent below this multiple of prior fires an anomaly
)

// InsightService derives persistable insights from a snapshot and stores
// them through the repository. It backs both the on-demand generate endpoint
// and the background scheduler.
type InsightService struct {
	contextSvc *ContextService
	repo       repository.BusinessRepository
	now        func() time.Time
}

func NewInsightService(contextSvc *ContextService, repo repository.BusinessRepository) *InsightService {
	return &InsightService{
		contextSvc: contextSvc,
		repo:       repo,
		now:        time.Now,
	}
}

// GenerateAndSave builds insights from a fresh snapshot and appends them.
// Returns the stored insights, which may be empty when no rule fires.
func (s *InsightService) GenerateAndSave(ctx context.Context, userID string) ([]model.Insight, error) {
	snap := s.contextSvc.Snapshot(ctx, userID)

	insights := s.Generate(userID, snap)
	if len(insights) == 0 {
		return insights, nil
	}
	if err := s.repo.AppendInsights(ctx, insights); err != nil {
		return nil, fmt.Errorf("append insights: %w", err)
	}
	return insights, nil
}

// Generate runs every insight rule over the snapshot. Each rule is
// independent; a snapshot can yield zero insights.
func (s *InsightService) Generate(userID string, snap *model.BusinessSnapshot) []model.Insight {
	now := s.now()
	var insights []model.Insight

	if in, ok := s.lowStockInsight(userID, snap, now); ok {
		insights = append(insights, in)
	}
	if in, ok := s.saleTrendInsight(userID, snap, now); ok {
		insights = append(insights, in)
	}
	if in, ok := s.highValueInsight(userID, snap, now); ok {
		insights = append(insights, in)
	}
	if in, ok := s.seasonalInsight(userID, now); ok {
		insights = append(insights, in)
	}
	return insights
}

func (s *InsightService) lowStockInsight(userID string, snap *model.BusinessSnapshot, now time.Time) (model.Insight, bool) {
	var ids []string
	var firstName string
	for _, item := range snap.Inventory {
		if item.IsLowStock() {
			if firstName == "" {
				firstName = item.Name
			}
			ids = append(ids, item.ID)
		}
	}
	if len(ids) == 0 {
		return model.Insight{}, false
	}

	return s.newInsight(userID, model.InsightAnomaly, now,
		"Low Stock Alert",
		fmt.Sprintf("%d items are at or below minimum stock levels. %q needs restocking soon.", len(ids), firstName),
		0.95,
		map[string]interface{}{"low_stock_items": ids},
	), true
}

// saleTrendInsight compares the most recent sales window against the one
// before it. Too few sales overall keeps the rule silent; a sharp rise is a
// trend, a sharp drop an anomaly.
func (s *InsightService) saleTrendInsight(userID string, snap *model.BusinessSnapshot, now time.Time) (model.Insight, bool) {
	if len(snap.Sales) < saleTrendMinTotal {
		return model.Insight{}, false
	}

	recentTotal := windowRevenue(snap.Sales, 0, saleTrendWindow)
	previousTotal := windowRevenue(snap.Sales, saleTrendWindow, 2*saleTrendWindow)
	if previousTotal == 0 {
		return model.Insight{}, false
	}

	data := map[string]interface{}{
		"recent_total":   round2(recentTotal),
		"previous_total": round2(previousTotal),
	}

	switch {
	case recentTotal > previousTotal*saleTrendUpRatio:
		return s.newInsight(userID, model.InsightTrend, now,
			"Sales Growth Detected",
			fmt.Sprintf("Recent sales revenue is up %.0f%% over the previous period.", (recentTotal/previousTotal-1)*100),
			0.85, data,
		), true
	case recentTotal < previousTotal*saleTrendDownRatio:
		return s.newInsight(userID, model.InsightAnomaly, now,
			"Sales Slowdown Detected",
			fmt.Sprintf("Recent sales revenue is down %.0f%% from the previous period.", (1-recentTotal/previousTotal)*100),
			0.8, data,
		), true
	}
	return model.Insight{}, false
}

func (s *InsightService) highValueInsight(userID string, snap *model.BusinessSnapshot, now time.Time) (model.Insight, bool) {
	items := HighValueItems(snap, 3)
	if len(items) == 0 {
		return model.Insight{}, false
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return s.newInsight(userID, model.InsightRecommendation, now,
		"High-Value Inventory Focus",
		fmt.Sprintf("Items like %q carry significant capital. Prioritize their turnover and security.", items[0].Name),
		0.75,
		map[string]interface{}{"high_value_items": ids},
	), true
}

func (s *InsightService) seasonalInsight(userID string, now time.Time) (model.Insight, bool) {
	if !isHolidaySeason(now.Month()) {
		return model.Insight{}, false
	}
	return s.newInsight(userID, model.InsightForecast, now,
		"Seasonal Demand Forecast",
		"Holiday season historically increases demand. Consider raising stock levels for popular items.",
		0.7,
		map[string]interface{}{"season": "holiday", "expected_increase": 0.35},
	), true
}

func (s *InsightService) newInsight(userID, insightType string, now time.Time, title, description string, confidence float64, data map[string]interface{}) model.Insight {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("{}")
	}
	return model.Insight{
		ID:              uid.New(),
		UserID:          userID,
		InsightType:     insightType,
		Title:           title,
		Description:     description,
		ConfidenceScore: confidence,
		Data:            raw,
		IsRead:          false,
		CreatedAt:       now,
	}
}
