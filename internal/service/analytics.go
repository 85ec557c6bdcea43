package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"stockpilot-api/internal/cache"
	"stockpilot-api/internal/model"
)

// AnalyticsService ties the snapshot aggregator and the analytics engine
// together behind a cache. Reports are cached per user; summaries are cheap
// enough to compute on every call.
type AnalyticsService struct {
	contextSvc *ContextService
	engine     *AnalyticsEngine
	cache      cache.Cache
	cacheTTL   time.Duration
}

func NewAnalyticsService(contextSvc *ContextService, engine *AnalyticsEngine, c cache.Cache, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{
		contextSvc: contextSvc,
		engine:     engine,
		cache:      c,
		cacheTTL:   ttl,
	}
}

// Summary aggregates a fresh snapshot and reduces it to the summary form.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (model.BusinessSummary, error) {
	snap := s.contextSvc.Snapshot(ctx, userID)
	return BuildSummary(snap), nil
}

// Report returns the full analytics report for a user, served from cache
// when a fresh entry exists. Cache failures degrade to a direct computation.
func (s *AnalyticsService) Report(ctx context.Context, userID string) (*model.AnalyticsReport, error) {
	key := reportCacheKey(userID)

	raw, err := s.cache.GetOrSet(ctx, key, s.cacheTTL, func() ([]byte, error) {
		report, genErr := s.generate(ctx, userID)
		if genErr != nil {
			return nil, genErr
		}
		return json.Marshal(report)
	})
	if err != nil {
		log.Printf("[AnalyticsService] Warning: report cache unavailable for user %s: %v", userID, err)
		return s.generate(ctx, userID)
	}

	var report model.AnalyticsReport
	if err := json.Unmarshal(raw, &report); err != nil {
		// A stale or corrupt entry is replaced on the next miss.
		_ = s.cache.Delete(ctx, key)
		return s.generate(ctx, userID)
	}
	return &report, nil
}

// Invalidate drops the cached report for a user, forcing the next Report
// call to recompute. Called after writes that change the underlying data.
func (s *AnalyticsService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, reportCacheKey(userID)); err != nil {
		log.Printf("[AnalyticsService] Warning: failed to invalidate report cache for user %s: %v", userID, err)
	}
}

func (s *AnalyticsService) generate(ctx context.Context, userID string) (*model.AnalyticsReport, error) {
	snap := s.contextSvc.Snapshot(ctx, userID)
	return s.engine.GenerateReport(snap), nil
}

func reportCacheKey(userID string) string {
	return fmt.Sprintf("report:%s", userID)
}
