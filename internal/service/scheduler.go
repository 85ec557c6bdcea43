package service

import (
	"context"
	"log"
	"sync"
	"time"

	"stockpilot-api/internal/repository"
)

// SchedulerConfig holds configuration for the insight scheduler.
type SchedulerConfig struct {
	// Interval is how often insights are regenerated for every active user.
	// Default: 6 hours
	Interval time.Duration

	// RunTimeout bounds one full pass over all users.
	// Default: 5 minutes
	RunTimeout time.Duration

	// InitialDelay is how long after Start the first pass runs.
	// Default: 1 minute
	InitialDelay time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:     6 * time.Hour,
		RunTimeout:   5 * time.Minute,
		InitialDelay: 1 * time.Minute,
	}
}

// InsightScheduler periodically regenerates insights for every user with
// business data. Per-user failures are logged and skipped so one bad dataset
// never blocks the rest of the pass.
type InsightScheduler struct {
	insights  *InsightService
	repo      repository.BusinessRepository
	config    SchedulerConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewInsightScheduler creates a new insight scheduler.
func NewInsightScheduler(insights *InsightService, repo repository.BusinessRepository, config SchedulerConfig) *InsightScheduler {
	if config.Interval == 0 {
		config.Interval = 6 * time.Hour
	}
	if config.RunTimeout == 0 {
		config.RunTimeout = 5 * time.Minute
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = 1 * time.Minute
	}

	return &InsightScheduler{
		insights: insights,
		repo:     repo,
		config:   config,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the scheduler loop.
func (s *InsightScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[InsightScheduler] Started - Interval: %v", s.config.Interval)

	// Run an initial pass shortly after startup so fresh deployments have
	// insights before the first full interval elapses. Stop cancels a
	// pending initial pass.
	go func() {
		delay := time.NewTimer(s.config.InitialDelay)
		defer delay.Stop()
		select {
		case <-delay.C:
			s.runPass()
		case <-s.stopCh:
		}
	}()

	go s.run()
}

// run is the main scheduler loop.
func (s *InsightScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runPass()
		case <-s.stopCh:
			log.Printf("[InsightScheduler] Stopped")
			return
		}
	}
}

// runPass regenerates insights for every active user.
func (s *InsightScheduler) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()

	generated, err := s.generateAll(ctx)
	if err != nil {
		log.Printf("[InsightScheduler] Error listing users: %v", err)
		return
	}

	if generated > 0 {
		log.Printf("[InsightScheduler] Generated %d insights", generated)
	} else {
		log.Printf("[InsightScheduler] No new insights this pass")
	}
}

func (s *InsightScheduler) generateAll(ctx context.Context) (int, error) {
	userIDs, err := s.repo.ListActiveUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, userID := range userIDs {
		insights, err := s.insights.GenerateAndSave(ctx, userID)
		if err != nil {
			log.Printf("[InsightScheduler] Error generating insights for user %s: %v", userID, err)
			continue
		}
		generated += len(insights)
	}
	return generated, nil
}

// Stop stops the scheduler.
func (s *InsightScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate generation pass and returns the number of
// insights created.
func (s *InsightScheduler) RunNow() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()

	return s.generateAll(ctx)
}
