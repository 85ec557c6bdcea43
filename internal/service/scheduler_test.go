package service

import (
	"errors"
	"testing"
	"time"

	"stockpilot-api/internal/model"
)

func testScheduler(repo *fakeRepo) *InsightScheduler {
	insights := testInsightService(repo, offSeason())
	return NewInsightScheduler(insights, repo, SchedulerConfig{
		Interval:   time.Hour,
		RunTimeout: time.Second,
	})
}

func TestSchedulerRunNowAppendsInsights(t *testing.T) {
	repo := &fakeRepo{
		userIDs:   []string{"user-1"},
		inventory: []model.InventoryItem{testItem("Filter Papers", 2, 10, 4.50)},
	}
	sched := testScheduler(repo)

	generated, err := sched.RunNow()
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if generated == 0 {
		t.Fatal("RunNow() generated = 0, want > 0")
	}
	if repo.appendedBatches != 1 {
		t.Errorf("appendedBatches = %d, want 1", repo.appendedBatches)
	}
	if len(repo.insights) != generated {
		t.Errorf("stored %d insights, RunNow reported %d", len(repo.insights), generated)
	}
}

func TestSchedulerRunNowNoUsers(t *testing.T) {
	repo := &fakeRepo{}
	sched := testScheduler(repo)

	generated, err := sched.RunNow()
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if generated != 0 {
		t.Errorf("RunNow() generated = %d, want 0", generated)
	}
	if repo.appendedBatches != 0 {
		t.Errorf("appendedBatches = %d, want 0", repo.appendedBatches)
	}
}

func TestSchedulerRunNowSkipsFailingUser(t *testing.T) {
	repo := &fakeRepo{
		userIDs:   []string{"user-1", "user-2"},
		inventory: []model.InventoryItem{testItem("Filter Papers", 2, 10, 4.50)},
		appendErr: errors.New("store unavailable"),
	}
	sched := testScheduler(repo)

	generated, err := sched.RunNow()
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if generated != 0 {
		t.Errorf("RunNow() generated = %d, want 0 when every save fails", generated)
	}
}

func TestSchedulerDefaults(t *testing.T) {
	repo := &fakeRepo{}
	sched := NewInsightScheduler(testInsightService(repo, offSeason()), repo, SchedulerConfig{})

	if sched.config.Interval != 6*time.Hour {
		t.Errorf("Interval = %v, want 6h", sched.config.Interval)
	}
	if sched.config.RunTimeout != 5*time.Minute {
		t.Errorf("RunTimeout = %v, want 5m", sched.config.RunTimeout)
	}
	if sched.config.InitialDelay != time.Minute {
		t.Errorf("InitialDelay = %v, want 1m", sched.config.InitialDelay)
	}
}

func TestSchedulerStopCancelsInitialPass(t *testing.T) {
	repo := &fakeRepo{
		userIDs:   []string{"user-1"},
		inventory: []model.InventoryItem{testItem("Filter Papers", 2, 10, 4.50)},
	}
	sched := NewInsightScheduler(testInsightService(repo, offSeason()), repo, SchedulerConfig{
		Interval:     time.Hour,
		RunTimeout:   time.Second,
		InitialDelay: 20 * time.Millisecond,
	})

	sched.Start()
	sched.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := repo.appendCount(); got != 0 {
		t.Errorf("appendCount = %d after Stop before the initial delay, want 0", got)
	}
}

func TestSchedulerInitialPassRuns(t *testing.T) {
	repo := &fakeRepo{
		userIDs:   []string{"user-1"},
		inventory: []model.InventoryItem{testItem("Filter Papers", 2, 10, 4.50)},
	}
	sched := NewInsightScheduler(testInsightService(repo, offSeason()), repo, SchedulerConfig{
		Interval:     time.Hour,
		RunTimeout:   time.Second,
		InitialDelay: 5 * time.Millisecond,
	})

	sched.Start()
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for repo.appendCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := repo.appendCount(); got != 1 {
		t.Errorf("appendCount = %d after the initial delay, want 1", got)
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	sched := testScheduler(&fakeRepo{})
	sched.Stop()
	sched.Stop()
}
