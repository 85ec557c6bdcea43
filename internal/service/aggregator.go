package service

import (
	"context"
	"log"
	"sync"

	"stockpilot-api/internal/model"
	"stockpilot-api/internal/repository"
)

// Limits bounds the number of rows fetched per entity so analysis cost stays
// bounded regardless of account size.
type Limits struct {
	Inventory int
	Sales     int
	Movements int
}

// DefaultLimits returns the standard aggregation bounds.
func DefaultLimits() Limits {
	return Limits{
		Inventory: 100,
		Sales:     100,
		Movements: 200,
	}
}

// ContextService assembles one user's business snapshot from the store.
// All four reads run concurrently; a failed read degrades to an empty
// collection so partial data never aborts downstream analysis.
type ContextService struct {
	repo   repository.BusinessRepository
	limits Limits
}

// NewContextService creates a new business context service.
func NewContextService(repo repository.BusinessRepository, limits Limits) *ContextService {
	if limits.Inventory <= 0 {
		limits.Inventory = DefaultLimits().Inventory
	}
	if limits.Sales <= 0 {
		limits.Sales = DefaultLimits().Sales
	}
	if limits.Movements <= 0 {
		limits.Movements = DefaultLimits().Movements
	}
	return &ContextService{
		repo:   repo,
		limits: limits,
	}
}

// Snapshot fetches the user's inventory, sales (with line items), stock
// movements and categories and bundles them. Read-only; never fails.
func (s *ContextService) Snapshot(ctx context.Context, userID string) *model.BusinessSnapshot {
	snap := &model.BusinessSnapshot{}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		items, err := s.repo.ListInventory(ctx, userID, s.limits.Inventory)
		if err != nil {
			log.Printf("[ContextService] Warning: inventory read failed, using empty set: %v", err)
			return
		}
		snap.Inventory = items
	}()

	go func() {
		defer wg.Done()
		sales, err := s.repo.ListSalesWithItems(ctx, userID, s.limits.Sales)
		if err != nil {
			log.Printf("[ContextService] Warning: sales read failed, using empty set: %v", err)
			return
		}
		snap.Sales = sales
	}()

	go func() {
		defer wg.Done()
		movements, err := s.repo.ListStockMovements(ctx, userID, s.limits.Movements)
		if err != nil {
			log.Printf("[ContextService] Warning: movements read failed, using empty set: %v", err)
			return
		}
		snap.StockMovements = movements
	}()

	go func() {
		defer wg.Done()
		categories, err := s.repo.ListCategories(ctx, userID)
		if err != nil {
			log.Printf("[ContextService] Warning: categories read failed, using empty set: %v", err)
			return
		}
		snap.Categories = categories
	}()

	wg.Wait()
	return snap
}
