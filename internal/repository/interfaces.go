package repository

import (
	"context"
	"errors"

	"stockpilot-api/internal/model"
)

// ErrNotFound is returned when a lookup or targeted update matches no row.
var ErrNotFound = errors.New("not found")

// BusinessRepository defines data access for one user's business records.
// All reads are scoped by user ID and bounded by a row limit so analysis cost
// stays bounded regardless of account size.
type BusinessRepository interface {
	// ListInventory returns the user's inventory items, newest update first.
	ListInventory(ctx context.Context, userID string, limit int) ([]model.InventoryItem, error)

	// ListSalesWithItems returns sales ordered by recency, each joined with
	// its line items.
	ListSalesWithItems(ctx context.Context, userID string, limit int) ([]model.Sale, error)

	// ListStockMovements returns ledger entries ordered by recency.
	ListStockMovements(ctx context.Context, userID string, limit int) ([]model.StockMovement, error)

	// ListCategories returns the user's categories.
	ListCategories(ctx context.Context, userID string) ([]model.Category, error)

	// CreateSale transactionally records a sale with its line items,
	// decrements stock and appends an "out" movement per line.
	CreateSale(ctx context.Context, sale *model.Sale) error

	// AdjustStock applies a signed stock delta to an item and appends the
	// matching ledger entry. Stock never goes negative.
	AdjustStock(ctx context.Context, userID, itemID string, delta int, reason string) error

	// AppendInsights stores a batch of freshly generated insights.
	// Existing insights are never updated by generation runs.
	AppendInsights(ctx context.Context, insights []model.Insight) error

	// ListInsights returns the user's insights, newest first.
	ListInsights(ctx context.Context, userID string, limit int) ([]model.Insight, error)

	// MarkInsightRead toggles the read flag on one insight.
	MarkInsightRead(ctx context.Context, userID, insightID string) error

	// ListActiveUserIDs returns user IDs with at least one sale, for the
	// background insight scheduler.
	ListActiveUserIDs(ctx context.Context) ([]string, error)

	// GetStats returns statistics about the business store.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// AccountRepository defines API key account lookups.
type AccountRepository interface {
	// GetAccountByAPIKey resolves an active account from its API key.
	GetAccountByAPIKey(ctx context.Context, apiKey string) (*model.Account, error)
}
