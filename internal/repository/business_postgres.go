package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"stockpilot-api/internal/model"
	"stockpilot-api/pkg/uid"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresBusinessRepository implements BusinessRepository using PostgreSQL.
type PostgresBusinessRepository struct {
	db *sqlx.DB
}

// NewPostgresBusinessRepository creates a new PostgreSQL business repository.
// The schema is expected to be provisioned externally (same tables as the
// SQLite bootstrap).
func NewPostgresBusinessRepository(dsn string) (*PostgresBusinessRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Printf("[PostgresBusinessRepository] Connected")
	return &PostgresBusinessRepository{db: db}, nil
}

// ListInventory returns the user's inventory items, newest update first.
func (r *PostgresBusinessRepository) ListInventory(ctx context.Context, userID string, limit int) ([]model.InventoryItem, error) {
	items := []model.InventoryItem{}
	query := `
		SELECT id, user_id, name, sku, category_id, current_stock, min_stock_level, unit_price, cost_price, updated_at
		FROM inventory_items
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &items, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return items, nil
}

// ListSalesWithItems returns sales ordered by recency with their line items.
func (r *PostgresBusinessRepository) ListSalesWithItems(ctx context.Context, userID string, limit int) ([]model.Sale, error) {
	sales := []model.Sale{}
	query := `
		SELECT id, user_id, customer_name, customer_email, total_amount, payment_method, status, notes, created_at
		FROM sales
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &sales, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]string, len(sales))
	index := make(map[string]int, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		index[s.ID] = i
	}

	itemQuery, args, err := sqlx.In(`
		SELECT id, sale_id, inventory_item_id, quantity, unit_price, total_price
		FROM sale_items
		WHERE sale_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build sale items query: %w", err)
	}

	items := []model.SaleItem{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(itemQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}
	for _, it := range items {
		if i, ok := index[it.SaleID]; ok {
			sales[i].Items = append(sales[i].Items, it)
		}
	}
	return sales, nil
}

// ListStockMovements returns ledger entries ordered by recency.
func (r *PostgresBusinessRepository) ListStockMovements(ctx context.Context, userID string, limit int) ([]model.StockMovement, error) {
	movements := []model.StockMovement{}
	query := `
		SELECT id, user_id, item_id, movement_type, quantity, reason, created_at
		FROM stock_movements
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &movements, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}

// ListCategories returns the user's categories.
func (r *PostgresBusinessRepository) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	categories := []model.Category{}
	query := `SELECT id, user_id, name, description FROM categories WHERE user_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateSale transactionally records a sale with stock decrements and ledger
// entries, enforcing the sale total invariant.
func (r *PostgresBusinessRepository) CreateSale(ctx context.Context, sale *model.Sale) error {
	if err := sale.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if sale.ID == "" {
		sale.ID = uid.New()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Status == "" {
		sale.Status = model.SaleStatusCompleted
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, user_id, customer_name, customer_email, total_amount, payment_method, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sale.ID, sale.UserID, sale.CustomerName, sale.CustomerEmail,
		sale.TotalAmount, sale.PaymentMethod, sale.Status, sale.Notes, sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	for i := range sale.Items {
		it := &sale.Items[i]
		if it.ID == "" {
			it.ID = uid.New()
		}
		it.SaleID = sale.ID

		res, err := tx.ExecContext(ctx, `
			UPDATE inventory_items
			SET current_stock = current_stock - $1, updated_at = $2
			WHERE id = $3 AND user_id = $4 AND current_stock >= $1`,
			it.Quantity, sale.CreatedAt, it.ItemID, sale.UserID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for item %s: %w", it.ItemID, err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return fmt.Errorf("insufficient stock for item %s", it.ItemID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, inventory_item_id, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, it.SaleID, it.ItemID, it.Quantity, it.UnitPrice, it.TotalPrice)
		if err != nil {
			return fmt.Errorf("failed to insert sale item: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_movements (id, user_id, item_id, movement_type, quantity, reason, created_at)
			VALUES ($1, $2, $3, 'out', $4, $5, $6)`,
			uid.New(), sale.UserID, it.ItemID, it.Quantity, "sale "+sale.ID, sale.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert stock movement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AdjustStock applies a signed delta to an item's stock and appends the
// matching ledger entry.
func (r *PostgresBusinessRepository) AdjustStock(ctx context.Context, userID, itemID string, delta int, reason string) error {
	if delta == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET current_stock = current_stock + $1, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND current_stock + $1 >= 0`,
		delta, now, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("item %s not found or adjustment would drive stock negative", itemID)
	}

	movementType := model.MovementIn
	quantity := delta
	if delta < 0 {
		movementType = model.MovementOut
		quantity = -delta
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_movements (id, user_id, item_id, movement_type, quantity, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uid.New(), userID, itemID, movementType, quantity, reason, now)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AppendInsights stores a batch of freshly generated insights.
func (r *PostgresBusinessRepository) AppendInsights(ctx context.Context, insights []model.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO ai_insights (id, user_id, insight_type, title, description, confidence_score, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, in := range insights {
		var data interface{}
		if len(in.Data) > 0 {
			data = string(in.Data)
		}
		if _, err := stmt.ExecContext(ctx, in.ID, in.UserID, in.InsightType, in.Title,
			in.Description, in.ConfidenceScore, data, in.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert insight %s: %w", in.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListInsights returns the user's insights, newest first.
func (r *PostgresBusinessRepository) ListInsights(ctx context.Context, userID string, limit int) ([]model.Insight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, insight_type, title, description, confidence_score, data, is_read, created_at
		FROM ai_insights
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	var insights []model.Insight
	for rows.Next() {
		var in model.Insight
		var data sql.NullString
		if err := rows.Scan(&in.ID, &in.UserID, &in.InsightType, &in.Title, &in.Description,
			&in.ConfidenceScore, &data, &in.IsRead, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		if data.Valid {
			in.Data = []byte(data.String)
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// MarkInsightRead toggles the read flag on one insight.
func (r *PostgresBusinessRepository) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ai_insights SET is_read = true WHERE id = $1 AND user_id = $2`, insightID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark insight read: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveUserIDs returns user IDs with at least one sale.
func (r *PostgresBusinessRepository) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT user_id FROM sales`); err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return ids, nil
}

// GetStats returns statistics about the business store.
func (r *PostgresBusinessRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	counts := map[string]string{
		"inventory_items": "SELECT COUNT(*) FROM inventory_items",
		"sales":           "SELECT COUNT(*) FROM sales",
		"stock_movements": "SELECT COUNT(*) FROM stock_movements",
		"insights":        "SELECT COUNT(*) FROM ai_insights",
	}
	for name, q := range counts {
		var count int64
		if err := r.db.GetContext(ctx, &count, q); err != nil {
			return nil, err
		}
		stats[name] = count
	}
	return stats, nil
}

// Close closes the database connection.
func (r *PostgresBusinessRepository) Close() error {
	return r.db.Close()
}

// Ensure PostgresBusinessRepository implements BusinessRepository
var _ BusinessRepository = (*PostgresBusinessRepository)(nil)
