package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"stockpilot-api/internal/model"
	"stockpilot-api/pkg/uid"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteBusinessRepository implements BusinessRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteBusinessRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteBusinessRepository creates a new SQLite business repository.
// dbPath is the path to the SQLite database file (e.g., "./data/stockpilot.db")
func NewSQLiteBusinessRepository(dbPath string) (*SQLiteBusinessRepository, error) {
	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createBusinessTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteBusinessRepository] Initialized with database: %s", dbPath)
	return &SQLiteBusinessRepository{db: db}, nil
}

// createBusinessTables creates the business schema.
func createBusinessTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT
	);
	CREATE TABLE IF NOT EXISTS inventory_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sku TEXT,
		category_id TEXT REFERENCES categories(id),
		current_stock INTEGER NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
		min_stock_level INTEGER NOT NULL DEFAULT 0 CHECK (min_stock_level >= 0),
		unit_price REAL NOT NULL DEFAULT 0,
		cost_price REAL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		customer_name TEXT,
		customer_email TEXT,
		total_amount REAL NOT NULL,
		payment_method TEXT NOT NULL DEFAULT 'cash',
		status TEXT NOT NULL DEFAULT 'completed',
		notes TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sale_items (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id),
		inventory_item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price REAL NOT NULL,
		total_price REAL NOT NULL
	);
	CREATE TABLE IF NOT EXISTS stock_movements (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		item_id TEXT,
		movement_type TEXT NOT NULL CHECK (movement_type IN ('in', 'out')),
		quantity INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ai_insights (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		insight_type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		confidence_score REAL NOT NULL DEFAULT 0,
		data TEXT,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_inventory_user ON inventory_items(user_id);
	CREATE INDEX IF NOT EXISTS idx_sales_user_created ON sales(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id);
	CREATE INDEX IF NOT EXISTS idx_movements_user_created ON stock_movements(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_insights_user_created ON ai_insights(user_id, created_at DESC);
	`
	_, err := db.Exec(query)
	return err
}

// ListInventory returns the user's inventory items, newest update first.
func (r *SQLiteBusinessRepository) ListInventory(ctx context.Context, userID string, limit int) ([]model.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, user_id, name, sku, category_id, current_stock, min_stock_level, unit_price, cost_price, updated_at
		FROM inventory_items
		WHERE user_id = ?
		ORDER BY updated_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.SKU, &it.CategoryID,
			&it.CurrentStock, &it.MinStockLevel, &it.UnitPrice, &it.CostPrice, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListSalesWithItems returns sales ordered by recency with their line items.
func (r *SQLiteBusinessRepository) ListSalesWithItems(ctx context.Context, userID string, limit int) ([]model.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, user_id, customer_name, customer_email, total_amount, payment_method, status, notes, created_at
		FROM sales
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []model.Sale
	index := make(map[string]int)
	for rows.Next() {
		var s model.Sale
		if err := rows.Scan(&s.ID, &s.UserID, &s.CustomerName, &s.CustomerEmail,
			&s.TotalAmount, &s.PaymentMethod, &s.Status, &s.Notes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		index[s.ID] = len(sales)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	// Join line items for the selected sales in one pass.
	placeholders := make([]string, len(sales))
	args := make([]interface{}, len(sales))
	for i, s := range sales {
		placeholders[i] = "?"
		args[i] = s.ID
	}
	itemQuery := fmt.Sprintf(`
		SELECT id, sale_id, inventory_item_id, quantity, unit_price, total_price
		FROM sale_items
		WHERE sale_id IN (%s)`, strings.Join(placeholders, ","))

	itemRows, err := r.db.QueryContext(ctx, itemQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it model.SaleItem
		if err := itemRows.Scan(&it.ID, &it.SaleID, &it.ItemID, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		if i, ok := index[it.SaleID]; ok {
			sales[i].Items = append(sales[i].Items, it)
		}
	}
	return sales, itemRows.Err()
}

// ListStockMovements returns ledger entries ordered by recency.
func (r *SQLiteBusinessRepository) ListStockMovements(ctx context.Context, userID string, limit int) ([]model.StockMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, user_id, item_id, movement_type, quantity, reason, created_at
		FROM stock_movements
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []model.StockMovement
	for rows.Next() {
		var m model.StockMovement
		if err := rows.Scan(&m.ID, &m.UserID, &m.ItemID, &m.MovementType, &m.Quantity, &m.Reason, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ListCategories returns the user's categories.
func (r *SQLiteBusinessRepository) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, description FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateSale transactionally records a sale, its line items, the stock
// decrements and one "out" ledger entry per line. The sale total invariant
// is enforced before any write.
func (r *SQLiteBusinessRepository) CreateSale(ctx context.Context, sale *model.Sale) error {
	if err := sale.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

		// Decrement stock; the CHECK constraint rejects oversells, but a
		// guarded update gives a clearer error.
		res, err := tx.ExecContext(ctx, `
			UPDATE inventory_items
			SET current_stock = current_stock - ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND current_stock >= ?`,
			it.Quantity, sale.CreatedAt, it.ItemID, sale.UserID, it.Quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for item %s: %w", it.ItemID, err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return fmt.Errorf("insufficient stock for item %s", it.ItemID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, inventory_item_id, quantity, unit_price, total_price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, it.SaleID, it.ItemID, it.Quantity, it.UnitPrice, it.TotalPrice)
		if err != nil {
			return fmt.Errorf("failed to insert sale item: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_movements (id, user_id, item_id, movement_type, quantity, reason, created_at)
			VALUES (?, ?, ?, 'out', ?, ?, ?)`,
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
func (r *SQLiteBusinessRepository) AdjustStock(ctx context.Context, userID, itemID string, delta int, reason string) error {
	if delta == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET current_stock = current_stock + ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND current_stock + ? >= 0`,
		delta, now, itemID, userID, delta)
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
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
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
func (r *SQLiteBusinessRepository) AppendInsights(ctx context.Context, insights []model.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ai_insights (id, user_id, insight_type, title, description, confidence_score, data, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, in := range insights {
		var data interface{}
		if len(in.Data) > 0 {
			data = string(in.Data)
		}
		_, err := stmt.ExecContext(ctx, in.ID, in.UserID, in.InsightType, in.Title,
			in.Description, in.ConfidenceScore, data, in.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert insight %s: %w", in.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListInsights returns the user's insights, newest first.
func (r *SQLiteBusinessRepository) ListInsights(ctx context.Context, userID string, limit int) ([]model.Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, user_id, insight_type, title, description, confidence_score, data, is_read, created_at
		FROM ai_insights
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
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
func (r *SQLiteBusinessRepository) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx,
		`UPDATE ai_insights SET is_read = 1 WHERE id = ? AND user_id = ?`, insightID, userID)
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
func (r *SQLiteBusinessRepository) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM sales`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetStats returns statistics about the business store.
func (r *SQLiteBusinessRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	counts := map[string]string{
		"inventory_items": "SELECT COUNT(*) FROM inventory_items",
		"sales":           "SELECT COUNT(*) FROM sales",
		"stock_movements": "SELECT COUNT(*) FROM stock_movements",
		"insights":        "SELECT COUNT(*) FROM ai_insights",
	}
	for name, q := range counts {
		var count int64
		if err := r.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
			return nil, err
		}
		stats[name] = count
	}

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteBusinessRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteBusinessRepository implements BusinessRepository
var _ BusinessRepository = (*SQLiteBusinessRepository)(nil)
