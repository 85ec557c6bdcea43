package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockpilot-api/internal/model"
)

// MySQLAccountRepository implements AccountRepository using MySQL.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL account repository.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

// GetAccountByAPIKey resolves an active account from its API key.
func (r *MySQLAccountRepository) GetAccountByAPIKey(ctx context.Context, apiKey string) (*model.Account, error) {
	query := `
		SELECT id, user_id, email, status
		FROM accounts
		WHERE api_key = ? AND status = 'active'
		LIMIT 1`

	var acc model.Account
	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(&acc.ID, &acc.UserID, &acc.Email, &acc.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid API key or account inactive")
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	return &acc, nil
}

// Ensure MySQLAccountRepository implements AccountRepository
var _ AccountRepository = (*MySQLAccountRepository)(nil)
