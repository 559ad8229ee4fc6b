// Package refreshtokens provides the PostgreSQL-backed repository for
// rotating refresh tokens.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/journalapp/syncserver/internal/common"
	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/models"
)

// PostgresRepository implements refresh token storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a refresh token row.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (token, user_id, device_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query,
		token.Token, token.UserID, token.DeviceID, token.CreatedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the refresh token row for the given token value.
func (r *PostgresRepository) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `SELECT token, user_id, device_id, created_at, expires_at FROM refresh_tokens
		WHERE token = $1`

	result := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&result.Token, &result.UserID, &result.DeviceID, &result.CreatedAt, &result.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Delete removes the refresh token row if present.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
