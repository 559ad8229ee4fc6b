// Package revisions provides the dataset-wide revision sequencer. All record
// kinds draw from the single counter row, which makes revisions a logical
// clock over the whole dataset.
package revisions

import (
	"context"
	"fmt"

	"github.com/journalapp/syncserver/internal/dbx"
)

// PostgresRepository implements the sequencer over a single counter row.
// The UPDATE ... RETURNING form is an atomic fetch-and-increment: row-level
// locking serializes concurrent draws, so no two callers ever observe the
// same value.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Next draws the next revision.
func (r *PostgresRepository) Next(ctx context.Context) (int64, error) {
	query := `UPDATE sync_sequence SET value = value + 1
		WHERE id = 1
		RETURNING value`

	var revision int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&revision); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return revision, nil
}

// Latest returns the highest revision issued so far.
func (r *PostgresRepository) Latest(ctx context.Context) (int64, error) {
	query := `SELECT value FROM sync_sequence WHERE id = 1`

	var revision int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&revision); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return revision, nil
}
