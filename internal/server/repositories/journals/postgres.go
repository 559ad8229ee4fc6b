// Package journals provides the PostgreSQL-backed repository for journal
// container records.
package journals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/models"
)

// PostgresRepository implements journal storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the journal with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Journal, error) {
	query := `SELECT id, name, color, created_at, updated_at, deleted_at, revision
		FROM journals WHERE id=$1`

	item, err := scanJournal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// CreateOrUpdate upserts a journal by id with full-record replace semantics.
func (r *PostgresRepository) CreateOrUpdate(ctx context.Context, journal *models.Journal) error {
	query := `
		INSERT INTO journals (id, name, color, created_at, updated_at, deleted_at, revision)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			color = EXCLUDED.color,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at,
			revision = EXCLUDED.revision;
	`
	res, err := r.db.ExecContext(ctx, query,
		journal.ID, journal.Name, journal.Color,
		journal.CreatedAt, journal.UpdatedAt, journal.DeletedAt, journal.StoredRevision())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// SelectSince returns all journals with revision > sinceRevision.
func (r *PostgresRepository) SelectSince(ctx context.Context, sinceRevision int64) ([]*models.Journal, error) {
	query := `SELECT id, name, color, created_at, updated_at, deleted_at, revision
		FROM journals WHERE revision>$1`

	return r.selectMany(ctx, query, sinceRevision)
}

// SelectAll returns every journal, tombstones included.
func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.Journal, error) {
	query := `SELECT id, name, color, created_at, updated_at, deleted_at, revision
		FROM journals`

	return r.selectMany(ctx, query)
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Journal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select journals: %w", err)
	}
	defer rows.Close()

	var result []*models.Journal
	for rows.Next() {
		item, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJournal(row rowScanner) (*models.Journal, error) {
	var (
		item      models.Journal
		color     sql.NullString
		deletedAt sql.NullTime
		revision  int64
	)
	if err := row.Scan(
		&item.ID, &item.Name, &color,
		&item.CreatedAt, &item.UpdatedAt, &deletedAt, &revision,
	); err != nil {
		return nil, err
	}
	if color.Valid {
		item.Color = &color.String
	}
	if deletedAt.Valid {
		item.DeletedAt = &deletedAt.Time
	}
	item.SetRevision(revision)
	return &item, nil
}
