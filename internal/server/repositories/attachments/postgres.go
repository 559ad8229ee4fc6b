// Package attachments provides the PostgreSQL-backed repository for
// attachment metadata records.
package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/models"
)

// PostgresRepository implements attachment metadata storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the metadata record with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.AttachmentMeta, error) {
	query := `SELECT id, sha256, size_bytes, mime_type, created_at, updated_at, deleted_at, revision
		FROM attachments_meta WHERE id=$1`

	item, err := scanMeta(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// CreateOrUpdate upserts a metadata record by id with full-record replace semantics.
func (r *PostgresRepository) CreateOrUpdate(ctx context.Context, meta *models.AttachmentMeta) error {
	query := `
		INSERT INTO attachments_meta (id, sha256, size_bytes, mime_type, created_at, updated_at, deleted_at, revision)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			sha256 = EXCLUDED.sha256,
			size_bytes = EXCLUDED.size_bytes,
			mime_type = EXCLUDED.mime_type,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at,
			revision = EXCLUDED.revision;
	`
	res, err := r.db.ExecContext(ctx, query,
		meta.ID, meta.SHA256, meta.SizeBytes, meta.MimeType,
		meta.CreatedAt, meta.UpdatedAt, meta.DeletedAt, meta.StoredRevision())
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

// SelectSince returns all metadata records with revision > sinceRevision.
func (r *PostgresRepository) SelectSince(ctx context.Context, sinceRevision int64) ([]*models.AttachmentMeta, error) {
	query := `SELECT id, sha256, size_bytes, mime_type, created_at, updated_at, deleted_at, revision
		FROM attachments_meta WHERE revision>$1`

	rows, err := r.db.QueryContext(ctx, query, sinceRevision)
	if err != nil {
		return nil, fmt.Errorf("failed to select attachments: %w", err)
	}
	defer rows.Close()

	var result []*models.AttachmentMeta
	for rows.Next() {
		item, err := scanMeta(rows)
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

func scanMeta(row rowScanner) (*models.AttachmentMeta, error) {
	var (
		item      models.AttachmentMeta
		deletedAt sql.NullTime
		revision  int64
	)
	if err := row.Scan(
		&item.ID, &item.SHA256, &item.SizeBytes, &item.MimeType,
		&item.CreatedAt, &item.UpdatedAt, &deletedAt, &revision,
	); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		item.DeletedAt = &deletedAt.Time
	}
	item.SetRevision(revision)
	return &item, nil
}
