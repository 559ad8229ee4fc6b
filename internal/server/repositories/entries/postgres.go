// Package entries provides the PostgreSQL-backed repository for journal
// entry records and their sync queries.
package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/models"
)

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the entry with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT id, payload_encrypted, payload_version, attachment_ids, journal_id,
			created_at, updated_at, deleted_at, revision
		FROM entries WHERE id=$1`

	item, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// CreateOrUpdate upserts an entry by id with full-record replace semantics.
func (r *PostgresRepository) CreateOrUpdate(ctx context.Context, entry *models.Entry) error {
	attachmentIDs, err := json.Marshal(entry.AttachmentIDs)
	if err != nil {
		return fmt.Errorf("attachment ids encode error: %w", err)
	}

	query := `
		INSERT INTO entries (id, payload_encrypted, payload_version, attachment_ids, journal_id,
			created_at, updated_at, deleted_at, revision)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			payload_encrypted = EXCLUDED.payload_encrypted,
			payload_version = EXCLUDED.payload_version,
			attachment_ids = EXCLUDED.attachment_ids,
			journal_id = EXCLUDED.journal_id,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at,
			revision = EXCLUDED.revision;
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.PayloadEncrypted, entry.PayloadVersion, attachmentIDs, entry.JournalID,
		entry.CreatedAt, entry.UpdatedAt, entry.DeletedAt, entry.StoredRevision())
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

// SelectSince returns all entries with revision > sinceRevision, including
// tombstones, in no particular order.
func (r *PostgresRepository) SelectSince(ctx context.Context, sinceRevision int64) ([]*models.Entry, error) {
	query := `SELECT id, payload_encrypted, payload_version, attachment_ids, journal_id,
			created_at, updated_at, deleted_at, revision
		FROM entries WHERE revision>$1`

	rows, err := r.db.QueryContext(ctx, query, sinceRevision)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		item, err := scanEntry(rows)
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

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		item          models.Entry
		attachmentIDs []byte
		deletedAt     sql.NullTime
		revision      int64
	)
	if err := row.Scan(
		&item.ID, &item.PayloadEncrypted, &item.PayloadVersion, &attachmentIDs, &item.JournalID,
		&item.CreatedAt, &item.UpdatedAt, &deletedAt, &revision,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attachmentIDs, &item.AttachmentIDs); err != nil {
		return nil, fmt.Errorf("attachment ids decode error: %w", err)
	}
	if deletedAt.Valid {
		item.DeletedAt = &deletedAt.Time
	}
	item.SetRevision(revision)
	return &item, nil
}
