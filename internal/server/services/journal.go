package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/journalapp/syncserver/internal/common"
	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/models"
	"github.com/journalapp/syncserver/internal/server/repositories/repomanager"
)

// The default journal has a well-known id and a fixed name. It always
// exists (lazily created on first access), its name cannot be changed and
// it cannot be deleted.
const (
	DefaultJournalID   = "00000000-0000-0000-0000-000000000001"
	DefaultJournalName = "日常"
)

// JournalService implements journal CRUD outside the sync protocol. Every
// mutation draws from the same sequencer as push, so journal edits made here
// show up in the change feed like any other mutation.
type JournalService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

// NewJournalService constructs the journal service.
func NewJournalService(db *sql.DB, repos repomanager.RepositoryManager) *JournalService {
	return &JournalService{db: db, repos: repos}
}

// GetDefault returns the default journal, creating it on first access.
func (s *JournalService) GetDefault(ctx context.Context) (*models.Journal, error) {
	journal, err := s.repos.Journals(s.db).Get(ctx, DefaultJournalID)
	if err != nil {
		return nil, err
	}
	if journal != nil {
		return journal, nil
	}

	// Two concurrent first accesses may both get here; both upsert the same
	// id, so a single record survives either way.
	now := time.Now().UTC()
	journal = &models.Journal{
		SyncMeta: models.SyncMeta{
			ID:        DefaultJournalID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name: DefaultJournalName,
	}
	if err := s.upsertWithRevision(ctx, journal); err != nil {
		return nil, err
	}
	return journal, nil
}

// List returns every journal, tombstones included.
func (s *JournalService) List(ctx context.Context) ([]*models.Journal, error) {
	return s.repos.Journals(s.db).SelectAll(ctx)
}

// Create makes a new journal with a server-generated id.
func (s *JournalService) Create(ctx context.Context, name string, color *string) (*models.Journal, error) {
	now := time.Now().UTC()
	journal := &models.Journal{
		SyncMeta: models.SyncMeta{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:  name,
		Color: color,
	}
	if err := s.upsertWithRevision(ctx, journal); err != nil {
		return nil, err
	}
	return journal, nil
}

// Update changes the name and/or color of an existing journal. Renaming the
// default journal is a validation error, not a conflict.
func (s *JournalService) Update(ctx context.Context, id string, name *string, color *string) (*models.Journal, error) {
	existing, err := s.repos.Journals(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, common.ErrorNotFound
	}

	if id == DefaultJournalID && name != nil && *name != "" {
		return nil, common.ErrDefaultJournalImmutable
	}

	if name != nil {
		existing.Name = *name
	}
	if color != nil {
		existing.Color = color
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.upsertWithRevision(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete soft-deletes a journal: the record stays in the store as a
// tombstone with a bumped revision. Deleting an already-deleted journal is a
// no-op.
func (s *JournalService) Delete(ctx context.Context, id string) error {
	if id == DefaultJournalID {
		return common.ErrDefaultJournalImmutable
	}

	existing, err := s.repos.Journals(s.db).Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return common.ErrorNotFound
	}
	if existing.Deleted() {
		return nil
	}

	now := time.Now().UTC()
	existing.UpdatedAt = now
	existing.DeletedAt = &now

	return s.upsertWithRevision(ctx, existing)
}

func (s *JournalService) upsertWithRevision(ctx context.Context, journal *models.Journal) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		revision, err := s.repos.Revisions(tx).Next(ctx)
		if err != nil {
			return err
		}
		journal.SetRevision(revision)
		return s.repos.Journals(tx).CreateOrUpdate(ctx, journal)
	})
}
