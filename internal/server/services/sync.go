// Package services implements the application services sitting between the
// HTTP layer and the repositories: the sync coordinator, journal CRUD with
// the default-journal policy, authentication, and attachment content.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/blob"
	"github.com/journalapp/syncserver/internal/server/models"
	"github.com/journalapp/syncserver/internal/server/repositories/repomanager"
)

// SyncService implements the pull and push protocols over the record
// repositories and the revision sequencer.
type SyncService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	blobs blob.Store
}

// NewSyncService constructs the sync coordinator.
func NewSyncService(db *sql.DB, repos repomanager.RepositoryManager, blobs blob.Store) *SyncService {
	return &SyncService{db: db, repos: repos, blobs: blobs}
}

// GetChanges returns every record of every kind whose revision exceeds the
// client's watermark, each kind sorted ascending by revision, plus the
// current high-water mark. The high-water mark is read after the per-kind
// queries, so it is never smaller than any revision in the lists.
func (s *SyncService) GetChanges(ctx context.Context, since int64) (*models.SyncSnapshot, error) {
	entries, err := s.repos.Entries(s.db).SelectSince(ctx, since)
	if err != nil {
		return nil, err
	}
	attachments, err := s.repos.Attachments(s.db).SelectSince(ctx, since)
	if err != nil {
		return nil, err
	}
	journals, err := s.repos.Journals(s.db).SelectSince(ctx, since)
	if err != nil {
		return nil, err
	}

	sortByRevision(entries)
	sortByRevision(attachments)
	sortByRevision(journals)

	latest, err := s.repos.Revisions(s.db).Latest(ctx)
	if err != nil {
		return nil, err
	}

	return &models.SyncSnapshot{
		LatestRevision: latest,
		Entries:        entries,
		Attachments:    attachments,
		Journals:       journals,
	}, nil
}

// PushChanges applies a batch of client mutations: entries, then attachment
// metadata, then journals, each record independently. A record conflicts
// when it claims a base revision behind the stored one; otherwise it is
// stamped with a fresh revision and upserted. There is no batch rollback:
// records committed before a store failure stay committed.
//
// A record claiming no base revision always wins, even over an existing
// record — last-writer-wins, inherited from the protocol.
func (s *SyncService) PushChanges(ctx context.Context, batch *models.PushBatch) (*models.PushResult, error) {
	result := &models.PushResult{
		Accepted:           []string{},
		Conflicts:          []string{},
		MissingAttachments: []string{},
	}

	acceptedEntries, err := pushRecords(ctx, s, batch.Entries,
		func(db dbx.DBTX) recordStore[*models.Entry] { return s.repos.Entries(db) }, result)
	if err != nil {
		return nil, err
	}

	missing := make(map[string]struct{})
	for _, entry := range acceptedEntries {
		for _, attachmentID := range entry.AttachmentIDs {
			ok, err := s.blobs.Exists(ctx, attachmentID)
			if err != nil {
				return nil, fmt.Errorf("attachment existence check: %w", err)
			}
			if !ok {
				missing[attachmentID] = struct{}{}
			}
		}
	}

	if _, err := pushRecords(ctx, s, batch.AttachmentsMeta,
		func(db dbx.DBTX) recordStore[*models.AttachmentMeta] { return s.repos.Attachments(db) }, result); err != nil {
		return nil, err
	}
	if _, err := pushRecords(ctx, s, batch.Journals,
		func(db dbx.DBTX) recordStore[*models.Journal] { return s.repos.Journals(db) }, result); err != nil {
		return nil, err
	}

	for id := range missing {
		result.MissingAttachments = append(result.MissingAttachments, id)
	}
	sort.Strings(result.MissingAttachments)

	return result, nil
}

// recordStore is the subset of a record repository the push path needs.
// Every kind's repository satisfies it.
type recordStore[T any] interface {
	Get(ctx context.Context, id string) (T, error)
	CreateOrUpdate(ctx context.Context, rec T) error
}

// pushRecords runs the shared conflict/accept/revision-assignment path for
// one record kind. The sequencer draw and the upsert happen inside a single
// per-record transaction; the conflict check deliberately stays outside it,
// matching the protocol's optimistic-concurrency semantics.
func pushRecords[P any, T interface {
	*P
	models.Synced
}](ctx context.Context, s *SyncService, recs []T, store func(dbx.DBTX) recordStore[T], result *models.PushResult) ([]T, error) {
	var accepted []T

	for _, rec := range recs {
		existing, err := store(s.db).Get(ctx, rec.RecordID())
		if err != nil {
			return nil, err
		}

		if existing != nil && rec.BaseRevision() != nil && *rec.BaseRevision() < existing.StoredRevision() {
			result.Conflicts = append(result.Conflicts, rec.RecordID())
			continue
		}

		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			revision, err := s.repos.Revisions(tx).Next(ctx)
			if err != nil {
				return err
			}
			rec.SetRevision(revision)
			return store(tx).CreateOrUpdate(ctx, rec)
		})
		if err != nil {
			return nil, fmt.Errorf("push %s: %w", rec.RecordID(), err)
		}

		result.Accepted = append(result.Accepted, rec.RecordID())
		accepted = append(accepted, rec)
	}

	return accepted, nil
}

func sortByRevision[T models.Synced](recs []T) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].StoredRevision() < recs[j].StoredRevision()
	})
}
