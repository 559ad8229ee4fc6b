package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/journalapp/syncserver/internal/server/blob"
	"github.com/journalapp/syncserver/internal/server/models"
)

func testTime() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func newEntry(id string, baseRevision *int64, attachmentIDs ...string) *models.Entry {
	return &models.Entry{
		SyncMeta: models.SyncMeta{
			ID:        id,
			CreatedAt: testTime(),
			UpdatedAt: testTime(),
			Revision:  baseRevision,
		},
		PayloadEncrypted: "cipher-" + id,
		PayloadVersion:   1,
		AttachmentIDs:    attachmentIDs,
		JournalID:        "j1",
	}
}

func newAttachmentMeta(id string, baseRevision *int64) *models.AttachmentMeta {
	return &models.AttachmentMeta{
		SyncMeta: models.SyncMeta{
			ID:        id,
			CreatedAt: testTime(),
			UpdatedAt: testTime(),
			Revision:  baseRevision,
		},
		SHA256:    "deadbeef",
		SizeBytes: 42,
		MimeType:  "image/png",
	}
}

func newJournal(id string, baseRevision *int64) *models.Journal {
	return &models.Journal{
		SyncMeta: models.SyncMeta{
			ID:        id,
			CreatedAt: testTime(),
			UpdatedAt: testTime(),
			Revision:  baseRevision,
		},
		Name: "journal-" + id,
	}
}

// drawN advances the sequencer so the next draw returns n+1.
func drawN(t *testing.T, repos *fakeRepoManager, n int64) {
	t.Helper()
	for i := int64(0); i < n; i++ {
		if _, err := repos.revisions.Next(context.Background()); err != nil {
			t.Fatalf("sequencer draw error: %v", err)
		}
	}
}

func TestPushChanges_AssignsAscendingRevisionsAcrossKinds(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repos := newFakeRepoManager()
	blobs := blob.NewMemoryStore()
	svc := NewSyncService(db, repos, blobs)

	batch := &models.PushBatch{
		Entries:         []*models.Entry{newEntry("e1", nil), newEntry("e2", nil)},
		AttachmentsMeta: []*models.AttachmentMeta{newAttachmentMeta("a1", nil)},
		Journals:        []*models.Journal{newJournal("j1", nil)},
	}

	expectTxs(mock, 4)

	result, err := svc.PushChanges(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAccepted := []string{"e1", "e2", "a1", "j1"}
	if !reflect.DeepEqual(result.Accepted, wantAccepted) {
		t.Fatalf("accepted = %v, want %v", result.Accepted, wantAccepted)
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none", result.Conflicts)
	}

	// One global sequence across all three kinds, in submission order.
	if got := repos.entries.records["e1"].StoredRevision(); got != 1 {
		t.Errorf("e1 revision = %d, want 1", got)
	}
	if got := repos.entries.records["e2"].StoredRevision(); got != 2 {
		t.Errorf("e2 revision = %d, want 2", got)
	}
	if got := repos.attachments.records["a1"].StoredRevision(); got != 3 {
		t.Errorf("a1 revision = %d, want 3", got)
	}
	if got := repos.journals.records["j1"].StoredRevision(); got != 4 {
		t.Errorf("j1 revision = %d, want 4", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet tx expectations: %v", err)
	}
}

func TestPushChanges_StaleBaseRevisionConflicts(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repos := newFakeRepoManager()
	svc := NewSyncService(db, repos, blob.NewMemoryStore())

	// J1 is stored at revision 5; the client edited on top of revision 3.
	stored := newJournal("j1", int64Ptr(5))
	repos.journals.records["j1"] = stored
	drawN(t, repos, 5)

	batch := &models.PushBatch{Journals: []*models.Journal{newJournal("j1", int64Ptr(3))}}

	result, err := svc.PushChanges(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(result.Conflicts, []string{"j1"}) {
		t.Fatalf("conflicts = %v, want [j1]", result.Conflicts)
	}
	if len(result.Accepted) != 0 {
		t.Fatalf("accepted = %v, want none", result.Accepted)
	}
	if got := repos.journals.records["j1"].StoredRevision(); got != 5 {
		t.Fatalf("stored revision changed to %d, want 5", got)
	}
	if repos.journals.upserts != 0 {
		t.Fatalf("conflicting record was upserted %d times", repos.journals.upserts)
	}

	// No transaction is opened for a conflicting record.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db activity: %v", err)
	}
}

func TestPushChanges_RepeatedStaleSubmissionStillConflicts(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repos := newFakeRepoManager()
	svc := NewSyncService(db, repos, blob.NewMemoryStore())

	repos.journals.records["j1"] = newJournal("j1", int64Ptr(5))
	drawN(t, repos, 5)

	batch := &models.PushBatch{Journals: []*models.Journal{newJournal("j1", int64Ptr(3))}}

	for i := 0; i < 2; i++ {
		result, err := svc.PushChanges(context.Background(), batch)
		if err != nil {
			t.Fatalf("push %d: unexpected error: %v", i, err)
		}
		if !reflect.DeepEqual(result.Conflicts, []string{"j1"}) {
			t.Fatalf("push %d: conflicts = %v, want [j1]", i, result.Conflicts)
		}
	}
}

func TestPushChanges_EqualBaseRevisionAccepted(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repos := newFakeRepoManager()
	svc := NewSyncService(db, repos, blob.NewMemoryStore())

	repos.entries.records["e1"] = newEntry("e1", int64Ptr(5))
	drawN(t, repos, 5)

	expectTxs(mock, 1)

	batch := &models.PushBatch{Entries: []*models.Entry{newEntry("e1", int64Ptr(5))}}

	result, err := svc.PushChanges(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Accepted, []string{"e1"}) {
		t.Fatalf("accepted = %v, want [e1]", result.Accepted)
	}
	if got := repos.entries.records["e1"].StoredRevision(); got != 6 {
		t.Fatalf("revision = %d, want 6", got)
	}
}

func TestPushChanges_NoBaseRevisionOverwrites(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repos := newFakeRepoManager()
	svc := NewSyncService(db, repos, blob.NewMemoryStore())

	// Last-writer-wins: a record submitted without a base revision replaces
	// the stored one no matter how far ahead it is.
	stored := newEntry("e1", int64Ptr(7))
	stored.PayloadEncrypted = "old"
	repos.entries.records["e1"] = stored
	drawN(t, repos, 7)

	expectTxs(mock, 1)

	incoming := newEntry("e1", nil)
	incoming.PayloadEncrypted = "new"

	result, err := svc.PushChanges(context.Background(), &models.PushBatch{Entries: []*models.Entry{incoming}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Accepted, []string{"e1"}) {
		t.Fatalf("accepted = %v, want [e1]", result.Accepted)
	}

	got := repos.entries.records["e1"]
	if got.PayloadEncrypted != "new" {
		t.Fatalf("payload = %q, stored record was not overwritten", got.PayloadEncrypted)
	}
	if got.StoredRevision() != 8 {
		t.Fatalf("revision = %d, want 8", got.StoredRevision())
	}
}

func TestPushChanges_ReportsMissingAttachmentsSortedDeduped(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repos := newFakeRepoManager()
	blobs := blob.NewMemoryStore()
	svc := NewSyncService(db, repos, blobs)

	if err := blobs.Put(context.Background(), "b2", []byte("content")); err != nil {
		t.Fatalf("put error: %v", err)
	}

	batch := &models.PushBatch{
		Entries: []*models.Entry{
			newEntry("e1", nil, "a1", "b2", "a1"),
			newEntry("e2", nil, "c3"),
		},
	}

	expectTxs(mock, 2)

	result, err := svc.PushChanges(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Accepted, []string{"e1", "e2"}) {
		t.Fatalf("accepted = %v, want [e1 e2]", result.Accepted)
	}

	// Missing ids are advisory only: the entries above were still accepted.
	want := []string{"a1", "c3"}
	if !reflect.DeepEqual(result.MissingAttachments, want) {
		t.Fatalf("missingAttachments = %v, want %v", result.MissingAttachments, want)
	}
}

func TestPushChanges_ConflictingEntryAttachmentsNotChecked(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repos := newFakeRepoManager()
	svc := NewSyncService(db, repos, blob.NewMemoryStore())

	repos.entries.records["e1"] = newEntry("e1", int64Ptr(4))
	drawN(t, repos, 4)

	batch := &models.PushBatch{Entries: []*models.Entry{newEntry("e1", int64Ptr(2), "never-uploaded")}}

	result, err := svc.PushChanges(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.MissingAttachments) != 0 {
		t.Fatalf("missingAttachments = %v, want none for a conflicting entry", result.MissingAttachments)
	}
}

func TestPushChanges_EmptyBatchReturnsEmptyLists(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repos := newFakeRepoManager()
	svc := NewSyncService(db, repos, blob.NewMemoryStore())

	result, err := svc.PushChanges(context.Background(), &models.PushBatch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Accepted == nil || result.Conflicts == nil || result.MissingAttachments == nil {
		t.Fatalf("result lists must be non-nil: %+v", result)
	}
	if len(result.Accepted)+len(result.Conflicts)+len(result.MissingAttachments) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestGetChanges_FiltersSortsAndReportsLatest(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repos := newFakeRepoManager()
	svc := NewSyncService(db, repos, blob.NewMemoryStore())

	repos.entries.records["e1"] = newEntry("e1", int64Ptr(1))
	repos.entries.records["e2"] = newEntry("e2", int64Ptr(6))
	repos.entries.records["e3"] = newEntry("e3", int64Ptr(4))
	repos.attachments.records["a1"] = newAttachmentMeta("a1", int64Ptr(3))
	repos.journals.records["j1"] = newJournal("j1", int64Ptr(5))
	drawN(t, repos, 6)

	snapshot, err := svc.GetChanges(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.LatestRevision != 6 {
		t.Fatalf("latestRevision = %d, want 6", snapshot.LatestRevision)
	}

	var entryIDs []string
	for _, e := range snapshot.Entries {
		entryIDs = append(entryIDs, e.ID)
	}
	// e1 (revision 1) is at or below the watermark; the rest come back
	// ascending by revision.
	if !reflect.DeepEqual(entryIDs, []string{"e3", "e2"}) {
		t.Fatalf("entries = %v, want [e3 e2]", entryIDs)
	}
	if len(snapshot.Attachments) != 1 || snapshot.Attachments[0].ID != "a1" {
		t.Fatalf("attachments = %+v, want [a1]", snapshot.Attachments)
	}
	if len(snapshot.Journals) != 1 || snapshot.Journals[0].ID != "j1" {
		t.Fatalf("journals = %+v, want [j1]", snapshot.Journals)
	}
}

func TestGetChanges_IncludesTombstones(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repos := newFakeRepoManager()
	svc := NewSyncService(db, repos, blob.NewMemoryStore())

	deleted := testTime().Add(time.Hour)
	tombstone := newEntry("e1", int64Ptr(2))
	tombstone.DeletedAt = &deleted
	repos.entries.records["e1"] = tombstone
	drawN(t, repos, 2)

	snapshot, err := svc.GetChanges(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Entries) != 1 || !snapshot.Entries[0].Deleted() {
		t.Fatalf("expected the tombstone in the change feed, got %+v", snapshot.Entries)
	}
}

func TestPushThenPull_RoundTrip(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repos := newFakeRepoManager()
	blobs := blob.NewMemoryStore()
	svc := NewSyncService(db, repos, blobs)

	expectTxs(mock, 1)

	// E1 references A1, which was never uploaded: the push is accepted and
	// A1 is reported as missing.
	result, err := svc.PushChanges(context.Background(), &models.PushBatch{
		Entries: []*models.Entry{newEntry("e1", nil, "a1")},
	})
	if err != nil {
		t.Fatalf("push error: %v", err)
	}
	if !reflect.DeepEqual(result.Accepted, []string{"e1"}) {
		t.Fatalf("accepted = %v, want [e1]", result.Accepted)
	}
	if !reflect.DeepEqual(result.MissingAttachments, []string{"a1"}) {
		t.Fatalf("missingAttachments = %v, want [a1]", result.MissingAttachments)
	}

	snapshot, err := svc.GetChanges(context.Background(), 0)
	if err != nil {
		t.Fatalf("pull error: %v", err)
	}
	if len(snapshot.Entries) != 1 || snapshot.Entries[0].ID != "e1" {
		t.Fatalf("expected pushed entry in the feed, got %+v", snapshot.Entries)
	}
	if got := snapshot.Entries[0].StoredRevision(); got != 1 {
		t.Fatalf("pulled revision = %d, want 1", got)
	}
	if snapshot.LatestRevision != 1 {
		t.Fatalf("latestRevision = %d, want 1", snapshot.LatestRevision)
	}
}
