// Package models defines the server-side record types flowing through the
// sync protocol. Every synced kind embeds SyncMeta, the common envelope
// carrying identity, provenance timestamps, the tombstone marker and the
// server-assigned revision.
package models

import "time"

// SyncMeta is the sync envelope shared by all record kinds.
//
// Revision is nil until the server accepts the record for the first time.
// Once assigned, revisions are unique across the whole dataset (all kinds
// draw from one counter) and strictly increase with every accepted mutation,
// including soft-deletes. DeletedAt marks a tombstone; tombstones keep
// syncing and are never physically removed.
type SyncMeta struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	Revision  *int64
}

// RecordID returns the stable, client-generated identifier.
func (m *SyncMeta) RecordID() string { return m.ID }

// BaseRevision returns the revision the client last observed, or nil when
// the client claims none (create intent).
func (m *SyncMeta) BaseRevision() *int64 { return m.Revision }

// SetRevision stamps the server-assigned revision.
func (m *SyncMeta) SetRevision(rev int64) { m.Revision = &rev }

// StoredRevision returns the assigned revision, 0 when none is set.
func (m *SyncMeta) StoredRevision() int64 {
	if m.Revision == nil {
		return 0
	}
	return *m.Revision
}

// Deleted reports whether the record is a tombstone.
func (m *SyncMeta) Deleted() bool { return m.DeletedAt != nil }

// Synced is implemented by every record kind that flows through the sync
// coordinator. SyncMeta provides the implementation via embedding.
type Synced interface {
	RecordID() string
	BaseRevision() *int64
	SetRevision(rev int64)
	StoredRevision() int64
}
