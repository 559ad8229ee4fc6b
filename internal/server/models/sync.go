package models

// SyncSnapshot is the pull result: every record whose revision exceeds the
// client's watermark, per kind, each list sorted ascending by revision, plus
// the current global high-water mark. The three lists are not merged into a
// single stream; a client wanting one timeline merges them by revision.
type SyncSnapshot struct {
	LatestRevision int64
	Entries        []*Entry
	Attachments    []*AttachmentMeta
	Journals       []*Journal
}

// PushBatch is the set of locally modified records a client submits.
type PushBatch struct {
	Entries         []*Entry
	AttachmentsMeta []*AttachmentMeta
	Journals        []*Journal
}

// PushResult reports the per-record outcome of a push. An id appears in at
// most one of Accepted/Conflicts. MissingAttachments is advisory: attachment
// ids referenced by accepted entries whose content has not been uploaded.
type PushResult struct {
	Accepted           []string
	Conflicts          []string
	MissingAttachments []string
}
