package models

// Entry is a journal entry. The payload is encrypted on the client; the
// server only sees an opaque blob and a payload format version.
// AttachmentIDs may reference attachment metadata whose binary content has
// not been uploaded yet; that is a valid transient state.
type Entry struct {
	SyncMeta
	PayloadEncrypted string
	PayloadVersion   int64
	AttachmentIDs    []string
	JournalID        string
}
