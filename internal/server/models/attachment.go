package models

// AttachmentMeta describes an attachment's content without the bytes
// themselves: content hash, size and MIME type. The content is stored and
// fetched through the blob store, keyed by the same id.
type AttachmentMeta struct {
	SyncMeta
	SHA256    string
	SizeBytes int64
	MimeType  string
}
