// Package blob stores attachment content keyed by attachment id. The sync
// coordinator only ever asks Exists; the upload/download paths use Put/Get.
package blob

import "context"

// Store is the attachment content store.
type Store interface {
	// Exists reports whether content has been uploaded for the id.
	Exists(ctx context.Context, id string) (bool, error)

	// Put stores content for the id, replacing any previous content.
	Put(ctx context.Context, id string, content []byte) error

	// Get returns the content for the id, or common.ErrorNotFound.
	Get(ctx context.Context, id string) ([]byte, error)
}

// Presigner hands out short-lived URLs so clients can transfer attachment
// bytes directly against the object storage backend.
type Presigner interface {
	PresignPut(ctx context.Context, id string) (string, error)
	PresignGet(ctx context.Context, id string) (string, error)
}
