package attachments

import (
	"context"

	"github.com/journalapp/syncserver/internal/server/models"
)

// Repository is the attachment-metadata record store. Get returns (nil, nil)
// when no record exists for the id.
type Repository interface {
	Get(ctx context.Context, id string) (*models.AttachmentMeta, error)
	CreateOrUpdate(ctx context.Context, meta *models.AttachmentMeta) error
	SelectSince(ctx context.Context, sinceRevision int64) ([]*models.AttachmentMeta, error)
}
