package journals

import (
	"context"

	"github.com/journalapp/syncserver/internal/server/models"
)

// Repository is the journal record store. Get returns (nil, nil) when no
// record exists for the id. SelectAll serves the administrative listing
// outside the sync protocol and includes tombstones.
type Repository interface {
	Get(ctx context.Context, id string) (*models.Journal, error)
	CreateOrUpdate(ctx context.Context, journal *models.Journal) error
	SelectSince(ctx context.Context, sinceRevision int64) ([]*models.Journal, error)
	SelectAll(ctx context.Context) ([]*models.Journal, error)
}
