package entries

import (
	"context"

	"github.com/journalapp/syncserver/internal/server/models"
)

// Repository is the entry record store. Get returns (nil, nil) when no
// record exists for the id; absence is normal flow during push, not an error.
type Repository interface {
	Get(ctx context.Context, id string) (*models.Entry, error)
	CreateOrUpdate(ctx context.Context, entry *models.Entry) error
	SelectSince(ctx context.Context, sinceRevision int64) ([]*models.Entry, error)
}
