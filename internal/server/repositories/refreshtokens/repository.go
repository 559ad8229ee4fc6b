package refreshtokens

import (
	"context"

	"github.com/journalapp/syncserver/internal/server/models"
)

// Repository is the refresh token store. Get returns common.ErrorNotFound
// for unknown tokens; Delete of an unknown token is not an error, which
// keeps rotation idempotent.
type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}
