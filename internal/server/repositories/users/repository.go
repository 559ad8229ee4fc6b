package users

import (
	"context"

	"github.com/journalapp/syncserver/internal/server/models"
)

// Repository is the user account store. GetByEmail returns
// common.ErrorNotFound when no account exists; Create returns
// common.ErrorAlreadyExists on a duplicate email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
