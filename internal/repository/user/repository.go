package user

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores storefront customer accounts keyed by principal id.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string) (*domain.User, error)
}
