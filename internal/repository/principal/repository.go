package principal

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists identity-provider accounts.
type Repository interface {
	Create(ctx context.Context, p domain.Principal) (*domain.Principal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
}
