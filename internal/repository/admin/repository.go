package admin

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores back-office accounts keyed by principal id.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.AdminUser, error)
	Create(ctx context.Context, a domain.AdminUser) (*domain.AdminUser, error)
	// TouchLastLogin stamps last_login with the database clock.
	TouchLastLogin(ctx context.Context, id string) (*domain.AdminUser, error)
}
