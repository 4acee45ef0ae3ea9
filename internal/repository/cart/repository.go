package cart

import (
	"context"

	"storefront/internal/domain"
)

// Store persists carts keyed by owner id. Implementations create the cart
// lazily on first access and never delete it.
type Store interface {
	Load(ctx context.Context, ownerID string) (*domain.Cart, error)
	// Mutate applies fn to the owner's cart and persists the result with
	// recomputed totals. When fn fails nothing is written and its error is
	// returned unchanged.
	Mutate(ctx context.Context, ownerID string, fn func(*domain.Cart) error) (*domain.Cart, error)
}
