package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create stores o and returns the row as persisted. A taken order
	// number yields domain.ErrAlreadyExists.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListByCustomerEmail(ctx context.Context, email string) ([]domain.Order, error)
	// AppendStatus sets the current status and appends one history entry
	// stamped with the database clock.
	AppendStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (*domain.Order, error)
}
