package message

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, m domain.Message) (*domain.Message, error)
	// List returns every message, newest first.
	List(ctx context.Context) ([]domain.Message, error)
	MarkRead(ctx context.Context, id string) (*domain.Message, error)
	Delete(ctx context.Context, id string) error
	CountUnread(ctx context.Context) (int, error)
}
