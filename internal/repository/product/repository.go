package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	// ListActive returns active products, restricted to category when it is non-empty.
	ListActive(ctx context.Context, category string) ([]domain.Product, error)
	CountActiveByCategory(ctx context.Context) (map[string]int, error)
	// Upsert inserts or replaces a product keyed by case-insensitive name and category.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
