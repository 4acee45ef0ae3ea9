package category

import (
	"context"

	"storefront/internal/taxonomy"
)

type counter interface {
	CountActiveByCategory(ctx context.Context) (map[string]int, error)
}

// Listing is a taxonomy category with its number of active products.
type Listing struct {
	taxonomy.Category
	ProductCount int `json:"productCount"`
}

type Service struct {
	tax    *taxonomy.Taxonomy
	counts counter
}

func New(tax *taxonomy.Taxonomy, counts counter) *Service {
	return &Service{tax: tax, counts: counts}
}

// List returns the taxonomy in its configured order. Counts are best effort:
// without a counter every category reports zero.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	var counts map[string]int
	if s.counts != nil {
		var err error
		counts, err = s.counts.CountActiveByCategory(ctx)
		if err != nil {
			return nil, err
		}
	}
	cats := s.tax.Categories()
	out := make([]Listing, 0, len(cats))
	for _, c := range cats {
		out = append(out, Listing{Category: c, ProductCount: counts[c.ID]})
	}
	return out, nil
}

// Validate delegates to the taxonomy.
func (s *Service) Validate(category, subcategory string) error {
	return s.tax.Validate(category, subcategory)
}
