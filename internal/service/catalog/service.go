package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

type productRepo interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	ListActive(ctx context.Context, category string) ([]domain.Product, error)
}

type categoryValidator interface {
	Validate(category, subcategory string) error
}

// Service is the catalog store: product CRUD plus the storefront reads.
type Service struct {
	repo       productRepo
	categories categoryValidator
	logger     logrus.FieldLogger
}

func New(repo productRepo, categories categoryValidator, logger logrus.FieldLogger) *Service {
	return &Service{repo: repo, categories: categories, logger: logging.OrDiscard(logger).WithField("service", "catalog")}
}

// Draft is a new product as submitted by the back office.
type Draft struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       decimal.Decimal    `json:"price"`
	Images      []string           `json:"images"`
	Category    string             `json:"category"`
	Subcategory string             `json:"subcategory"`
	Stock       int                `json:"stock"`
	IsActive    *bool              `json:"isActive"`
	Tags        []string           `json:"tags"`
	Weight      *decimal.Decimal   `json:"weight"`
	Dimensions  *domain.Dimensions `json:"dimensions"`
}

// Add validates and stores a draft. Products are active unless the draft says otherwise.
func (s *Service) Add(ctx context.Context, d Draft) (*domain.Product, error) {
	p := domain.Product{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Price:       d.Price,
		Images:      d.Images,
		Category:    strings.TrimSpace(d.Category),
		Subcategory: strings.TrimSpace(d.Subcategory),
		Stock:       d.Stock,
		IsActive:    true,
		Tags:        normalizeTags(d.Tags),
		Weight:      d.Weight,
		Dimensions:  d.Dimensions,
	}
	if d.IsActive != nil {
		p.IsActive = *d.IsActive
	}
	if err := s.validate(p); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, s.fail("add product", err)
	}
	s.logger.WithField("product_id", created.ID).Info("product added")
	return created, nil
}

// Update applies a partial update; nil fields are dropped before persisting.
func (s *Service) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Invalid("name", "required")
		}
		patch.Name = &name
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, domain.Invalid("price", "must not be negative")
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, domain.Invalid("stock", "must not be negative")
	}
	if patch.Images != nil && len(*patch.Images) > domain.MaxProductImages {
		return nil, domain.Invalid("images", "at most 3 images")
	}
	if patch.Tags != nil {
		tags := normalizeTags(*patch.Tags)
		patch.Tags = &tags
	}
	if patch.Category != nil || patch.Subcategory != nil {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, s.fail("update product", err)
		}
		category, subcategory := current.Category, current.Subcategory
		if patch.Category != nil {
			category = *patch.Category
			if patch.Subcategory == nil && category != current.Category {
				empty := ""
				patch.Subcategory = &empty
			}
		}
		if patch.Subcategory != nil {
			subcategory = *patch.Subcategory
		}
		if err := s.categories.Validate(category, subcategory); err != nil {
			return nil, err
		}
	}
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail("update product", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail("delete product", err)
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("get product", err)
	}
	return p, nil
}

// GetAll returns every product, active or not, newest first.
func (s *Service) GetAll(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail("list products", err)
	}
	return newestFirst(products), nil
}

// GetActive returns the products shown on the storefront, newest first.
func (s *Service) GetActive(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListActive(ctx, "")
	if err != nil {
		return nil, s.fail("list active products", err)
	}
	return newestFirst(products), nil
}

// GetByCategory returns active products of one category, newest first.
func (s *Service) GetByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.repo.ListActive(ctx, category)
	if err != nil {
		return nil, s.fail("list products by category", err)
	}
	return newestFirst(products), nil
}

// Search matches term case-insensitively against name, description,
// category and tags of active products. An empty term matches everything.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Product, error) {
	products, err := s.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return products, nil
	}
	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matches(p, needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func matches(p domain.Product, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) ||
		strings.Contains(strings.ToLower(p.Category), needle) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func (s *Service) validate(p domain.Product) error {
	switch {
	case p.Name == "":
		return domain.Invalid("name", "required")
	case p.Category == "":
		return domain.Invalid("category", "required")
	case p.Price.IsNegative():
		return domain.Invalid("price", "must not be negative")
	case p.Stock < 0:
		return domain.Invalid("stock", "must not be negative")
	case len(p.Images) > domain.MaxProductImages:
		return domain.Invalid("images", "at most 3 images")
	}
	return s.categories.Validate(p.Category, p.Subcategory)
}

// fail lets lookup and uniqueness errors through and turns everything else
// into a logged, generic store error.
func (s *Service) fail(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	s.logger.WithError(err).Error(op)
	return &domain.StoreError{Op: op, Err: err}
}

func newestFirst(products []domain.Product) []domain.Product {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
