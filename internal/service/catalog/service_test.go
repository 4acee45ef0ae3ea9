package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/domain"
	"storefront/internal/taxonomy"
)

type stubRepo struct {
	products   []domain.Product
	created    *domain.Product
	lastPatch  *domain.ProductPatch
	lastActive string
	err        error
}

func (s *stubRepo) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p.ID = "new-id"
	s.created = &p
	return &p, nil
}

func (s *stubRepo) Update(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	s.lastPatch = &patch
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: id}, nil
}

func (s *stubRepo) Delete(_ context.Context, _ string) error {
	return s.err
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) List(_ context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), s.products...), s.err
}

func (s *stubRepo) ListActive(_ context.Context, category string) ([]domain.Product, error) {
	s.lastActive = category
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Product
	for _, p := range s.products {
		if p.IsActive && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func newService(repo *stubRepo) *Service {
	return New(repo, taxonomy.Default(), nil)
}

func seeded() *stubRepo {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &stubRepo{products: []domain.Product{
		{ID: "old", Name: "Manuel de Mathématiques", Category: "livres", IsActive: true, CreatedAt: base},
		{ID: "new", Name: "Set de Géométrie", Description: "règle et compas", Category: "fournitures", IsActive: true, CreatedAt: base.Add(time.Hour)},
		{ID: "tagged", Name: "Cahier", Category: "papeterie", Tags: []string{"Rentrée"}, IsActive: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "hidden", Name: "Ancien manuel", Category: "livres", IsActive: false, CreatedAt: base.Add(3 * time.Hour)},
	}}
}

func TestAddDefaultsToActive(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)

	p, err := svc.Add(context.Background(), Draft{Name: " Cahier ", Price: decimal.NewFromInt(12), Category: "papeterie", Stock: 5, Tags: []string{"a", "A", " "}})
	require.NoError(t, err)
	assert.Equal(t, "new-id", p.ID)
	assert.True(t, repo.created.IsActive)
	assert.Equal(t, "Cahier", repo.created.Name)
	assert.Equal(t, []string{"a"}, repo.created.Tags)
}

func TestAddValidation(t *testing.T) {
	svc := newService(&stubRepo{})
	cases := map[string]Draft{
		"missing name":     {Price: decimal.NewFromInt(1), Category: "livres"},
		"negative price":   {Name: "x", Price: decimal.NewFromInt(-1), Category: "livres"},
		"negative stock":   {Name: "x", Category: "livres", Stock: -1},
		"too many images":  {Name: "x", Category: "livres", Images: []string{"1", "2", "3", "4"}},
		"unknown category": {Name: "x", Category: "jouets"},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), d)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestStoreFailureIsGeneric(t *testing.T) {
	cause := errors.New("connection refused")
	svc := newService(&stubRepo{err: cause})

	_, err := svc.Add(context.Background(), Draft{Name: "x", Category: "livres"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOperationFailed)
	assert.Equal(t, "add product: operation failed", err.Error())
}

func TestNotFoundPassesThrough(t *testing.T) {
	svc := newService(&stubRepo{err: domain.ErrNotFound})
	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrOperationFailed)
}

func TestGetActiveNewestFirst(t *testing.T) {
	svc := newService(seeded())

	got, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"tagged", "new", "old"}, ids)
}

func TestGetAllIncludesInactive(t *testing.T) {
	svc := newService(seeded())

	got, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "hidden", got[0].ID)
}

func TestGetByCategory(t *testing.T) {
	repo := seeded()
	svc := newService(repo)

	got, err := svc.GetByCategory(context.Background(), "livres")
	require.NoError(t, err)
	assert.Equal(t, "livres", repo.lastActive)
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].ID)
}

func TestSearch(t *testing.T) {
	svc := newService(seeded())
	ctx := context.Background()

	byName, err := svc.Search(ctx, "MANUEL")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "old", byName[0].ID)

	byDescription, err := svc.Search(ctx, "compas")
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, "new", byDescription[0].ID)

	byTag, err := svc.Search(ctx, "rentrée")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "tagged", byTag[0].ID)

	byCategory, err := svc.Search(ctx, "papet")
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	all, err := svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateDropsNothingButValidates(t *testing.T) {
	repo := seeded()
	svc := newService(repo)
	stock := 7

	_, err := svc.Update(context.Background(), "old", domain.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	require.NotNil(t, repo.lastPatch)
	assert.Nil(t, repo.lastPatch.Name)
	assert.Equal(t, 7, *repo.lastPatch.Stock)

	negative := -1
	_, err = svc.Update(context.Background(), "old", domain.ProductPatch{Stock: &negative})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateCategoryResetsSubcategory(t *testing.T) {
	repo := seeded()
	svc := newService(repo)
	category := "papeterie"

	_, err := svc.Update(context.Background(), "old", domain.ProductPatch{Category: &category})
	require.NoError(t, err)
	require.NotNil(t, repo.lastPatch.Subcategory)
	assert.Equal(t, "", *repo.lastPatch.Subcategory)

	bad := "cahiers"
	_, err = svc.Update(context.Background(), "old", domain.ProductPatch{Subcategory: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
