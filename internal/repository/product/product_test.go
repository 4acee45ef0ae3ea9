package product

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func TestPostgres_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	weight := decimal.RequireFromString("0.450")
	created, err := repo.Create(ctx, domain.Product{
		Name:        "Manuel de Mathématiques",
		Description: "Manuel complet",
		Price:       decimal.NewFromInt(85),
		Images:      []string{"https://img.example/1.jpg"},
		Category:    "livres",
		Stock:       15,
		IsActive:    true,
		Tags:        []string{"maths", "lycee"},
		Weight:      &weight,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || !created.Price.Equal(decimal.NewFromInt(85)) || created.Weight == nil || !created.Weight.Equal(weight) {
		t.Fatalf("unexpected product %+v", created)
	}

	stock := 3
	updated, err := repo.Update(ctx, created.ID, domain.ProductPatch{Stock: &stock})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Stock != 3 || updated.Name != created.Name || len(updated.Tags) != 2 {
		t.Fatalf("partial update touched other fields: %+v", updated)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("updatedAt moved backwards")
	}

	active, err := repo.ListActive(ctx, "livres")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active product, got %d", len(active))
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPostgres_Upsert(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)

	p, err := repo.Upsert(ctx, domain.Product{
		Name:     "Cahier 200 pages",
		Price:    decimal.NewFromInt(12),
		Category: "papeterie",
		Stock:    50,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}

	again, err := repo.Upsert(ctx, domain.Product{
		Name:        "cahier 200 PAGES",
		Description: "couverture rigide",
		Price:       decimal.RequireFromString("13.50"),
		Category:    "papeterie",
		Stock:       40,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if again.ID != p.ID {
		t.Fatalf("expected same ID after update")
	}
	if again.Stock != 40 || !again.Price.Equal(decimal.RequireFromString("13.5")) {
		t.Fatalf("unexpected updated product %+v", again)
	}

	counts, err := repo.CountActiveByCategory(ctx)
	if err != nil {
		t.Fatalf("CountActiveByCategory: %v", err)
	}
	if counts["papeterie"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE products RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
