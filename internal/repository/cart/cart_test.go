package cart

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func addLine(qty int) func(*domain.Cart) error {
	return func(c *domain.Cart) error {
		if len(c.Items) == 0 {
			c.Items = append(c.Items, domain.CartItem{
				ID:       "line-1",
				Product:  domain.Product{ID: "p1", Name: "Manuel", Price: decimal.NewFromInt(85), Stock: 100, IsActive: true},
				Quantity: qty,
			})
			return nil
		}
		c.Items[0].Quantity += qty
		return nil
	}
}

func TestStores_LazyCreateAndMutate(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	stores := map[string]Store{
		"remote": NewPostgres(pool, "MAD", nil),
		"device": NewDevice(pool, "MAD", nil),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			owner := "owner-" + name
			empty, err := store.Load(ctx, owner)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(empty.Items) != 0 || !empty.TotalPrice.IsZero() || empty.Currency != "MAD" {
				t.Fatalf("unexpected fresh cart %+v", empty)
			}

			if _, err := store.Mutate(ctx, owner, addLine(2)); err != nil {
				t.Fatalf("Mutate: %v", err)
			}
			got, err := store.Load(ctx, owner)
			if err != nil {
				t.Fatalf("Load after mutate: %v", err)
			}
			if got.TotalItems != 2 || !got.TotalPrice.Equal(decimal.NewFromInt(170)) {
				t.Fatalf("unexpected totals %d/%s", got.TotalItems, got.TotalPrice)
			}

			boom := errors.New("boom")
			if _, err := store.Mutate(ctx, owner, func(c *domain.Cart) error {
				c.Items = nil
				return boom
			}); !errors.Is(err, boom) {
				t.Fatalf("expected fn error, got %v", err)
			}
			again, err := store.Load(ctx, owner)
			if err != nil {
				t.Fatalf("Load after failed mutate: %v", err)
			}
			if again.TotalItems != 2 {
				t.Fatalf("failed mutation was persisted: %+v", again)
			}
		})
	}
}

func TestPostgres_ConcurrentMutationsSerialise(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	store := NewPostgres(pool, "MAD", nil)
	if _, err := store.Mutate(ctx, "shared", addLine(1)); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Mutate(ctx, "shared", addLine(1)); err != nil {
				t.Errorf("Mutate: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Load(ctx, "shared")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TotalItems != 11 {
		t.Fatalf("expected 11 items after concurrent adds, got %d", got.TotalItems)
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
	if _, err := pool.Exec(ctx, `TRUNCATE carts, device_storage`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
