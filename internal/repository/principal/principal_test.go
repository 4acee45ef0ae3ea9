package principal

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"storefront/internal/domain"
	"storefront/internal/migrate"
	adminrepo "storefront/internal/repository/admin"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
)

func TestPostgres_Accounts(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE principals, tokens, admins, users CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	repo := NewPostgres(pool, nil)
	p, err := repo.Create(ctx, domain.Principal{Email: "Amina@Example.ma", PasswordHash: "hash", DisplayName: "Amina"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Email != "amina@example.ma" {
		t.Fatalf("expected lowercased email, got %q", p.Email)
	}
	if _, err := repo.Create(ctx, domain.Principal{Email: "AMINA@example.ma", PasswordHash: "x"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if got, err := repo.GetByEmail(ctx, "amina@EXAMPLE.ma"); err != nil || got.ID != p.ID {
		t.Fatalf("GetByEmail: %+v %v", got, err)
	}
	if _, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	tokens := tokenrepo.NewPostgres(pool, nil)
	if err := tokens.Create(ctx, tokenrepo.Token{Token: "tok", PrincipalID: p.ID, ExpiresAt: time.Now().Add(48 * time.Hour)}); err != nil {
		t.Fatalf("token Create: %v", err)
	}
	if got, err := tokens.Get(ctx, "tok"); err != nil || got.PrincipalID != p.ID {
		t.Fatalf("token Get: %+v %v", got, err)
	}
	if err := tokens.Delete(ctx, "tok"); err != nil {
		t.Fatalf("token Delete: %v", err)
	}
	if err := tokens.Delete(ctx, "tok"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users := userrepo.NewPostgres(pool, nil)
	u, err := users.Create(ctx, domain.User{ID: p.ID, Email: p.Email, DisplayName: "Amina"})
	if err != nil || u.Role != domain.RoleClient {
		t.Fatalf("user Create: %+v %v", u, err)
	}
	again, err := users.Create(ctx, domain.User{ID: p.ID, Email: p.Email, DisplayName: "Other"})
	if err != nil || again.DisplayName != "Amina" {
		t.Fatalf("expected existing user row, got %+v %v", again, err)
	}
	touched, err := users.TouchLastLogin(ctx, p.ID)
	if err != nil || touched.LastLogin.Before(u.LastLogin) {
		t.Fatalf("TouchLastLogin: %+v %v", touched, err)
	}

	admins := adminrepo.NewPostgres(pool, nil)
	a, err := admins.Create(ctx, domain.AdminUser{ID: "admin-1", Email: "admin@example.ma", DisplayName: "Admin", Permissions: domain.FullPermissions})
	if err != nil {
		t.Fatalf("admin Create: %v", err)
	}
	if a.Role != domain.RoleAdmin || a.Permissions != domain.FullPermissions {
		t.Fatalf("unexpected admin %+v", a)
	}
	if _, err := admins.Create(ctx, domain.AdminUser{ID: "admin-1", Email: "admin@example.ma"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := admins.TouchLastLogin(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
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
