package principal

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const principalColumns = `id::text, email, password_hash, display_name, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger).WithField("repo", "principal")}
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Principal) (*domain.Principal, error) {
	q := `
INSERT INTO principals (email, password_hash, display_name)
VALUES ($1, $2, $3)
RETURNING ` + principalColumns
	return r.scanPrincipal(r.pool.QueryRow(ctx, q, strings.ToLower(p.Email), p.PasswordHash, p.DisplayName))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	q := `SELECT ` + principalColumns + ` FROM principals WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanPrincipal(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	q := `SELECT ` + principalColumns + ` FROM principals WHERE id::text = $1 LIMIT 1`
	return r.scanPrincipal(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanPrincipal(row pgx.Row) (*domain.Principal, error) {
	var p domain.Principal
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.DisplayName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).Error("scan principal failed")
		return nil, errors.Wrap(err, "scan principal")
	}
	return &p, nil
}
