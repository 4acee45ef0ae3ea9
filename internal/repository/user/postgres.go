package user

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const userColumns = `id, email, display_name, role, created_at, last_login`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger).WithField("repo", "user")}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, "get user", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// Create inserts a client record. Concurrent first sign-ins race on the
// primary key; the loser reads the winner's row.
func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
INSERT INTO users (id, email, display_name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
RETURNING ` + userColumns
	out, err := r.one(ctx, "insert user", q, u.ID, u.Email, u.DisplayName, domain.RoleClient)
	if errors.Is(err, domain.ErrNotFound) {
		return r.GetByID(ctx, u.ID)
	}
	return out, err
}

func (r *postgresRepo) TouchLastLogin(ctx context.Context, id string) (*domain.User, error) {
	q := `UPDATE users SET last_login = now() WHERE id = $1 RETURNING ` + userColumns
	return r.one(ctx, "touch user login", q, id)
}

func (r *postgresRepo) one(ctx context.Context, op, q string, args ...interface{}) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, q, args...).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).Error(op + " failed")
		return nil, errors.Wrap(err, op)
	}
	return &u, nil
}
