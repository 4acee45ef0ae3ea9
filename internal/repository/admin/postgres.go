package admin

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const adminColumns = `id, email, display_name, role, permissions, created_at, last_login`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger).WithField("repo", "admin")}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.AdminUser, error) {
	return r.one(ctx, "get admin", `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

func (r *postgresRepo) Create(ctx context.Context, a domain.AdminUser) (*domain.AdminUser, error) {
	perms, err := json.Marshal(a.Permissions)
	if err != nil {
		return nil, errors.Wrap(err, "encode permissions")
	}
	q := `
INSERT INTO admins (id, email, display_name, role, permissions)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + adminColumns
	return r.one(ctx, "insert admin", q, a.ID, a.Email, a.DisplayName, domain.RoleAdmin, perms)
}

func (r *postgresRepo) TouchLastLogin(ctx context.Context, id string) (*domain.AdminUser, error) {
	q := `UPDATE admins SET last_login = now() WHERE id = $1 RETURNING ` + adminColumns
	return r.one(ctx, "touch admin login", q, id)
}

func (r *postgresRepo) one(ctx context.Context, op, q string, args ...interface{}) (*domain.AdminUser, error) {
	var (
		a     domain.AdminUser
		perms []byte
	)
	err := r.pool.QueryRow(ctx, q, args...).Scan(&a.ID, &a.Email, &a.DisplayName, &a.Role, &perms, &a.CreatedAt, &a.LastLogin)
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
	if err := json.Unmarshal(perms, &a.Permissions); err != nil {
		return nil, errors.Wrap(err, "decode permissions")
	}
	return &a, nil
}
