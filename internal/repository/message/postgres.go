package message

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const messageColumns = `id::text, name, email, phone, subject, message, is_read, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger).WithField("repo", "message")}
}

func (r *postgresRepo) Create(ctx context.Context, m domain.Message) (*domain.Message, error) {
	q := `
INSERT INTO messages (name, email, phone, subject, message)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + messageColumns
	out, err := scanMessage(r.pool.QueryRow(ctx, q, m.Name, m.Email, m.Phone, m.Subject, m.Message))
	if err != nil {
		r.logger.WithError(err).WithField("email", m.Email).Error("insert message failed")
		return nil, errors.Wrap(err, "insert message")
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	defer rows.Close()

	result := make([]domain.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list message rows")
	}
	return result, nil
}

func (r *postgresRepo) MarkRead(ctx context.Context, id string) (*domain.Message, error) {
	q := `
UPDATE messages
SET is_read = TRUE, updated_at = now()
WHERE id::text = $1
RETURNING ` + messageColumns
	out, err := scanMessage(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "mark message read")
	}
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id::text = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete message")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CountUnread(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM messages WHERE NOT is_read`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count unread messages")
	}
	return n, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
