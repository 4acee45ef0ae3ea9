package order

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const orderColumns = `id::text, order_number, user_id, customer_info, shipping_address, payment_method, items,
       total_amount::text, currency, current_status, status_history, notes, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger).WithField("repo", "order")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	customer, err := json.Marshal(o.CustomerInfo)
	if err != nil {
		return nil, errors.Wrap(err, "encode customer info")
	}
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, errors.Wrap(err, "encode shipping address")
	}
	payment, err := json.Marshal(o.PaymentMethod)
	if err != nil {
		return nil, errors.Wrap(err, "encode payment method")
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, errors.Wrap(err, "encode items")
	}
	history, err := json.Marshal(o.StatusHistory)
	if err != nil {
		return nil, errors.Wrap(err, "encode status history")
	}

	// History entries are stamped with the same clock as created_at.
	q := `
INSERT INTO orders (order_number, user_id, customer_info, shipping_address, payment_method, items,
                    total_amount, currency, current_status, status_history, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7::text::numeric, $8, $9,
        (SELECT COALESCE(jsonb_agg(e || jsonb_build_object('date', now())), '[]'::jsonb)
         FROM jsonb_array_elements($10::jsonb) AS e),
        $11)
RETURNING ` + orderColumns
	out, err := scanOrder(r.pool.QueryRow(ctx, q,
		o.OrderNumber,
		o.UserID,
		customer,
		shipping,
		payment,
		items,
		o.TotalAmount.String(),
		o.Currency,
		string(o.CurrentStatus),
		history,
		o.Notes,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).WithField("order_number", o.OrderNumber).Error("insert order failed")
		return nil, errors.Wrap(err, "insert order")
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	out, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) ListByCustomerEmail(ctx context.Context, email string) ([]domain.Order, error) {
	return r.list(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE lower(customer_info->>'email') = lower($1)
ORDER BY created_at DESC`, email)
}

func (r *postgresRepo) AppendStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (*domain.Order, error) {
	q := `
UPDATE orders
SET current_status = $2,
    status_history = status_history || jsonb_build_array(jsonb_build_object('status', $2::text, 'date', now(), 'note', $3::text)),
    updated_at = now()
WHERE id::text = $1
RETURNING ` + orderColumns
	out, err := scanOrder(r.pool.QueryRow(ctx, q, id, string(status), note))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.WithError(err).WithField("order_id", id).Error("append order status failed")
		return nil, errors.Wrap(err, "append order status")
	}
	return out, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	result := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list order rows")
	}
	return result, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                                           domain.Order
		customer, shipping, payment, items, history []byte
		total, status                               string
	)
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&customer,
		&shipping,
		&payment,
		&items,
		&total,
		&o.Currency,
		&status,
		&history,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.CurrentStatus = domain.OrderStatus(status)
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, errors.Wrap(err, "decode total")
	}
	for _, part := range []struct {
		raw  []byte
		dest interface{}
		name string
	}{
		{customer, &o.CustomerInfo, "customer info"},
		{shipping, &o.ShippingAddress, "shipping address"},
		{payment, &o.PaymentMethod, "payment method"},
		{items, &o.Items, "items"},
		{history, &o.StatusHistory, "status history"},
	} {
		if err := json.Unmarshal(part.raw, part.dest); err != nil {
			return nil, errors.Wrapf(err, "decode %s", part.name)
		}
	}
	return &o, nil
}
