package cart

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

// postgresRepo is the remote-document strategy: one row per owner with the
// lines stored as a JSONB array next to their totals.
type postgresRepo struct {
	pool     *pgxpool.Pool
	currency string
	logger   logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, currency string, logger logrus.FieldLogger) Store {
	return &postgresRepo{pool: pool, currency: currency, logger: logging.OrDiscard(logger).WithField("repo", "cart")}
}

func (r *postgresRepo) Load(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if err := ensureCart(ctx, r.pool, ownerID, r.currency); err != nil {
		return nil, err
	}
	return fetchCart(ctx, r.pool, ownerID, false)
}

// Mutate locks the cart row for the whole read-modify-write so concurrent
// writers to the same cart are serialised.
func (r *postgresRepo) Mutate(ctx context.Context, ownerID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin cart tx")
	}
	defer tx.Rollback(ctx)

	if err := ensureCart(ctx, tx, ownerID, r.currency); err != nil {
		return nil, err
	}
	cart, err := fetchCart(ctx, tx, ownerID, true)
	if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}
	cart.Recompute()

	items, err := json.Marshal(cart.Items)
	if err != nil {
		return nil, errors.Wrap(err, "encode cart items")
	}
	if err := tx.QueryRow(ctx, `
UPDATE carts
SET items = $2, total_items = $3, total_price = $4::text::numeric, updated_at = now()
WHERE owner_id = $1
RETURNING updated_at
`, ownerID, items, cart.TotalItems, cart.TotalPrice.String()).Scan(&cart.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "update cart")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit cart tx")
	}
	r.logger.WithFields(logrus.Fields{"owner_id": ownerID, "total_items": cart.TotalItems}).Debug("cart saved")
	return cart, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func ensureCart(ctx context.Context, q querier, ownerID, currency string) error {
	_, err := q.Exec(ctx, `
INSERT INTO carts (owner_id, currency)
VALUES ($1, $2)
ON CONFLICT (owner_id) DO NOTHING
`, ownerID, currency)
	return errors.Wrap(err, "ensure cart")
}

func fetchCart(ctx context.Context, q querier, ownerID string, forUpdate bool) (*domain.Cart, error) {
	query := `
SELECT owner_id, items, currency, created_at, updated_at
FROM carts
WHERE owner_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		cart  domain.Cart
		items []byte
	)
	if err := q.QueryRow(ctx, query, ownerID).Scan(&cart.OwnerID, &items, &cart.Currency, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "fetch cart")
	}
	if err := json.Unmarshal(items, &cart.Items); err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cart.Recompute()
	return &cart, nil
}
