package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

// DeviceStorageKey is the single key the device strategy writes under.
const DeviceStorageKey = "biblio-cart"

// deviceRepo is the device-local strategy: a per-device key/value slot
// holding the bare JSON array of lines. Every mutation rewrites the whole
// value and the last writer wins; totals are never stored.
type deviceRepo struct {
	pool     *pgxpool.Pool
	currency string
	logger   logrus.FieldLogger
}

func NewDevice(pool *pgxpool.Pool, currency string, logger logrus.FieldLogger) Store {
	return &deviceRepo{pool: pool, currency: currency, logger: logging.OrDiscard(logger).WithField("repo", "device_cart")}
}

func (r *deviceRepo) Load(ctx context.Context, ownerID string) (*domain.Cart, error) {
	var (
		payload   []byte
		updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
SELECT payload, updated_at
FROM device_storage
WHERE device_id = $1 AND storage_key = $2
`, ownerID, DeviceStorageKey).Scan(&payload, &updatedAt)
	cart := domain.NewCart(ownerID, r.currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return cart, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read device cart")
	}
	if err := json.Unmarshal(payload, &cart.Items); err != nil {
		// A corrupt slot behaves like an empty cart; the next write replaces it.
		r.logger.WithError(err).WithField("owner_id", ownerID).Warn("discarding unreadable device cart")
		cart.Items = []domain.CartItem{}
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cart.CreatedAt = updatedAt
	cart.UpdatedAt = updatedAt
	cart.Recompute()
	return cart, nil
}

func (r *deviceRepo) Mutate(ctx context.Context, ownerID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := r.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	cart.Recompute()

	payload, err := json.Marshal(cart.Items)
	if err != nil {
		return nil, errors.Wrap(err, "encode device cart")
	}
	if err := r.pool.QueryRow(ctx, `
INSERT INTO device_storage (device_id, storage_key, payload, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (device_id, storage_key) DO UPDATE
SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
RETURNING updated_at
`, ownerID, DeviceStorageKey, payload).Scan(&cart.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "write device cart")
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = cart.UpdatedAt
	}
	return cart, nil
}
