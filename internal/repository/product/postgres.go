package product

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const productColumns = `id::text, name, description, price::text, images, category, subcategory, stock, is_active,
       tags, weight::text, dimensions, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger).WithField("repo", "product")}
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	dims, err := encodeDimensions(p.Dimensions)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (name, description, price, images, category, subcategory, stock, is_active, tags, weight, dimensions)
VALUES ($1, $2, $3::text::numeric, $4, $5, $6, $7, $8, $9, $10::text::numeric, $11)
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.Name,
		p.Description,
		p.Price.String(),
		nonNil(p.Images),
		p.Category,
		p.Subcategory,
		p.Stock,
		p.IsActive,
		nonNil(p.Tags),
		decimalText(p.Weight),
		dims,
	))
	if err != nil {
		return nil, r.mapErr(err, "create", p.Name)
	}
	r.logger.WithField("product_id", out.ID).Debug("product created")
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(col, cast string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", col, len(args), cast))
	}
	if patch.Name != nil {
		add("name", "", *patch.Name)
	}
	if patch.Description != nil {
		add("description", "", *patch.Description)
	}
	if patch.Price != nil {
		add("price", "::text::numeric", patch.Price.String())
	}
	if patch.Images != nil {
		add("images", "", nonNil(*patch.Images))
	}
	if patch.Category != nil {
		add("category", "", *patch.Category)
	}
	if patch.Subcategory != nil {
		add("subcategory", "", *patch.Subcategory)
	}
	if patch.Stock != nil {
		add("stock", "", *patch.Stock)
	}
	if patch.IsActive != nil {
		add("is_active", "", *patch.IsActive)
	}
	if patch.Tags != nil {
		add("tags", "", nonNil(*patch.Tags))
	}
	if patch.Weight != nil {
		add("weight", "::text::numeric", patch.Weight.String())
	}
	if patch.Dimensions != nil {
		dims, err := encodeDimensions(patch.Dimensions)
		if err != nil {
			return nil, err
		}
		add("dimensions", "", dims)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	q := fmt.Sprintf(`
UPDATE products
SET %s
WHERE id::text = $%d
RETURNING %s`, strings.Join(sets, ", "), len(args), productColumns)

	out, err := scanProduct(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, r.mapErr(err, "update", id)
	}
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id::text = $1`, id)
	if err != nil {
		return r.mapErr(err, "delete", id)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id::text = $1`
	out, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, r.mapErr(err, "get", id)
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products`)
}

func (r *postgresRepo) ListActive(ctx context.Context, category string) ([]domain.Product, error) {
	if category == "" {
		return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE is_active`)
	}
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE is_active AND category = $1`, category)
}

func (r *postgresRepo) CountActiveByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, count(*) FROM products WHERE is_active GROUP BY category`)
	if err != nil {
		return nil, r.mapErr(err, "count", "")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, errors.Wrap(err, "scan category count")
		}
		counts[category] = n
	}
	return counts, errors.Wrap(rows.Err(), "count rows")
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	dims, err := encodeDimensions(p.Dimensions)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (name, description, price, images, category, subcategory, stock, is_active, tags, weight, dimensions)
VALUES ($1, $2, $3::text::numeric, $4, $5, $6, $7, $8, $9, $10::text::numeric, $11)
ON CONFLICT (lower(name), category) DO UPDATE SET
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    images = EXCLUDED.images,
    subcategory = EXCLUDED.subcategory,
    stock = EXCLUDED.stock,
    is_active = EXCLUDED.is_active,
    tags = EXCLUDED.tags,
    weight = EXCLUDED.weight,
    dimensions = EXCLUDED.dimensions,
    updated_at = now()
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.Name,
		p.Description,
		p.Price.String(),
		nonNil(p.Images),
		p.Category,
		p.Subcategory,
		p.Stock,
		p.IsActive,
		nonNil(p.Tags),
		decimalText(p.Weight),
		dims,
	))
	if err != nil {
		return nil, r.mapErr(err, "upsert", p.Name)
	}
	r.logger.WithFields(logrus.Fields{"product_id": out.ID, "name": out.Name}).Debug("product upserted")
	return out, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, r.mapErr(err, "list", "")
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, r.mapErr(err, "list scan", "")
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapErr(err, "list rows", "")
	}
	return result, nil
}

func (r *postgresRepo) mapErr(err error, op, ref string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	r.logger.WithError(err).WithField("ref", ref).Errorf("product %s failed", op)
	return errors.Wrapf(err, "product %s", op)
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p      domain.Product
		price  string
		weight *string
		dims   []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&price,
		&p.Images,
		&p.Category,
		&p.Subcategory,
		&p.Stock,
		&p.IsActive,
		&p.Tags,
		&weight,
		&dims,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, errors.Wrap(err, "decode price")
	}
	if weight != nil {
		w, err := decimal.NewFromString(*weight)
		if err != nil {
			return nil, errors.Wrap(err, "decode weight")
		}
		p.Weight = &w
	}
	if len(dims) > 0 {
		var d domain.Dimensions
		if err := json.Unmarshal(dims, &d); err != nil {
			return nil, errors.Wrap(err, "decode dimensions")
		}
		p.Dimensions = &d
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func encodeDimensions(d *domain.Dimensions) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	return b, errors.Wrap(err, "encode dimensions")
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
