package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryValidator interface {
	Validate(category, subcategory string) error
}

// CSVImporter reads catalogue spreadsheets and inserts/updates products.
// Columns: name, description, price, category, subcategory, stock, images,
// tags, isActive. Images and tags are ';'-separated.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryValidator
	logger     logrus.FieldLogger
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryValidator, logger logrus.FieldLogger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		logger:     logging.OrDiscard(logger),
	}
}

// Run parses CSV rows and upserts one product per named row. Rows without
// a name carry extra images for the product above them.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, errors.Wrap(err, "read headers")
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("missing name column")
	}

	var (
		current  *domain.Product
		imported int
		line     = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, errors.Wrap(err, "read row")
		}
		line++

		if pick(record, index, "name") == "" {
			if current != nil {
				current.Images = append(current.Images, splitList(pick(record, index, "images"))...)
			}
			continue
		}

		if current != nil {
			if err := i.save(ctx, current); err != nil {
				return imported, err
			}
			imported++
		}
		current, err = parseRow(record, index)
		if err != nil {
			return imported, errors.Wrapf(err, "line %d", line)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}
	i.logger.WithField("count", imported).Info("products imported")
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, p *domain.Product) error {
	if len(p.Images) > domain.MaxProductImages {
		p.Images = p.Images[:domain.MaxProductImages]
	}
	if i.categories != nil {
		if err := i.categories.Validate(p.Category, p.Subcategory); err != nil {
			return errors.Wrapf(err, "product %q", p.Name)
		}
	}
	if _, err := i.products.Upsert(ctx, *p); err != nil {
		return errors.Wrapf(err, "upsert product %q", p.Name)
	}
	return nil
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	p := &domain.Product{
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Category:    pick(record, index, "category"),
		Subcategory: pick(record, index, "subcategory"),
		Images:      splitList(pick(record, index, "images")),
		Tags:        splitList(pick(record, index, "tags")),
		IsActive:    true,
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil || price.IsNegative() {
		return nil, domain.Invalid("price", "must be a non-negative number")
	}
	p.Price = price

	if raw := pick(record, index, "stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return nil, domain.Invalid("stock", "must be a non-negative integer")
		}
		p.Stock = stock
	}
	if raw := pick(record, index, "isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, domain.Invalid("isActive", "must be true or false")
		}
		p.IsActive = active
	}
	if p.Category == "" {
		return nil, domain.Invalid("category", "required")
	}
	return p, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
