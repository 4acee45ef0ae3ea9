package seed

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type productSeed struct {
	Name        string
	Description string
	Price       string
	Category    string
	Subcategory string
	Stock       int
	Tags        []string
}

// Products is the demo catalogue.
var Products = []productSeed{
	{
		Name:        "Manuel de Mathématiques",
		Description: "Manuel scolaire de mathématiques, programme collège",
		Price:       "85",
		Category:    "livres",
		Subcategory: "college",
		Stock:       15,
		Tags:        []string{"maths", "collège"},
	},
	{
		Name:        "Set de Géométrie",
		Description: "Règle, équerre, rapporteur et compas",
		Price:       "35",
		Category:    "fournitures",
		Subcategory: "geometrie",
		Stock:       25,
		Tags:        []string{"géométrie"},
	},
	{
		Name:        "Impression couleur A4",
		Description: "Impression couleur recto, papier 80g",
		Price:       "2",
		Category:    "impression",
		Subcategory: "couleur",
		Stock:       100,
	},
	{
		Name:        "Cahier 200 pages",
		Description: "Cahier grand format, grands carreaux",
		Price:       "12",
		Category:    "papeterie",
		Subcategory: "cahiers",
		Stock:       50,
	},
}

// Apply inserts demo products for manual testing. It is idempotent: products
// are upserted by name and category.
func Apply(ctx context.Context, products ProductWriter, logger logrus.FieldLogger) error {
	logger = logging.OrDiscard(logger)
	for _, s := range Products {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return errors.Wrapf(err, "price of %s", s.Name)
		}
		p, err := products.Upsert(ctx, domain.Product{
			Name:        s.Name,
			Description: s.Description,
			Price:       price,
			Images:      []string{},
			Category:    s.Category,
			Subcategory: s.Subcategory,
			Stock:       s.Stock,
			IsActive:    true,
			Tags:        s.Tags,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", s.Name)
		}
		logger.WithField("product_id", p.ID).Debug("seeded product")
	}
	return nil
}
