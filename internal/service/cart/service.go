package cart

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
)

type productReader interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service applies aggregator operations through whichever cart Store the
// process was configured with.
type Service struct {
	store    cartrepo.Store
	products productReader
	logger   logrus.FieldLogger
}

func New(store cartrepo.Store, products productReader, logger logrus.FieldLogger) *Service {
	return &Service{store: store, products: products, logger: logging.OrDiscard(logger).WithField("service", "cart")}
}

type AddInput struct {
	ProductID string            `json:"productId"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
}

func (s *Service) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	c, err := s.store.Load(ctx, ownerID)
	if err != nil {
		return nil, s.fail("load cart", ownerID, err)
	}
	return c, nil
}

// AddItem snapshots the live product into the cart.
func (s *Service) AddItem(ctx context.Context, ownerID string, in AddInput) (*domain.Cart, error) {
	if in.ProductID == "" {
		return nil, domain.Invalid("productId", "required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, s.fail("read product", ownerID, err)
	}
	c, err := s.store.Mutate(ctx, ownerID, func(c *domain.Cart) error {
		_, err := AddItem(c, *product, in.Quantity, in.Options)
		return err
	})
	if err != nil {
		return nil, s.fail("add to cart", ownerID, err)
	}
	return c, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, ownerID, itemID string, qty int) (*domain.Cart, error) {
	c, err := s.store.Mutate(ctx, ownerID, func(c *domain.Cart) error {
		return UpdateQuantity(c, itemID, qty)
	})
	if err != nil {
		return nil, s.fail("update cart quantity", ownerID, err)
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, ownerID, itemID string) (*domain.Cart, error) {
	c, err := s.store.Mutate(ctx, ownerID, func(c *domain.Cart) error {
		return RemoveItem(c, itemID)
	})
	if err != nil {
		return nil, s.fail("remove cart item", ownerID, err)
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, ownerID string) (*domain.Cart, error) {
	c, err := s.store.Mutate(ctx, ownerID, func(c *domain.Cart) error {
		Clear(c)
		return nil
	})
	if err != nil {
		return nil, s.fail("clear cart", ownerID, err)
	}
	return c, nil
}

// Merge folds the anonymous cart into the signed-in owner's cart and empties
// the anonymous one. Lines are re-priced from the live catalog; quantities
// that would exceed live stock are capped and lines whose product is gone
// or inactive are dropped.
func (s *Service) Merge(ctx context.Context, anonymousID, ownerID string) (*domain.Cart, error) {
	if anonymousID == "" || anonymousID == ownerID {
		return s.Get(ctx, ownerID)
	}
	source, err := s.store.Load(ctx, anonymousID)
	if err != nil {
		return nil, s.fail("load anonymous cart", anonymousID, err)
	}
	if len(source.Items) == 0 {
		return s.Get(ctx, ownerID)
	}
	live := make(map[string]domain.Product, len(source.Items))
	for _, item := range source.Items {
		if _, seen := live[item.Product.ID]; seen {
			continue
		}
		p, err := s.products.GetByID(ctx, item.Product.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, s.fail("read product", ownerID, err)
		}
		live[p.ID] = *p
	}
	merged, err := s.store.Mutate(ctx, ownerID, func(c *domain.Cart) error {
		for _, item := range source.Items {
			product, ok := live[item.Product.ID]
			if !ok {
				continue
			}
			if err := mergeLine(c, product, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("merge cart", ownerID, err)
	}
	if _, err := s.Clear(ctx, anonymousID); err != nil {
		s.logger.WithError(err).WithField("owner_id", anonymousID).Warn("anonymous cart not cleared after merge")
	}
	return merged, nil
}

// RemoveOrdered takes the checked-out lines out of the owner's cart in one
// write, leaving anything added after the snapshot was taken.
func (s *Service) RemoveOrdered(ctx context.Context, ownerID string, lines []domain.CartItem) (*domain.Cart, error) {
	c, err := s.store.Mutate(ctx, ownerID, func(c *domain.Cart) error {
		DeductLines(c, lines)
		return nil
	})
	if err != nil {
		return nil, s.fail("remove ordered lines", ownerID, err)
	}
	return c, nil
}

func mergeLine(c *domain.Cart, product domain.Product, item domain.CartItem) error {
	if !product.IsActive {
		return nil
	}
	qty := min(item.Quantity, product.Stock)
	key := MergeKey(product.ID, item.SelectedOptions)
	for _, existing := range c.Items {
		if MergeKey(existing.Product.ID, existing.SelectedOptions) == key {
			qty = min(qty, product.Stock-existing.Quantity)
		}
	}
	if qty < 1 {
		return nil
	}
	_, err := AddItem(c, product, qty, item.SelectedOptions)
	return err
}

// fail passes domain errors through and hides everything else behind a
// generic store error.
func (s *Service) fail(op, ownerID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrProductInactive):
		return err
	}
	s.logger.WithError(err).WithField("owner_id", ownerID).Error(op)
	return &domain.StoreError{Op: op, Err: err}
}
