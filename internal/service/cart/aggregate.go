package cart

import (
	"encoding/json"

	"github.com/google/uuid"
	"storefront/internal/domain"
)

// MergeKey identifies lines that AddItem folds together: same product and
// same selected options, independent of option order.
func MergeKey(productID string, options map[string]string) string {
	if len(options) == 0 {
		return productID + "|{}"
	}
	// encoding/json writes map keys sorted.
	b, _ := json.Marshal(options)
	return productID + "|" + string(b)
}

// AddItem merges qty of product into c or appends a new line, then
// recomputes totals. The merged quantity may not exceed product stock.
func AddItem(c *domain.Cart, product domain.Product, qty int, options map[string]string) (*domain.CartItem, error) {
	if qty < 1 {
		return nil, domain.Invalid("quantity", "must be at least 1")
	}
	if !product.IsActive {
		return nil, domain.ErrProductInactive
	}
	key := MergeKey(product.ID, options)
	for i := range c.Items {
		item := &c.Items[i]
		if MergeKey(item.Product.ID, item.SelectedOptions) != key {
			continue
		}
		merged := item.Quantity + qty
		if merged > product.Stock {
			return nil, &domain.InsufficientStockError{ProductID: product.ID, Requested: merged, Available: product.Stock}
		}
		item.Quantity = merged
		item.Product = product
		c.Recompute()
		return item, nil
	}
	if qty > product.Stock {
		return nil, &domain.InsufficientStockError{ProductID: product.ID, Requested: qty, Available: product.Stock}
	}
	c.Items = append(c.Items, domain.CartItem{
		ID:              uuid.NewString(),
		Product:         product,
		Quantity:        qty,
		SelectedOptions: copyOptions(options),
	})
	c.Recompute()
	return &c.Items[len(c.Items)-1], nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less
// removes the line.
func UpdateQuantity(c *domain.Cart, itemID string, qty int) error {
	if qty <= 0 {
		return RemoveItem(c, itemID)
	}
	idx := indexOf(c, itemID)
	if idx < 0 {
		return domain.ErrNotFound
	}
	item := &c.Items[idx]
	if qty > item.Product.Stock {
		return &domain.InsufficientStockError{ProductID: item.Product.ID, Requested: qty, Available: item.Product.Stock}
	}
	item.Quantity = qty
	c.Recompute()
	return nil
}

func RemoveItem(c *domain.Cart, itemID string) error {
	idx := indexOf(c, itemID)
	if idx < 0 {
		return domain.ErrNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.Recompute()
	return nil
}

func Clear(c *domain.Cart) {
	c.Items = []domain.CartItem{}
	c.Recompute()
}

// DeductLines subtracts the quantities of lines from c, matched by line id.
// Lines that reach zero are removed; lines not in the list are untouched.
func DeductLines(c *domain.Cart, lines []domain.CartItem) {
	ordered := make(map[string]int, len(lines))
	for _, l := range lines {
		ordered[l.ID] += l.Quantity
	}
	kept := make([]domain.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		item.Quantity -= ordered[item.ID]
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.Recompute()
}

func indexOf(c *domain.Cart, itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func copyOptions(options map[string]string) map[string]string {
	if len(options) == 0 {
		return nil
	}
	out := make(map[string]string, len(options))
	for k, v := range options {
		out[k] = v
	}
	return out
}
