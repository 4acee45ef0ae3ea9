package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one cart line. Product is the snapshot taken when the line was
// last touched by an add.
type CartItem struct {
	ID              string            `json:"id"`
	Product         Product           `json:"product"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
}

// Subtotal is quantity times the snapshot price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is owned by either a registered principal or an anonymous device.
// TotalItems and TotalPrice are derived from Items and never edited directly.
type Cart struct {
	OwnerID    string          `json:"ownerId"`
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Currency   string          `json:"currency"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// NewCart returns an empty cart for owner.
func NewCart(ownerID, currency string) *Cart {
	return &Cart{
		OwnerID:    ownerID,
		Items:      []CartItem{},
		TotalPrice: decimal.Zero,
		Currency:   currency,
	}
}

// Recompute derives TotalItems and TotalPrice from Items from scratch.
func (c *Cart) Recompute() {
	total := decimal.Zero
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
		total = total.Add(item.Subtotal())
	}
	c.TotalItems = count
	c.TotalPrice = total
}
