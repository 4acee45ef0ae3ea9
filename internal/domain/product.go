package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxProductImages bounds Product.Images.
const MaxProductImages = 3

// Dimensions are expressed in centimetres.
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
}

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Images      []string         `json:"images"`
	Category    string           `json:"category"`
	Subcategory string           `json:"subcategory,omitempty"`
	Stock       int              `json:"stock"`
	IsActive    bool             `json:"isActive"`
	Tags        []string         `json:"tags,omitempty"`
	Weight      *decimal.Decimal `json:"weight,omitempty"`
	Dimensions  *Dimensions      `json:"dimensions,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ProductPatch is a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Images      *[]string        `json:"images,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Subcategory *string          `json:"subcategory,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	IsActive    *bool            `json:"isActive,omitempty"`
	Tags        *[]string        `json:"tags,omitempty"`
	Weight      *decimal.Decimal `json:"weight,omitempty"`
	Dimensions  *Dimensions      `json:"dimensions,omitempty"`
}

// Empty reports whether the patch carries no field at all.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Images == nil &&
		p.Category == nil && p.Subcategory == nil && p.Stock == nil && p.IsActive == nil &&
		p.Tags == nil && p.Weight == nil && p.Dimensions == nil
}
