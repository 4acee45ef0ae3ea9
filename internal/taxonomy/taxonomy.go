// Package taxonomy holds the fixed product category tree.
package taxonomy

import (
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"storefront/internal/domain"
)

//go:embed taxonomy.yaml
var defaultFile []byte

type Category struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Subcategories []string `yaml:"subcategories" json:"subcategories"`
}

type Taxonomy struct {
	categories []Category
	byID       map[string]Category
}

// Default returns the embedded taxonomy. It panics only if the embedded
// file is malformed, which the package tests rule out.
func Default() *Taxonomy {
	t, err := Parse(defaultFile)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse decodes a taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode taxonomy")
	}
	if len(doc.Categories) == 0 {
		return nil, errors.New("taxonomy has no categories")
	}
	t := &Taxonomy{categories: doc.Categories, byID: make(map[string]Category, len(doc.Categories))}
	for _, c := range doc.Categories {
		if c.ID == "" {
			return nil, errors.New("taxonomy category without id")
		}
		if _, dup := t.byID[c.ID]; dup {
			return nil, errors.Errorf("duplicate taxonomy category %q", c.ID)
		}
		t.byID[c.ID] = c
	}
	return t, nil
}

// Categories lists categories in file order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// Validate checks category and, when non-empty, subcategory.
func (t *Taxonomy) Validate(category, subcategory string) error {
	c, ok := t.byID[category]
	if !ok {
		return domain.Invalid("category", "unknown category "+category)
	}
	if subcategory == "" {
		return nil
	}
	for _, s := range c.Subcategories {
		if s == subcategory {
			return nil
		}
	}
	return domain.Invalid("subcategory", "unknown subcategory "+subcategory+" for "+category)
}
