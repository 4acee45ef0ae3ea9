package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/domain"
	"storefront/internal/taxonomy"
)

type recordingWriter struct {
	items []domain.Product
}

func (w *recordingWriter) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	w.items = append(w.items, p)
	return &p, nil
}

func TestApplySeedsValidProducts(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, Apply(context.Background(), w, nil))
	require.Len(t, w.items, len(Products))

	tax := taxonomy.Default()
	for _, p := range w.items {
		assert.NoError(t, tax.Validate(p.Category, p.Subcategory), p.Name)
		assert.True(t, p.IsActive)
		assert.True(t, p.Price.IsPositive(), p.Name)
	}
	assert.Equal(t, "Manuel de Mathématiques", w.items[0].Name)
	assert.Equal(t, 15, w.items[0].Stock)
}
