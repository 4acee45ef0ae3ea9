package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/domain"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax := Default()
	ids := make([]string, 0)
	for _, c := range tax.Categories() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"livres", "fournitures", "impression", "papeterie", "sacs"}, ids)
}

func TestValidate(t *testing.T) {
	tax := Default()

	assert.NoError(t, tax.Validate("livres", ""))
	assert.NoError(t, tax.Validate("livres", "lycee"))
	assert.ErrorIs(t, tax.Validate("jouets", ""), domain.ErrValidation)
	assert.ErrorIs(t, tax.Validate("livres", "cahiers"), domain.ErrValidation)
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte("categories:\n  - id: a\n  - id: a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
