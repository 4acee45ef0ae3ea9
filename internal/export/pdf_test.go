package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/domain"
)

func TestOrderPDF(t *testing.T) {
	items := make([]domain.OrderItem, 0, 40)
	for i := 0; i < 40; i++ {
		items = append(items, domain.OrderItem{ProductName: "Manuel de Mathématiques - 1ère Année du baccalauréat", Quantity: 1, Price: decimal.NewFromInt(85)})
	}
	o := domain.Order{
		OrderNumber:     "ORD250101AB12",
		CustomerInfo:    domain.CustomerInfo{Name: "Amina", Email: "amina@example.ma", Phone: "0600000000"},
		ShippingAddress: domain.ShippingAddress{Address: "1 rue", City: "Témara", Country: "Maroc"},
		PaymentMethod:   domain.PaymentMethod{Type: domain.PaymentCashOnDelivery},
		Items:           items,
		TotalAmount:     decimal.NewFromInt(3400),
		CurrentStatus:   domain.OrderPending,
		Notes:           "Livrer après 17h",
		CreatedAt:       time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	}

	doc, err := OrderPDF(o, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
	assert.Equal(t, "commande-ORD250101AB12.pdf", Filename(o))
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "Cahier", TruncateName("Cahier"))
	long := strings.Repeat("é", 45)
	got := TruncateName(long)
	assert.Equal(t, 40, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestPaymentText(t *testing.T) {
	assert.Equal(t, "Paiement à la livraison", PaymentText(domain.PaymentMethod{Type: domain.PaymentCashOnDelivery}))
	assert.Equal(t, "Virement", PaymentText(domain.PaymentMethod{Type: "transfer", Label: "Virement"}))
	assert.Equal(t, "transfer", PaymentText(domain.PaymentMethod{Type: "transfer"}))
}
