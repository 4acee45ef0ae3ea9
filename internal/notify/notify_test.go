package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/config"
	"storefront/internal/domain"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []map[string]string
	err  error
}

func (r *recordingMailer) Send(_ context.Context, params map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, params)
	return r.err
}

func sampleOrder() domain.Order {
	return domain.Order{
		OrderNumber:     "ORD250101AB12",
		CustomerInfo:    domain.CustomerInfo{Name: "Amina", Email: "amina@example.ma", Phone: "0600000000"},
		ShippingAddress: domain.ShippingAddress{Address: "1 rue des Orangers", City: "Témara", PostalCode: "12000", Country: "Maroc"},
		PaymentMethod:   domain.PaymentMethod{Type: domain.PaymentCashOnDelivery, Label: "Paiement à la livraison"},
		Items: []domain.OrderItem{
			{ProductName: "Manuel", Quantity: 3, Price: decimal.NewFromInt(85)},
			{ProductName: "Cahier", Quantity: 1, Price: decimal.RequireFromString("12.5")},
		},
		TotalAmount: decimal.RequireFromString("267.5"),
	}
}

func TestAdminOrderParams(t *testing.T) {
	params := AdminOrderParams(sampleOrder(), "admin@shop.ma")

	assert.Equal(t, "admin@shop.ma", params["to_email"])
	assert.Equal(t, "Nouvelle commande - ORD250101AB12", params["subject"])
	assert.Equal(t, "267.50", params["total_amount"])
	assert.Equal(t, "Manuel - Qté: 3 - Prix: 85.00 DH\nCahier - Qté: 1 - Prix: 12.50 DH", params["items_list"])
	assert.Equal(t, "1 rue des Orangers, Témara, 12000, Maroc", params["shipping_address"])
	assert.Equal(t, "Paiement à la livraison", params["payment_method"])
	assert.Equal(t, "Aucune note", params["notes"])
}

func TestFullAddressSkipsBlanks(t *testing.T) {
	assert.Equal(t, "1 rue, Rabat, Maroc", FullAddress(domain.ShippingAddress{Address: "1 rue", City: "Rabat", Country: "Maroc"}))
}

func TestOrderPlacedSendsBothMailsAndSwallowsErrors(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	n := NewNotifier(mailer, "admin@shop.ma", nil)

	n.OrderPlaced(context.Background(), sampleOrder())

	require.Len(t, mailer.sent, 2)
	recipients := []string{mailer.sent[0]["to_email"], mailer.sent[1]["to_email"]}
	assert.ElementsMatch(t, []string{"admin@shop.ma", "amina@example.ma"}, recipients)
}

func TestMessageReceived(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, "admin@shop.ma", nil)

	n.MessageReceived(context.Background(), domain.Message{Name: "Karim", Email: "k@example.ma", Subject: "Devis", Message: "Bonjour"})

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Nouveau message - Devis", mailer.sent[0]["subject"])
}

func TestHTTPMailerPostsTemplate(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewHTTPMailer(config.Mail{APIURL: srv.URL, ServiceID: "svc", TemplateID: "tpl", PublicKey: "pk"}, srv.Client())
	require.NoError(t, m.Send(context.Background(), map[string]string{"order_number": "ORD1"}))

	assert.Equal(t, "svc", got.ServiceID)
	assert.Equal(t, "tpl", got.TemplateID)
	assert.Equal(t, "pk", got.UserID)
	assert.Equal(t, "ORD1", got.TemplateParams["order_number"])
}

func TestHTTPMailerReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad template", http.StatusBadRequest)
	}))
	defer srv.Close()

	m := NewHTTPMailer(config.Mail{APIURL: srv.URL, ServiceID: "svc", TemplateID: "tpl"}, srv.Client())
	err := m.Send(context.Background(), map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad template")
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	_, ok := NewMailer(config.Mail{}, nil).(LogMailer)
	assert.True(t, ok)

	_, ok = NewMailer(config.Mail{APIURL: "http://x", ServiceID: "s", TemplateID: "t"}, nil).(*HTTPMailer)
	assert.True(t, ok)
}
