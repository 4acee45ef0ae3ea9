package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const noNotes = "Aucune note"

// Notifier sends transactional emails. Delivery is best effort: failures
// are logged and never reach the caller.
type Notifier struct {
	mailer     Mailer
	adminEmail string
	logger     logrus.FieldLogger
}

func NewNotifier(mailer Mailer, adminEmail string, logger logrus.FieldLogger) *Notifier {
	return &Notifier{mailer: mailer, adminEmail: adminEmail, logger: logging.OrDiscard(logger).WithField("service", "notify")}
}

// OrderPlaced tells the shop admin about a new order and sends the customer
// a confirmation. Both mails go out concurrently.
func (n *Notifier) OrderPlaced(ctx context.Context, o domain.Order) {
	var g errgroup.Group
	g.Go(func() error {
		return n.mailer.Send(ctx, AdminOrderParams(o, n.adminEmail))
	})
	g.Go(func() error {
		return n.mailer.Send(ctx, ConfirmationParams(o))
	})
	if err := g.Wait(); err != nil {
		n.logger.WithError(err).WithField("order_number", o.OrderNumber).Warn("order notification failed")
	}
}

// MessageReceived forwards a contact-form submission to the admin.
func (n *Notifier) MessageReceived(ctx context.Context, m domain.Message) {
	if err := n.mailer.Send(ctx, MessageParams(m, n.adminEmail)); err != nil {
		n.logger.WithError(err).WithField("message_id", m.ID).Warn("message notification failed")
	}
}

// AdminOrderParams flattens an order into the admin template variables.
func AdminOrderParams(o domain.Order, to string) map[string]string {
	notes := o.Notes
	if notes == "" {
		notes = noNotes
	}
	return map[string]string{
		"to_email":         to,
		"subject":          "Nouvelle commande - " + o.OrderNumber,
		"order_number":     o.OrderNumber,
		"customer_name":    o.CustomerInfo.Name,
		"customer_email":   o.CustomerInfo.Email,
		"customer_phone":   o.CustomerInfo.Phone,
		"total_amount":     o.TotalAmount.StringFixed(2),
		"items_list":       ItemsList(o.Items),
		"shipping_address": FullAddress(o.ShippingAddress),
		"payment_method":   o.PaymentMethod.Label,
		"notes":            notes,
	}
}

// ConfirmationParams addresses the customer.
func ConfirmationParams(o domain.Order) map[string]string {
	return map[string]string{
		"to_email":     o.CustomerInfo.Email,
		"subject":      "Confirmation de commande - " + o.OrderNumber,
		"order_number": o.OrderNumber,
		"total_amount": o.TotalAmount.StringFixed(2),
		"message":      "Votre commande a été reçue et est en cours de traitement.",
	}
}

func MessageParams(m domain.Message, to string) map[string]string {
	return map[string]string{
		"to_email":       to,
		"subject":        "Nouveau message - " + m.Subject,
		"customer_name":  m.Name,
		"customer_email": m.Email,
		"customer_phone": m.Phone,
		"message":        m.Message,
	}
}

// ItemsList renders one "name - Qté: q - Prix: p DH" line per item.
func ItemsList(items []domain.OrderItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s - Qté: %d - Prix: %s DH", it.ProductName, it.Quantity, it.Price.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

// FullAddress joins the non-empty address parts.
func FullAddress(a domain.ShippingAddress) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Address, a.City, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
