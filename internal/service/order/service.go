package order

import (
	"context"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/export"
	"storefront/internal/logging"
)

const (
	maxNumberAttempts = 5
	defaultCountry    = "Maroc"
	createdNote       = "Commande créée"
)

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListByCustomerEmail(ctx context.Context, email string) ([]domain.Order, error)
	AppendStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (*domain.Order, error)
}

type cartAccess interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	RemoveOrdered(ctx context.Context, ownerID string, lines []domain.CartItem) (*domain.Cart, error)
}

type orderNotifier interface {
	OrderPlaced(ctx context.Context, o domain.Order)
}

// Service builds orders from carts and runs the back-office order workflow.
type Service struct {
	repo     orderRepo
	carts    cartAccess
	notifier orderNotifier
	currency string
	now      func() time.Time
	random   io.Reader
	logger   logrus.FieldLogger
}

func New(repo orderRepo, carts cartAccess, notifier orderNotifier, currency string, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		carts:    carts,
		notifier: notifier,
		currency: currency,
		now:      time.Now,
		logger:   logging.OrDiscard(logger).WithField("service", "order"),
	}
}

// CheckoutInput is what the customer submits at checkout.
type CheckoutInput struct {
	Shipping      domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod string                 `json:"paymentMethod"`
	Notes         string                 `json:"notes"`
}

// PlaceOrder checks out the owner's cart and, once the order is stored,
// takes the ordered lines out of it. Lines added meanwhile stay in the
// cart. A failure to update the cart is logged; the order stands.
func (s *Service) PlaceOrder(ctx context.Context, ownerID string, who *domain.Identity, in CheckoutInput) (*domain.Order, error) {
	cart, err := s.carts.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	o, err := s.CreateOrder(ctx, cart, in, who)
	if err != nil {
		return nil, err
	}
	if _, err := s.carts.RemoveOrdered(ctx, ownerID, cart.Items); err != nil {
		s.logger.WithError(err).WithField("order_number", o.OrderNumber).Warn("cart not cleared after checkout")
	}
	return o, nil
}

// CreateOrder snapshots cart into a pending order. An empty cart fails
// with domain.ErrEmptyCart before anything is written.
func (s *Service) CreateOrder(ctx context.Context, cart *domain.Cart, in CheckoutInput, who *domain.Identity) (*domain.Order, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	shipping, err := normalizeShipping(in.Shipping)
	if err != nil {
		return nil, err
	}
	payment, err := paymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	total := decimal.Zero
	for _, line := range cart.Items {
		items = append(items, domain.OrderItem{
			ProductID:       line.Product.ID,
			ProductName:     line.Product.Name,
			Quantity:        line.Quantity,
			Price:           line.Product.Price,
			SelectedOptions: line.SelectedOptions,
		})
		total = total.Add(line.Subtotal())
	}

	draft := domain.Order{
		CustomerInfo: domain.CustomerInfo{
			Name:  shipping.FullName,
			Email: shipping.Email,
			Phone: shipping.Phone,
		},
		ShippingAddress: shipping,
		PaymentMethod:   payment,
		Items:           items,
		TotalAmount:     total,
		Currency:        s.currencyFor(cart),
		CurrentStatus:   domain.OrderPending,
		StatusHistory:   []domain.StatusEntry{{Status: domain.OrderPending, Note: createdNote}},
		Notes:           strings.TrimSpace(in.Notes),
	}
	if who != nil && who.ID() != "" {
		id := who.ID()
		draft.UserID = &id
	}

	created, err := s.insertWithFreshNumber(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"order_number": created.OrderNumber,
		"total":        created.TotalAmount.String(),
	}).Info("order created")

	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, *created)
	}
	return created, nil
}

// insertWithFreshNumber draws a new order number whenever the previous one
// is already taken.
func (s *Service) insertWithFreshNumber(ctx context.Context, draft domain.Order) (*domain.Order, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := NewNumber(s.now(), s.random)
		if err != nil {
			return nil, s.fail("create order", errors.Wrap(err, "generate order number"))
		}
		draft.OrderNumber = number
		created, err := s.repo.Create(ctx, draft)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, s.fail("create order", err)
		}
		s.logger.WithField("order_number", number).Warn("order number taken, retrying")
	}
	return nil, s.fail("create order", errors.New("order number collision"))
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("get order", err)
	}
	return o, nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail("list orders", err)
	}
	return orders, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.fail("list user orders", err)
	}
	return orders, nil
}

func (s *Service) ListByCustomerEmail(ctx context.Context, email string) ([]domain.Order, error) {
	orders, err := s.repo.ListByCustomerEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, s.fail("list customer orders", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to status. Any transition between known
// statuses is allowed; note defaults to a generated message.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.Invalid("status", "unknown status "+string(status))
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = "Statut mis à jour: " + string(status)
	}
	o, err := s.repo.AppendStatus(ctx, id, status, note)
	if err != nil {
		return nil, s.fail("update order status", err)
	}
	s.logger.WithFields(logrus.Fields{"order_number": o.OrderNumber, "status": status}).Info("order status updated")
	return o, nil
}

// ExportPDF renders the order document and its download name.
func (s *Service) ExportPDF(ctx context.Context, id string) (string, []byte, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	doc, err := export.OrderPDF(*o, s.now())
	if err != nil {
		return "", nil, s.fail("export order", err)
	}
	return export.Filename(*o), doc, nil
}

func (s *Service) currencyFor(cart *domain.Cart) string {
	if cart.Currency != "" {
		return cart.Currency
	}
	return s.currency
}

func (s *Service) fail(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	s.logger.WithError(err).Error(op)
	return &domain.StoreError{Op: op, Err: err}
}

func normalizeShipping(in domain.ShippingAddress) (domain.ShippingAddress, error) {
	out := domain.ShippingAddress{
		FullName:   strings.TrimSpace(in.FullName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.TrimSpace(in.Country),
	}
	for _, f := range []struct{ name, value string }{
		{"fullName", out.FullName},
		{"email", out.Email},
		{"phone", out.Phone},
		{"address", out.Address},
		{"city", out.City},
	} {
		if f.value == "" {
			return out, domain.Invalid(f.name, "required")
		}
	}
	if _, err := mail.ParseAddress(out.Email); err != nil {
		return out, domain.Invalid("email", "invalid address")
	}
	if out.Country == "" {
		out.Country = defaultCountry
	}
	return out, nil
}

func paymentMethod(kind string) (domain.PaymentMethod, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = domain.PaymentCashOnDelivery
	}
	if kind != domain.PaymentCashOnDelivery {
		return domain.PaymentMethod{}, domain.Invalid("paymentMethod", "unsupported payment method "+kind)
	}
	return domain.PaymentMethod{Type: kind, Label: export.PaymentText(domain.PaymentMethod{Type: kind})}, nil
}
