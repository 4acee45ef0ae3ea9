package httpserver

import (
	"context"

	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/logging"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	categorysvc "storefront/internal/service/category"
	messagesvc "storefront/internal/service/message"
	ordersvc "storefront/internal/service/order"
)

func logDiscard() *logrus.Logger {
	return logging.Discard()
}

type stubCatalogService struct {
	products   []domain.Product
	lastSearch string
	lastCat    string
	err        error
}

func (s *stubCatalogService) Add(_ context.Context, d catalogsvc.Draft) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: "new", Name: d.Name, Price: d.Price, IsActive: true}, nil
}

func (s *stubCatalogService) Update(_ context.Context, id string, _ domain.ProductPatch) (*domain.Product, error) {
	return &domain.Product{ID: id}, s.err
}

func (s *stubCatalogService) Delete(_ context.Context, _ string) error {
	return s.err
}

func (s *stubCatalogService) Get(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalogService) GetAll(_ context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalogService) GetActive(_ context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalogService) GetByCategory(_ context.Context, category string) ([]domain.Product, error) {
	s.lastCat = category
	return s.products, s.err
}

func (s *stubCatalogService) Search(_ context.Context, term string) ([]domain.Product, error) {
	s.lastSearch = term
	return s.products, s.err
}

type stubCategoryService struct{}

func (stubCategoryService) List(_ context.Context) ([]categorysvc.Listing, error) {
	return nil, nil
}

type stubCartService struct {
	owners []string
	merged [2]string
	err    error
}

func (s *stubCartService) cart(owner string) (*domain.Cart, error) {
	s.owners = append(s.owners, owner)
	if s.err != nil {
		return nil, s.err
	}
	return domain.NewCart(owner, "MAD"), nil
}

func (s *stubCartService) Get(_ context.Context, ownerID string) (*domain.Cart, error) {
	return s.cart(ownerID)
}

func (s *stubCartService) AddItem(_ context.Context, ownerID string, _ cartsvc.AddInput) (*domain.Cart, error) {
	return s.cart(ownerID)
}

func (s *stubCartService) UpdateQuantity(_ context.Context, ownerID, _ string, _ int) (*domain.Cart, error) {
	return s.cart(ownerID)
}

func (s *stubCartService) RemoveItem(_ context.Context, ownerID, _ string) (*domain.Cart, error) {
	return s.cart(ownerID)
}

func (s *stubCartService) Clear(_ context.Context, ownerID string) (*domain.Cart, error) {
	return s.cart(ownerID)
}

func (s *stubCartService) Merge(_ context.Context, anonymousID, ownerID string) (*domain.Cart, error) {
	s.merged = [2]string{anonymousID, ownerID}
	return s.cart(ownerID)
}

type stubOrderService struct {
	order     *domain.Order
	lastWho   *domain.Identity
	lastEmail string
	err       error
}

func (s *stubOrderService) PlaceOrder(_ context.Context, _ string, who *domain.Identity, _ ordersvc.CheckoutInput) (*domain.Order, error) {
	s.lastWho = who
	return s.order, s.err
}

func (s *stubOrderService) List(_ context.Context) ([]domain.Order, error) {
	return nil, s.err
}

func (s *stubOrderService) ListByUser(_ context.Context, _ string) ([]domain.Order, error) {
	return nil, s.err
}

func (s *stubOrderService) ListByCustomerEmail(_ context.Context, email string) ([]domain.Order, error) {
	s.lastEmail = email
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Order{{OrderNumber: "ORD250101AB12", CustomerInfo: domain.CustomerInfo{Email: email}}}, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ string, status domain.OrderStatus, _ string) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{CurrentStatus: status}, nil
}

func (s *stubOrderService) ExportPDF(_ context.Context, _ string) (string, []byte, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return "commande-ORD250101AB12.pdf", []byte("%PDF-1.3"), nil
}

type stubMessageService struct{}

func (stubMessageService) Create(_ context.Context, in messagesvc.Input) (*domain.Message, error) {
	if in.Name == "" {
		return nil, domain.Invalid("name", "required")
	}
	return &domain.Message{ID: "m1", Name: in.Name}, nil
}

func (stubMessageService) List(_ context.Context) ([]domain.Message, error) {
	return nil, nil
}

func (stubMessageService) MarkRead(_ context.Context, _ string) (*domain.Message, error) {
	return nil, domain.ErrNotFound
}

func (stubMessageService) Delete(_ context.Context, _ string) error {
	return nil
}

func (stubMessageService) UnreadCount(_ context.Context) (int, error) {
	return 3, nil
}

// stubAuthService knows the tokens "admin-token" and "client-token".
type stubAuthService struct {
	signInErr error
	lookupErr error
}

func (s *stubAuthService) SignUp(_ context.Context, in authsvc.SignUpInput) (*authsvc.Session, error) {
	return &authsvc.Session{Principal: domain.Principal{ID: "p-new", Email: in.Email}, AccessToken: "tok"}, nil
}

func (s *stubAuthService) SignIn(_ context.Context, email, _ string) (*authsvc.Session, error) {
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	return &authsvc.Session{Principal: domain.Principal{ID: "p-client", Email: email}, AccessToken: "client-token"}, nil
}

func (s *stubAuthService) SignInAdmin(_ context.Context, _, _ string) (*authsvc.Session, error) {
	return nil, domain.ErrNotAdmin
}

func (s *stubAuthService) SignOut(_ context.Context, _ string) error {
	return nil
}

func (s *stubAuthService) LookupByToken(_ context.Context, token string) (*domain.Principal, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	switch token {
	case "admin-token":
		return &domain.Principal{ID: "p-admin", Email: "admin@example.ma"}, nil
	case "client-token":
		return &domain.Principal{ID: "p-client", Email: "client@example.ma"}, nil
	}
	return nil, domain.ErrInvalidToken
}

type stubIdentityService struct{}

func (stubIdentityService) Resolve(_ context.Context, p domain.Principal) (*domain.Identity, error) {
	return &domain.Identity{Kind: domain.RoleClient, User: &domain.User{ID: p.ID}}, nil
}

func (stubIdentityService) Lookup(_ context.Context, principalID string) (*domain.Identity, error) {
	if principalID == "p-admin" {
		return &domain.Identity{Kind: domain.RoleAdmin, Admin: &domain.AdminUser{ID: principalID}}, nil
	}
	return nil, domain.ErrNotFound
}

// stubAnonymousService accepts "device-token" as device "dev-1".
type stubAnonymousService struct{}

func (stubAnonymousService) Issue(_ context.Context) (string, string, error) {
	return "device-token", "dev-1", nil
}

func (stubAnonymousService) LookupByToken(_ context.Context, token string) (string, error) {
	if token == "device-token" {
		return "dev-1", nil
	}
	return "", domain.ErrInvalidToken
}

func (stubAnonymousService) AccessTTLSeconds() int {
	return 3600
}

func stubDeps() Deps {
	return Deps{
		CatalogSvc:   &stubCatalogService{},
		CategorySvc:  stubCategoryService{},
		CartSvc:      &stubCartService{},
		OrderSvc:     &stubOrderService{},
		MessageSvc:   stubMessageService{},
		AuthSvc:      &stubAuthService{},
		IdentitySvc:  stubIdentityService{},
		AnonymousSvc: stubAnonymousService{},
	}
}
