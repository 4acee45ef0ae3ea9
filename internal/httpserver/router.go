package httpserver

import (
	"context"
	"io"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
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

type CatalogService interface {
	Add(ctx context.Context, d catalogsvc.Draft) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Product, error)
	GetAll(ctx context.Context) ([]domain.Product, error)
	GetActive(ctx context.Context) ([]domain.Product, error)
	GetByCategory(ctx context.Context, category string) ([]domain.Product, error)
	Search(ctx context.Context, term string) ([]domain.Product, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]categorysvc.Listing, error)
}

type CartService interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, ownerID string, in cartsvc.AddInput) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, ownerID, itemID string, qty int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, ownerID, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, ownerID string) (*domain.Cart, error)
	Merge(ctx context.Context, anonymousID, ownerID string) (*domain.Cart, error)
}

type OrderService interface {
	PlaceOrder(ctx context.Context, ownerID string, who *domain.Identity, in ordersvc.CheckoutInput) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListByCustomerEmail(ctx context.Context, email string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (*domain.Order, error)
	ExportPDF(ctx context.Context, id string) (string, []byte, error)
}

type MessageService interface {
	Create(ctx context.Context, in messagesvc.Input) (*domain.Message, error)
	List(ctx context.Context) ([]domain.Message, error)
	MarkRead(ctx context.Context, id string) (*domain.Message, error)
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context) (int, error)
}

type AuthService interface {
	SignUp(ctx context.Context, in authsvc.SignUpInput) (*authsvc.Session, error)
	SignIn(ctx context.Context, email, password string) (*authsvc.Session, error)
	SignInAdmin(ctx context.Context, email, password string) (*authsvc.Session, error)
	SignOut(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.Principal, error)
}

type IdentityService interface {
	Resolve(ctx context.Context, p domain.Principal) (*domain.Identity, error)
	Lookup(ctx context.Context, principalID string) (*domain.Identity, error)
}

type AnonymousService interface {
	Issue(ctx context.Context) (accessToken, anonymousID string, err error)
	LookupByToken(ctx context.Context, token string) (string, error)
	AccessTTLSeconds() int
}

// Deps are the services the router dispatches to.
type Deps struct {
	CatalogSvc   CatalogService
	CategorySvc  CategoryService
	CartSvc      CartService
	OrderSvc     OrderService
	MessageSvc   MessageService
	AuthSvc      AuthService
	IdentitySvc  IdentityService
	AnonymousSvc AnonymousService
}

func (d Deps) validate() error {
	switch {
	case d.CatalogSvc == nil:
		return errors.New("catalog service is required")
	case d.CategorySvc == nil:
		return errors.New("category service is required")
	case d.CartSvc == nil:
		return errors.New("cart service is required")
	case d.OrderSvc == nil:
		return errors.New("order service is required")
	case d.MessageSvc == nil:
		return errors.New("message service is required")
	case d.AuthSvc == nil:
		return errors.New("auth service is required")
	case d.IdentitySvc == nil:
		return errors.New("identity service is required")
	case d.AnonymousSvc == nil:
		return errors.New("anonymous service is required")
	}
	return nil
}

// Options tune behaviour that differs between deployments.
type Options struct {
	AdminLoginPath     string
	CORSAllowedOrigins []string
}

type handler struct {
	deps   Deps
	opts   Options
	logger logrus.FieldLogger
}

// buildRouter wires routes for the API.
func buildRouter(logger logrus.FieldLogger, accessLog io.Writer, db Pinger, deps Deps, opts Options) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if opts.AdminLoginPath == "" {
		opts.AdminLoginPath = "/admin/login"
	}
	if accessLog == nil {
		accessLog = io.Discard
	}
	h := &handler{deps: deps, opts: opts, logger: logging.OrDiscard(logger)}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(accessLog), gin.Recovery())
	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", anonymousTokenHeader},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(h.sessionMiddleware())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.GET("/categories", h.listCategories)
	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.POST("/messages", h.createMessage)

	auth := router.Group("/auth")
	auth.POST("/signup", h.signUp)
	auth.POST("/signin", h.signIn)
	auth.POST("/admin/signin", h.signInAdmin)
	auth.POST("/anonymous", h.issueAnonymous)
	auth.POST("/signout", h.requireUser, h.signOut)
	auth.GET("/me", h.requireUser, h.me)

	cart := router.Group("/cart", h.requireOwner)
	cart.GET("", h.getCart)
	cart.POST("/items", h.addCartItem)
	cart.PATCH("/items/:itemId", h.updateCartItem)
	cart.DELETE("/items/:itemId", h.removeCartItem)
	cart.DELETE("", h.clearCart)
	router.POST("/cart/merge", h.requireUser, h.mergeCart)

	router.POST("/orders", h.requireOwner, h.placeOrder)
	router.GET("/me/orders", h.requireUser, h.myOrders)

	admin := router.Group("/admin", h.requireAdmin)
	admin.GET("/products", h.adminListProducts)
	admin.POST("/products", h.adminCreateProduct)
	admin.PATCH("/products/:id", h.adminUpdateProduct)
	admin.DELETE("/products/:id", h.adminDeleteProduct)
	admin.GET("/orders", h.adminListOrders)
	admin.PATCH("/orders/:id/status", h.adminUpdateOrderStatus)
	admin.GET("/orders/:id/pdf", h.adminOrderPDF)
	admin.GET("/messages", h.adminListMessages)
	admin.GET("/messages/unread-count", h.adminUnreadCount)
	admin.POST("/messages/:id/read", h.adminMarkMessageRead)
	admin.DELETE("/messages/:id", h.adminDeleteMessage)

	return router, nil
}
