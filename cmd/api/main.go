package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/notify"
	adminrepo "storefront/internal/repository/admin"
	cartrepo "storefront/internal/repository/cart"
	messagerepo "storefront/internal/repository/message"
	orderrepo "storefront/internal/repository/order"
	principalrepo "storefront/internal/repository/principal"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	anonymoussvc "storefront/internal/service/anonymous"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	categorysvc "storefront/internal/service/category"
	identitysvc "storefront/internal/service/identity"
	messagesvc "storefront/internal/service/message"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/taxonomy"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New("api", cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns, logger)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	categoryService := categorysvc.New(taxonomy.Default(), productRepo)
	catalogService := catalogsvc.New(productRepo, categoryService, logger)
	cartService := cartsvc.New(cartStore(cfg, dbpool, logger), productRepo, logger)

	notifier := notify.NewNotifier(notify.NewMailer(cfg.Mail, logger), cfg.Mail.AdminEmail, logger)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), cartService, notifier, cfg.Currency, logger)
	messageService := messagesvc.New(messagerepo.NewPostgres(dbpool, logger), notifier, logger)

	identityService := identitysvc.New(adminrepo.NewPostgres(dbpool, logger), userrepo.NewPostgres(dbpool, logger), logger)
	authService := authsvc.New(principalrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool, logger), identityService, logger)
	anonymousService := anonymoussvc.New(cfg.AnonTokenSecret, cfg.AnonTokenTTL())

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CatalogSvc:   catalogService,
		CategorySvc:  categoryService,
		CartSvc:      cartService,
		OrderSvc:     orderService,
		MessageSvc:   messageService,
		AuthSvc:      authService,
		IdentitySvc:  identityService,
		AnonymousSvc: anonymousService,
	}, httpserver.Options{
		AdminLoginPath:     cfg.AdminLoginPath,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "cart_backend": cfg.CartBackend}).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Infof("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
}

// cartStore picks the cart persistence strategy for this deployment.
func cartStore(cfg config.Config, pool *pgxpool.Pool, logger logrus.FieldLogger) cartrepo.Store {
	if cfg.CartBackend == config.CartBackendDevice {
		return cartrepo.NewDevice(pool, cfg.Currency, logger)
	}
	return cartrepo.NewPostgres(pool, cfg.Currency, logger)
}
