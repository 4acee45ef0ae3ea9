package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/importer"
	"storefront/internal/logging"
	adminrepo "storefront/internal/repository/admin"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	principalrepo "storefront/internal/repository/principal"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	identitysvc "storefront/internal/service/identity"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/taxonomy"
)

// env is the shared state of every subcommand.
type env struct {
	cfg    config.Config
	logger *logrus.Logger
	pool   *pgxpool.Pool
}

func main() {
	app := &cli.App{
		Name:  "storectl",
		Usage: "operator tasks for the storefront",
		Commands: []*cli.Command{
			{
				Name:  "create-admin",
				Usage: "grant back-office access, registering the account if needed",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "required when the account does not exist yet"},
					&cli.StringFlag{Name: "name", Usage: "display name"},
				},
				Action: withEnv(createAdmin),
			},
			{
				Name:  "import-products",
				Usage: "upsert products from a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true},
				},
				Action: withEnv(importProducts),
			},
			{
				Name:  "export-order",
				Usage: "write an order document as PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "out", Usage: "output path, defaults to commande-<number>.pdf"},
				},
				Action: withEnv(exportOrder),
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withEnv(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		logger := logging.New("storectl", cfg.LogLevel, cfg.LogFormat)
		pool, err := db.Connect(c.Context, cfg.DBConnString, cfg.DBMaxConns, logger)
		if err != nil {
			return errors.Wrap(err, "connect db")
		}
		defer pool.Close()
		return fn(c, &env{cfg: cfg, logger: logger, pool: pool})
	}
}

func createAdmin(c *cli.Context, e *env) error {
	ctx := c.Context
	identities := identitysvc.New(adminrepo.NewPostgres(e.pool, e.logger), userrepo.NewPostgres(e.pool, e.logger), e.logger)
	auth := authsvc.New(principalrepo.NewPostgres(e.pool, e.logger), tokenrepo.NewPostgres(e.pool, e.logger), identities, e.logger)

	p, err := findOrRegister(ctx, auth, c.String("email"), c.String("password"), c.String("name"))
	if err != nil {
		return err
	}
	a, err := identities.ProvisionAdmin(ctx, *p, c.String("name"))
	if errors.Is(err, domain.ErrAlreadyExists) {
		fmt.Printf("%s is already an admin\n", p.Email)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "provision admin")
	}
	fmt.Printf("Admin %s (%s) created\n", a.Email, a.ID)
	return nil
}

func findOrRegister(ctx context.Context, auth *authsvc.Service, email, password, name string) (*domain.Principal, error) {
	p, err := auth.FindByEmail(ctx, email)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if password == "" {
		return nil, errors.Errorf("no account for %s; pass --password to register it", email)
	}
	sess, err := auth.SignUp(ctx, authsvc.SignUpInput{Email: email, Password: password, DisplayName: name})
	if err != nil {
		return nil, errors.Wrap(err, "register account")
	}
	if err := auth.SignOut(ctx, sess.AccessToken); err != nil {
		return nil, err
	}
	return &sess.Principal, nil
}

func importProducts(c *cli.Context, e *env) error {
	f, err := os.Open(c.String("file"))
	if err != nil {
		return errors.Wrap(err, "open file")
	}
	defer f.Close()

	repo := productrepo.NewPostgres(e.pool, e.logger)
	imp := importer.NewCSVImporter(f, repo, categorysvc.New(taxonomy.Default(), repo), e.logger)

	start := time.Now()
	count, err := imp.Run(c.Context)
	if err != nil {
		return errors.Wrap(err, "import failed")
	}
	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
	return nil
}

func exportOrder(c *cli.Context, e *env) error {
	products := productrepo.NewPostgres(e.pool, e.logger)
	carts := cartsvc.New(cartrepo.NewPostgres(e.pool, e.cfg.Currency, e.logger), products, e.logger)
	orders := ordersvc.New(orderrepo.NewPostgres(e.pool, e.logger), carts, nil, e.cfg.Currency, e.logger)

	name, doc, err := orders.ExportPDF(c.Context, c.String("id"))
	if err != nil {
		return errors.Wrap(err, "export order")
	}
	out := c.String("out")
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, doc, 0o644); err != nil {
		return errors.Wrap(err, "write pdf")
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
