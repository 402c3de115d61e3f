package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	shop "goflare.io/storefront"
	"goflare.io/storefront/cart"
	"goflare.io/storefront/catalog"
	"goflare.io/storefront/config"
	"goflare.io/storefront/driver"
	"goflare.io/storefront/event"
	"goflare.io/storefront/fetch"
	"goflare.io/storefront/identity"
	"goflare.io/storefront/metrics"
	"goflare.io/storefront/notification"
	"goflare.io/storefront/order"
	"goflare.io/storefront/payment"
	"goflare.io/storefront/storage"
)

// application holds every wired component for one CLI invocation.
type application struct {
	cfg    *config.Config
	logger *zap.Logger

	documents driver.DocumentStore
	storage   storage.Storage
	bus       *event.Bus
	nats      *nats.Conn
	bridge    *event.NATSBridge
	recorder  *metrics.Recorder

	passwords     *identity.PasswordProvider
	session       *identity.Session
	catalog       catalog.Service
	carts         cart.Service
	orders        order.Service
	notifications notification.Service
	shop          shop.Service

	closers []func()
}

func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	a := &application{cfg: cfg, logger: logger, bus: event.NewBus(logger)}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	err := a.connectDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if err = a.connectStorage(ctx); err != nil {
		return nil, err
	}
	if err = a.connectNATS(); err != nil {
		return nil, err
	}

	var observer fetch.Observer
	var checkoutObserver shop.CheckoutObserver
	if cfg.Metrics.Enabled {
		if a.recorder, err = metrics.NewRecorder(prometheus.NewRegistry(), cfg.Metrics.Namespace, logger); err != nil {
			return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
		}
		a.closers = append(a.closers, a.recorder.WatchBus(a.bus))
		observer, checkoutObserver = a.recorder, a.recorder
	}

	var tokens identity.TokenVerifier
	if cfg.Identity.FirebaseProjectID != "" {
		verifier, ferr := identity.ConnectFirebase(ctx, cfg.Identity.FirebaseProjectID, cfg.Identity.FirebaseCredentials, logger)
		if ferr != nil {
			return nil, ferr
		}
		tokens = verifier
	}

	a.passwords = identity.NewPasswordProvider(a.documents, logger)
	a.session = identity.NewSession(a.storage, a.passwords, tokens, logger)
	a.session.Restore(ctx)

	opts := fetch.Options{
		CacheDuration: cfg.Fetch.CacheDuration,
		RetryAttempts: cfg.Fetch.RetryAttempts,
		RetryDelay:    cfg.Fetch.RetryDelay,
		DisableCache:  cfg.Fetch.DisableCache,
		Observer:      observer,
	}
	a.catalog = catalog.NewService(catalog.NewRepository(a.documents, logger), opts, logger)
	a.carts = cart.NewService(cart.NewRepository(a.storage, logger), a.bus, logger)
	a.orders = order.NewService(order.NewRepository(a.documents, logger), logger)
	a.notifications = notification.NewService(notification.NewRepository(a.storage, logger), a.bus, logger)

	a.shop = shop.NewService(
		a.carts, a.catalog, a.orders, a.notifications,
		a.session, a.charger(), a.storage,
		shop.Settings{
			TaxRate:  cfg.Checkout.TaxRate,
			Currency: stripeCurrency(cfg.Checkout.Currency),
			Observer: checkoutObserver,
		},
		logger,
	)

	ready = true
	return a, nil
}

func (a *application) connectDocuments(ctx context.Context) error {
	switch a.cfg.Documents.Backend {
	case "firestore":
		store, err := driver.ConnectFirestore(ctx, a.cfg.Documents.ProjectID, a.cfg.Documents.CredentialsFile, a.logger)
		if err != nil {
			return err
		}
		a.documents = store
	default:
		store, err := driver.ConnectClover(a.cfg.Documents.Path, a.logger)
		if err != nil {
			return err
		}
		a.documents = store
	}

	a.closers = append(a.closers, func() {
		if err := a.documents.Close(); err != nil {
			a.logger.Warn("Failed to close document store", zap.Error(err))
		}
	})
	return nil
}

func (a *application) connectStorage(ctx context.Context) error {
	cfg := a.cfg.Storage

	switch cfg.Backend {
	case "memory":
		a.storage = storage.NewMemory()
	case "redis":
		client, err := driver.ConnectRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.storage = storage.NewRedis(client, cfg.RedisPrefix, a.logger)
	case "postgres":
		db, err := driver.ConnectSQL(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, db.Pool.Close)

		pg := storage.NewPostgres(db.Pool, driver.NewTransactionManager(db.Pool, a.logger), a.logger)
		if err = pg.EnsureSchema(ctx); err != nil {
			return err
		}
		a.storage = pg
	default:
		a.storage = storage.NewDocuments(a.documents, a.logger)
	}

	return nil
}

func (a *application) connectNATS() error {
	if a.cfg.NATS.URL == "" {
		return nil
	}

	conn, err := nats.Connect(a.cfg.NATS.URL, nats.Name("storefront"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.nats = conn
	a.closers = append(a.closers, conn.Close)

	a.bridge = event.NewNATSBridge(conn, a.bus, a.cfg.NATS.SubjectPrefix, a.logger)
	if err = a.bridge.Start(); err != nil {
		return err
	}
	a.closers = append(a.closers, a.bridge.Stop)
	return nil
}

func (a *application) charger() payment.Charger {
	if a.cfg.Payment.Provider == "stripe" {
		return payment.NewStripeCharger(a.cfg.Payment.StripeKey, a.logger)
	}
	return payment.NewSimulatedCharger(a.cfg.Payment.SimulatedDelay, a.logger)
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
