// Package storefront is the client-side core of the Everbloom artificial
// flower storefront: typed state stores for the cart, the session and
// the catalog, a single authenticated HTTP gateway to the REST backend,
// and route guard decision functions. The presentation layer renders
// store snapshots and dispatches operations; business rules live here.
//
// Most users assemble everything through New:
//
//	client, err := storefront.New(
//	    storefront.WithConfigOptions(core.WithBaseURL("https://api.everbloom.shop")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client.Cart.AddItem(product, 1)
package storefront

import (
	"context"
	"fmt"

	"github.com/everbloom/storefront/cart"
	"github.com/everbloom/storefront/catalog"
	"github.com/everbloom/storefront/core"
	"github.com/everbloom/storefront/gateway"
	"github.com/everbloom/storefront/pkg/logger"
	"github.com/everbloom/storefront/session"
	"github.com/everbloom/storefront/telemetry"
)

// Client bundles the stores, the gateway and the session lifecycle
// observer for one running storefront instance.
type Client struct {
	Config  *core.Config
	Gateway *gateway.Client
	Cart    *cart.Store
	Session *session.Store
	Catalog *catalog.Store

	storage   core.Storage
	telemetry *telemetry.Provider
}

// ClientOption configures the assembled client beyond the core config
type ClientOption func(*assembly)

type assembly struct {
	configOpts []core.Option
	notifier   core.Notifier
	navigator  core.Navigator
	logger     core.Logger
	storage    core.Storage
}

// WithConfigOptions forwards functional options to the core config
func WithConfigOptions(opts ...core.Option) ClientOption {
	return func(a *assembly) { a.configOpts = append(a.configOpts, opts...) }
}

// WithNotifier routes user-visible notifications to the presentation layer
func WithNotifier(notifier core.Notifier) ClientOption {
	return func(a *assembly) { a.notifier = notifier }
}

// WithNavigator routes forced navigation (the post-401 redirect) to the
// presentation layer
func WithNavigator(navigator core.Navigator) ClientOption {
	return func(a *assembly) { a.navigator = navigator }
}

// WithLogger replaces the default logger
func WithLogger(log core.Logger) ClientOption {
	return func(a *assembly) { a.logger = log }
}

// WithStorage replaces the configured durable storage backend
func WithStorage(storage core.Storage) ClientOption {
	return func(a *assembly) { a.storage = storage }
}

// New assembles a storefront client. Configuration comes from defaults,
// environment variables and any options forwarded via WithConfigOptions.
func New(opts ...ClientOption) (*Client, error) {
	a := &assembly{}
	for _, opt := range opts {
		opt(a)
	}

	cfg, err := core.NewConfig(a.configOpts...)
	if err != nil {
		return nil, err
	}
	return assemble(cfg, a)
}

// NewWithConfig assembles a storefront client from an existing Config
func NewWithConfig(cfg *core.Config, opts ...ClientOption) (*Client, error) {
	a := &assembly{}
	for _, opt := range opts {
		opt(a)
	}
	return assemble(cfg, a)
}

func assemble(cfg *core.Config, a *assembly) (*Client, error) {
	if a.logger == nil {
		a.logger = logger.New(cfg.Logging.Level)
	}
	if a.notifier == nil {
		a.notifier = core.NewLogNotifier(a.logger)
	}
	if a.navigator == nil {
		a.navigator = &core.NoOpNavigator{}
	}
	if a.storage == nil {
		storage, err := core.NewStorage(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize durable storage: %w", err)
		}
		a.storage = storage
	}

	client := &Client{
		Config:  cfg,
		storage: a.storage,
	}

	gatewayOpts := []gateway.ClientOption{
		gateway.WithLogger(a.logger),
		gateway.WithNotifier(a.notifier),
	}
	if cfg.Telemetry.Enabled {
		provider, err := telemetry.NewProvider(cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		client.telemetry = provider
		gatewayOpts = append(gatewayOpts, gateway.WithTelemetry(provider))
	}

	client.Gateway = gateway.New(cfg.API, a.storage, gatewayOpts...)
	client.Cart = cart.NewStore(cart.WithLogger(a.logger))
	client.Session = session.NewStore(client.Gateway, a.storage, session.WithLogger(a.logger))
	client.Catalog = catalog.NewStore(client.Gateway, catalog.WithLogger(a.logger))

	observer := session.NewLifecycleObserver(client.Session, a.storage, a.navigator, a.logger)
	observer.Bind(client.Gateway)

	return client, nil
}

// Storage exposes the durable storage backend in use
func (c *Client) Storage() core.Storage {
	return c.storage
}

// Close flushes telemetry if it was enabled
func (c *Client) Close(ctx context.Context) error {
	if c.telemetry != nil {
		return c.telemetry.Shutdown(ctx)
	}
	return nil
}
