// Package app wires configuration, transport, session storage and the domain
// services into one App used by the command line front end.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/api"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/favorite"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/domain/seller"
	"github.com/xenking/kart-storefront/internal/notify"
	"github.com/xenking/kart-storefront/internal/storage/session"
	"github.com/xenking/kart-storefront/internal/telemetry"
	"github.com/xenking/kart-storefront/pkg/health"
	"github.com/xenking/kart-storefront/pkg/httptransport"
)

// Options carries the process-level dependencies of Build.
type Options struct {
	Telemetry telemetry.Providers
	// Notifier receives user-visible messages. Defaults to notify.Log().
	Notifier notify.Notifier
	// Transport is the innermost round tripper. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper
}

// App holds the wired services.
type App struct {
	Config    *Config
	Sessions  auth.Store
	Client    *api.Client
	Catalog   product.Catalog
	Auth      *auth.Service
	Cart      *cart.Service
	Favorites *favorite.Service
	Orders    *order.Service
	Seller    *seller.Service

	http    *http.Client
	closers []func() error
}

// Build creates all dependencies. It is the single wiring point for the
// application. Call Close when done.
func Build(ctx context.Context, cfg *Config, opts Options) (_ *App, rerr error) {
	lg := zctx.From(ctx)
	lg.Debug("Initializing",
		zap.String("api", cfg.APIBaseURL),
		zap.String("session_backend", cfg.Session.Backend),
	)

	a := &App{Config: cfg}
	defer func() {
		if rerr != nil {
			_ = a.Close()
		}
	}()

	sessions, err := a.openSessions(cfg.Session)
	if err != nil {
		return nil, err
	}
	a.Sessions = sessions

	a.http = &http.Client{
		Timeout:   cfg.HTTP.Timeout,
		Transport: newTransport(ctx, cfg, opts, lg),
	}
	client, err := api.New(api.Config{
		BaseURL:      cfg.APIBaseURL,
		ImageBaseURL: cfg.ImageBaseURL,
		HTTPClient:   a.http,
	}, sessions)
	if err != nil {
		return nil, errors.Wrap(err, "create api client")
	}
	a.Client = client
	a.Catalog = client.Catalog()

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Log()
	}

	a.Auth = auth.NewService(client.Users(), sessions)
	a.Cart, err = cart.NewService(client.Carts(), a.Catalog, sessions, cart.Options{
		Concurrency: cfg.Enrichment.Concurrency,
		Notifier:    notifier,
		Telemetry:   opts.Telemetry,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create cart service")
	}
	a.Favorites, err = favorite.NewService(client.Favorites(), a.Catalog, sessions, favorite.Options{
		Notifier:  notifier,
		Telemetry: opts.Telemetry,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create favorites service")
	}
	a.Orders = order.NewService(client.Sales(), sessions)
	a.Seller = seller.NewService(client.Seller(), sessions)

	// Per-user state must not outlive the session.
	a.Auth.OnSignOut(func(context.Context) { a.Cart.Reset() })
	a.Auth.OnSignOut(func(context.Context) { a.Favorites.Reset() })

	return a, nil
}

func (a *App) openSessions(cfg SessionConfig) (auth.Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return session.NewMemory(auth.Session{}), nil
	case BackendFile:
		return session.NewFile(cfg.Path), nil
	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		a.closers = append(a.closers, rdb.Close)
		return session.NewRedis(rdb, cfg.RedisKey), nil
	default:
		return nil, errors.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func newTransport(ctx context.Context, cfg *Config, opts Options, lg *zap.Logger) http.RoundTripper {
	mws := []httptransport.Middleware{
		httptransport.Recovery(),
		httptransport.RequestID(),
		httptransport.LogRequests(),
		httptransport.RateLimitWithCleanup(ctx, httptransport.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
	}
	if cfg.Breaker.Enabled {
		mws = append(mws, httptransport.Breaker(httptransport.BreakerConfig{
			Name:         "storefront-api",
			MaxRequests:  cfg.Breaker.MaxRequests,
			Interval:     cfg.Breaker.Interval,
			Timeout:      cfg.Breaker.Timeout,
			FailureRatio: cfg.Breaker.FailureRatio,
			MinRequests:  cfg.Breaker.MinRequests,
			Logger:       lg,
		}))
	}
	mws = append(mws, httptransport.Instrument(opts.Telemetry.TracerProvider, opts.Telemetry.MeterProvider))
	return httptransport.Wrap(opts.Transport, mws...)
}

// Health returns the diagnostic probes of the running configuration: the
// session store, API reachability and the goroutine count.
func (a *App) Health() *health.Health {
	h := health.New()
	h.AddCheck("session_store", 5*time.Second, func(ctx context.Context) error {
		if p, ok := a.Sessions.(health.Pinger); ok {
			return p.Ping(ctx)
		}
		_, err := a.Sessions.Get(ctx)
		return err
	})
	h.AddCheck("api", 10*time.Second, health.HTTPCheck(a.http, a.Config.APIBaseURL+"/api/products"))
	h.AddOptionalCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	return h
}

// Close releases backend connections.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
