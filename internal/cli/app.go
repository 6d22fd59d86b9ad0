package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/adapters/file"
	"github.com/aretw0/waypoint/pkg/adapters/hash"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/adapters/redis"
	"github.com/aretw0/waypoint/pkg/config"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/observability"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/aretw0/waypoint/pkg/urlpath"
	"github.com/prometheus/client_golang/prometheus"
)

// App bundles everything a command needs: the store selected by
// configuration, the session manager on top of it and the metrics registry.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    ports.HistoryStore
	Sessions *session.Manager
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	closers []func() error
}

// AppOption configures NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	guard       ports.UnloadGuard
	historyOpts []waypoint.Option
}

// WithUnloadGuard installs guard on every history the app opens.
func WithUnloadGuard(guard ports.UnloadGuard) AppOption {
	return func(o *appOptions) {
		o.guard = guard
	}
}

// WithHistoryOptions appends options applied to every history.
func WithHistoryOptions(opts ...waypoint.Option) AppOption {
	return func(o *appOptions) {
		o.historyOpts = append(o.historyOpts, opts...)
	}
}

// NewApp builds the application from cfg.
func NewApp(cfg *config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	metrics, err := observability.NewMetrics(app.Registry)
	if err != nil {
		return nil, err
	}
	app.Metrics = metrics

	var locker ports.DistributedLocker
	switch cfg.Backend {
	case config.BackendMemory:
		app.Store = memory.NewStore(memory.WithMaxEntries(cfg.MaxEntries))
	case config.BackendFile:
		app.Store = file.New(cfg.File.Path, file.WithMaxEntries(cfg.MaxEntries))
	case config.BackendRedis:
		redisOpts := []redis.Option{
			redis.WithMaxEntries(cfg.MaxEntries),
			redis.WithTTL(cfg.Redis.TTL),
			redis.WithLogger(logger),
		}
		if cfg.Redis.Prefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisOpts...)
		app.Store = store
		app.closers = append(app.closers, store.Close)
		if cfg.Redis.Lock {
			locker = redis.NewLocker(store.Client(), cfg.Redis.Prefix)
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, cfg.Backend)
	}

	mws, err := securityMiddleware(cfg.Security)
	if err != nil {
		return nil, err
	}
	app.Store = middleware.Chain(app.Store, mws...)

	hooks := observability.Combine(observability.LoggingHooks(logger), metrics.Hooks())
	historyOpts := append([]waypoint.Option{waypoint.WithLifecycleHooks(hooks)}, o.historyOpts...)
	if o.guard != nil {
		historyOpts = append(historyOpts, waypoint.WithUnloadGuard(o.guard))
	}

	managerOpts := []session.Option{
		session.WithLogger(logger),
		session.WithHistoryOptions(historyOpts...),
	}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	if cfg.Mode == config.ModeHash {
		hashType, err := urlpath.ParseHashType(cfg.HashType)
		if err != nil {
			return nil, err
		}
		managerOpts = append(managerOpts, session.WithHashMode(hash.WithHashType(hashType), hash.WithBase(cfg.Base)))
	}

	app.Sessions = session.NewManager(app.Store, managerOpts...)
	return app, nil
}

// securityMiddleware masks first so that encrypted records never hold the
// masked values in clear.
func securityMiddleware(sec config.SecurityConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(sec.MaskKeys) > 0 {
		pii, err := middleware.NewPIIMiddleware(sec.MaskKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	active, fallback, err := sec.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

// Close closes every open history and the store connections.
func (a *App) Close() error {
	errs := []error{a.Sessions.Close()}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
