package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/mediator-go/internal/adapters/cache"
	"github.com/andrescamacho/mediator-go/internal/adapters/messaging"
	"github.com/andrescamacho/mediator-go/internal/adapters/metrics"
	"github.com/andrescamacho/mediator-go/internal/adapters/persistence"
	"github.com/andrescamacho/mediator-go/internal/adapters/policy"
	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/application/setup"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/database"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/logging"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/telemetry"
)

// App holds the wired mediator and everything that must be closed with it
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Mediator *mediator.Mediator
	Metrics  *prometheus.Registry

	closers []func(context.Context) error
}

// NewApp connects every configured adapter and builds the mediator.
// On failure whatever was already opened is closed again.
func NewApp(ctx context.Context, cfg *config.Config) (app *App, err error) {
	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
			app = nil
		}
	}()

	// 1. Logging
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return app, fmt.Errorf("failed to set up logging: %w", err)
	}
	app.Logger = logger
	app.onClose(func(context.Context) error { return logCloser.Close() })

	// 2. Tracing
	shutdownTracing, err := telemetry.SetupProvider(ctx, cfg.Tracing)
	if err != nil {
		return app, fmt.Errorf("failed to set up tracing: %w", err)
	}
	app.onClose(shutdownTracing)

	// 3. Database
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return app, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.onClose(func(context.Context) error { return database.Close(db) })
	if err := database.AutoMigrate(db); err != nil {
		return app, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database connected", "type", cfg.Database.Type)

	// 4. Cache
	responseCache, err := app.openCache(ctx, cfg.Cache)
	if err != nil {
		return app, err
	}

	// 5. Metrics
	app.Metrics = metrics.NewRegistry()
	requestMetrics := metrics.NewRequestMetricsCollector()
	eventMetrics := metrics.NewEventMetricsCollector()
	if err := requestMetrics.Register(app.Metrics); err != nil {
		return app, err
	}
	if err := eventMetrics.Register(app.Metrics); err != nil {
		return app, err
	}

	// 6. Event forwarding
	var events common.EventPublisher = common.NoOpEventPublisher{}
	if cfg.Messaging.Enabled {
		conn, err := messaging.Connect(cfg.Messaging.NATS)
		if err != nil {
			return app, err
		}
		events = messaging.NewBreakingPublisher(
			messaging.NewNATSEventPublisher(conn, cfg.Messaging.NATS.SubjectPrefix),
			cfg.Messaging.Breaker,
			nil,
		)
		logger.Info("Event forwarding enabled", "url", cfg.Messaging.NATS.URL)
	}
	events = metrics.InstrumentPublisher(events, eventMetrics)
	app.onClose(func(context.Context) error { return events.Close() })

	// 7. Authorization policy
	authorizer, err := policy.LoadRegoAuthorizer(ctx, cfg.Policy)
	if err != nil {
		return app, err
	}

	// 8. Mediator
	registry := setup.NewHandlerRegistry(persistence.NewGormUnitOfWorkFactory(db),
		setup.WithCache(responseCache),
		setup.WithEventPublisher(events),
		setup.WithAuthorizer(authorizer),
		setup.WithMetrics(metrics.NewPrometheusBehavior(requestMetrics)),
		setup.WithLogger(logger),
	)
	app.Mediator, err = registry.CreateConfiguredMediator(setup.PipelineOptions{
		Behaviors:  cfg.Pipeline.Behaviors,
		LogPayload: cfg.Pipeline.LogPayload,
		RateLimit:  cfg.Pipeline.RateLimit.Requests,
		Burst:      cfg.Pipeline.RateLimit.Burst,
		CacheTTL:   cfg.Cache.DefaultTTL,
	})
	if err != nil {
		return app, fmt.Errorf("failed to build mediator: %w", err)
	}
	logger.Info("Mediator ready",
		"requests", app.Mediator.Registry().RequestTypes(),
		"behaviors", app.Mediator.Behaviors(),
	)
	return app, nil
}

func (a *App) openCache(ctx context.Context, cfg config.CacheConfig) (common.Cache, error) {
	switch cfg.Type {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisCache := cache.NewRedisCache(client, cfg.Redis.KeyPrefix)
		a.onClose(func(context.Context) error { return redisCache.Close() })
		return redisCache, nil
	default:
		memory := cache.NewMemoryCache(cfg.Capacity)
		memory.Start()
		a.onClose(func(context.Context) error {
			memory.Stop()
			return nil
		})
		return memory, nil
	}
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases adapters in reverse order of opening
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
