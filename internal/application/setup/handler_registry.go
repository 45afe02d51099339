package setup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/andrescamacho/mediator-go/internal/application/auth"
	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	orderCommands "github.com/andrescamacho/mediator-go/internal/application/order/commands"
	orderEvents "github.com/andrescamacho/mediator-go/internal/application/order/events"
	orderQueries "github.com/andrescamacho/mediator-go/internal/application/order/queries"
	"github.com/andrescamacho/mediator-go/internal/application/pipeline"
	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// PipelineOptions selects and tunes the behaviors wrapping every request
type PipelineOptions struct {
	// Behavior names, outermost first. Empty means pipeline.DefaultOrder.
	Behaviors  []string
	LogPayload bool
	// Requests per second per request type; zero disables limiting
	RateLimit float64
	Burst     int
	CacheTTL  time.Duration
}

// HandlerRegistry holds all application dependencies for handler creation
type HandlerRegistry struct {
	newUnitOfWork order.UnitOfWorkFactory
	cache         common.Cache
	events        common.EventPublisher
	authorizer    auth.Authorizer
	tracer        trace.Tracer
	metrics       mediator.Behavior
	clock         shared.Clock
	logger        *slog.Logger
}

// Option customises a HandlerRegistry
type Option func(*HandlerRegistry)

// WithCache enables the caching behavior and cache invalidation on cancel
func WithCache(cache common.Cache) Option {
	return func(r *HandlerRegistry) { r.cache = cache }
}

// WithEventPublisher forwards committed events outside the process
func WithEventPublisher(publisher common.EventPublisher) Option {
	return func(r *HandlerRegistry) { r.events = publisher }
}

// WithAuthorizer replaces the built-in owner-or-admin rule
func WithAuthorizer(authorizer auth.Authorizer) Option {
	return func(r *HandlerRegistry) { r.authorizer = authorizer }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *HandlerRegistry) { r.tracer = tracer }
}

// WithMetrics supplies the behavior used for the "metrics" pipeline entry
func WithMetrics(behavior mediator.Behavior) Option {
	return func(r *HandlerRegistry) { r.metrics = behavior }
}

func WithClock(clock shared.Clock) Option {
	return func(r *HandlerRegistry) { r.clock = clock }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *HandlerRegistry) { r.logger = logger }
}

// NewHandlerRegistry creates a new handler registry with required dependencies
func NewHandlerRegistry(newUnitOfWork order.UnitOfWorkFactory, opts ...Option) *HandlerRegistry {
	r := &HandlerRegistry{
		newUnitOfWork: newUnitOfWork,
		events:        common.NoOpEventPublisher{},
		authorizer:    auth.OwnerOrAdmin,
		clock:         shared.NewRealClock(),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterOrderHandlers registers all order command and query handlers
//
// This method registers:
//   - CreateOrderCommand → CreateOrderHandler
//   - CancelOrderCommand → CancelOrderHandler
//   - GetOrderQuery → GetOrderHandler
//   - ListCustomerOrdersQuery → ListCustomerOrdersHandler
//
// Handlers are built per dispatch. Command handlers publish their committed
// events through events, which is usually the mediator being configured.
func (r *HandlerRegistry) RegisterOrderHandlers(registry *mediator.Registry, events mediator.Publisher) error {
	if err := mediator.RegisterFactory(registry, func() mediator.TypedHandler[orderCommands.CreateOrderCommand, string] {
		return orderCommands.NewCreateOrderHandler(r.newUnitOfWork, events, r.clock)
	}); err != nil {
		return err
	}

	if err := mediator.RegisterFactory(registry, func() mediator.TypedHandler[orderCommands.CancelOrderCommand, shared.Unit] {
		return orderCommands.NewCancelOrderHandler(r.newUnitOfWork, events, r.clock)
	}); err != nil {
		return err
	}

	if err := mediator.RegisterFactory(registry, func() mediator.TypedHandler[orderQueries.GetOrderQuery, orderQueries.OrderDTO] {
		return orderQueries.NewGetOrderHandler(r.newUnitOfWork)
	}); err != nil {
		return err
	}

	return mediator.RegisterFactory(registry, func() mediator.TypedHandler[orderQueries.ListCustomerOrdersQuery, []orderQueries.OrderDTO] {
		return orderQueries.NewListCustomerOrdersHandler(r.newUnitOfWork)
	})
}

// RegisterEventHandlers subscribes forwarding and cache invalidation to order events
func (r *HandlerRegistry) RegisterEventHandlers(registry *mediator.Registry) error {
	return orderEvents.Register(registry,
		orderEvents.NewForwardingHandler(r.events),
		orderEvents.NewCacheInvalidationHandler(r.cache))
}

// BuildBehaviors instantiates the named behaviors in order.
// An unknown or repeated name is an error; "caching" without a cache and
// "metrics" without a collector are skipped.
func (r *HandlerRegistry) BuildBehaviors(opts PipelineOptions) ([]mediator.Behavior, error) {
	names := opts.Behaviors
	if len(names) == 0 {
		names = pipeline.DefaultOrder
	}

	seen := make(map[string]bool, len(names))
	behaviors := make([]mediator.Behavior, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("behavior %q listed more than once", name)
		}
		seen[name] = true

		var b mediator.Behavior
		switch name {
		case pipeline.NameTracing:
			b = pipeline.NewTracingBehavior(r.tracer)
		case pipeline.NameLogging:
			b = pipeline.NewLoggingBehavior(r.logger, opts.LogPayload, r.clock)
		case pipeline.NameMetrics:
			if r.metrics == nil {
				r.logger.Debug("metrics behavior skipped, no collector configured")
				continue
			}
			b = r.metrics
		case pipeline.NameRateLimit:
			b = pipeline.NewRateLimitBehavior(opts.RateLimit, opts.Burst, pipeline.ByRequestType)
		case pipeline.NameAuthorization:
			b = auth.NewAuthorizationBehavior(r.authorizer)
		case pipeline.NameValidation:
			b = pipeline.NewValidationBehavior(
				pipeline.NewStructValidator(),
				orderCommands.CreateOrderRules(),
			)
		case pipeline.NameCaching:
			if r.cache == nil {
				r.logger.Debug("caching behavior skipped, no cache configured")
				continue
			}
			b = pipeline.NewCachingBehavior(r.cache, opts.CacheTTL, r.logger)
		default:
			return nil, fmt.Errorf("unknown behavior %q", name)
		}
		behaviors = append(behaviors, b)
	}
	return behaviors, nil
}

// CreateConfiguredMediator creates a mediator with every order handler and
// event subscription registered and the configured pipeline installed.
// The returned mediator's registry is sealed.
func (r *HandlerRegistry) CreateConfiguredMediator(opts PipelineOptions) (*mediator.Mediator, error) {
	behaviors, err := r.BuildBehaviors(opts)
	if err != nil {
		return nil, err
	}

	registry := mediator.NewRegistry()

	// handlers are built per dispatch, after m is assigned
	var m *mediator.Mediator
	publisher := mediator.PublisherFunc(func(ctx context.Context, event shared.Event) error {
		return m.Publish(ctx, event)
	})

	if err := r.RegisterOrderHandlers(registry, publisher); err != nil {
		return nil, fmt.Errorf("failed to register order handlers: %w", err)
	}
	if err := r.RegisterEventHandlers(registry); err != nil {
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	m = mediator.New(registry,
		mediator.WithBehaviors(behaviors...),
		mediator.WithLogger(r.logger))
	return m, nil
}
