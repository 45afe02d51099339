package mediator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Mediator dispatches requests through the behavior pipeline to their handlers
// and fans domain events out to subscribers.
//
// A Mediator holds no per-call state; Send and Publish are safe for
// concurrent use and may be called re-entrantly from inside handlers.
type Mediator struct {
	registry  *Registry
	behaviors []Behavior
	logger    *slog.Logger
}

// Option configures a Mediator
type Option func(*Mediator)

// WithBehaviors sets the pipeline. The first behavior is the outermost.
func WithBehaviors(behaviors ...Behavior) Option {
	return func(m *Mediator) {
		m.behaviors = append(m.behaviors, behaviors...)
	}
}

// WithLogger sets the logger used for recovered panics
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mediator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a mediator over registry and seals it
func New(registry *Registry, opts ...Option) *Mediator {
	if registry == nil {
		registry = NewRegistry()
	}
	m := &Mediator{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	registry.Seal()
	return m
}

// Behaviors returns the pipeline behavior names, outermost first
func (m *Mediator) Behaviors() []string {
	names := make([]string, len(m.behaviors))
	for i, b := range m.behaviors {
		names[i] = b.Name()
	}
	return names
}

// Registry exposes the sealed registry (read-only)
func (m *Mediator) Registry() *Registry {
	return m.registry
}

// Send dispatches a request to its registered handler through the pipeline.
// It never panics and never returns a Result that is neither success nor failure.
func (m *Mediator) Send(ctx context.Context, request Request) shared.Result[Response] {
	requestType, ok := requestTypeOf(request)
	if !ok {
		return shared.Failure[Response](shared.InvalidState(ErrNilRequest.Error()))
	}
	if err := ctx.Err(); err != nil {
		return shared.Failure[Response](shared.Cancelled(err))
	}

	handler, ferr := m.registry.Resolve(requestType)
	if ferr != nil {
		return shared.Failure[Response](ferr)
	}

	next := m.terminal(requestType, handler)
	for i := len(m.behaviors) - 1; i >= 0; i-- {
		next = m.wrap(m.behaviors[i], next)
	}

	return normalize(next(ctx, request))
}

// requestTypeOf reports false for a nil request, including a nil pointer
// whose RequestType method cannot run on it
func requestTypeOf(request Request) (requestType string, ok bool) {
	if request == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			requestType, ok = "", false
		}
	}()
	return request.RequestType(), true
}

// terminal invokes the handler once cancellation has been checked one last time
func (m *Mediator) terminal(requestType string, handler RequestHandler) HandlerFunc {
	return func(ctx context.Context, request Request) (result shared.Result[Response]) {
		if err := ctx.Err(); err != nil {
			return shared.Failure[Response](shared.Cancelled(err))
		}
		defer m.recoverInto(&result, "handler "+requestType)
		return normalize(handler.Handle(ctx, request))
	}
}

func (m *Mediator) wrap(b Behavior, next HandlerFunc) HandlerFunc {
	name := b.Name()
	return func(ctx context.Context, request Request) (result shared.Result[Response]) {
		defer m.recoverInto(&result, "behavior "+name)
		return normalize(b.Handle(ctx, request, next))
	}
}

// recoverInto turns a panic into an Unexpected failure
func (m *Mediator) recoverInto(result *shared.Result[Response], where string) {
	r := recover()
	if r == nil {
		return
	}

	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	m.logger.Error("recovered panic in pipeline",
		"where", where,
		"panic", fmt.Sprint(r),
		"stack", string(stack[:n]))

	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}
	*result = shared.Failure[Response](
		shared.Unexpected(fmt.Errorf("panic in %s: %w", where, cause)).WithMetadata("panic", "true"))
}

// normalize reclassifies unclassified context errors as cancellation
func normalize(result shared.Result[Response]) shared.Result[Response] {
	e := result.Error()
	if e == nil || e.Kind != shared.KindUnexpected {
		return result
	}
	if cause := e.Unwrap(); cause != nil &&
		(errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded)) {
		return shared.Failure[Response](shared.Cancelled(cause))
	}
	return result
}

// Publish runs every handler subscribed to the event's type in registration order.
// Handler errors are joined; a cancelled context stops the fan-out.
func (m *Mediator) Publish(ctx context.Context, event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	var errs []error
	for _, h := range m.registry.EventHandlers(event.EventType()) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, shared.Cancelled(err))
			break
		}
		if err := m.publishOne(ctx, h, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Mediator) publishOne(ctx context.Context, h EventHandler, event shared.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("recovered panic in event handler",
				"event_type", event.EventType(),
				"panic", fmt.Sprint(r))
			err = shared.Unexpected(fmt.Errorf("panic in event handler for %s: %v", event.EventType(), r))
		}
	}()
	return h.Handle(ctx, event)
}
