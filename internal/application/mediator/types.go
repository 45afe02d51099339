package mediator

import (
	"context"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Request represents a command or query.
//
// RequestType must be a stable constant for the concrete type; it is the
// registry key and is read from the zero value during typed registration.
type Request interface {
	RequestType() string
}

// Response represents the payload of a successful request
type Response interface{}

// RequestHandler handles a specific request type
type RequestHandler interface {
	Handle(ctx context.Context, request Request) shared.Result[Response]
}

// HandlerFunc is a function that handles a request
type HandlerFunc func(ctx context.Context, request Request) shared.Result[Response]

func (f HandlerFunc) Handle(ctx context.Context, request Request) shared.Result[Response] {
	return f(ctx, request)
}

// HandlerFactory builds the handler for one dispatch. Factories returning a
// shared instance are fine as long as the handler is safe for concurrent use.
type HandlerFactory func() RequestHandler

// Middleware is a function that wraps handler execution with cross-cutting concerns
// Examples: authentication, logging, telemetry, validation, caching
type Middleware func(ctx context.Context, request Request, next HandlerFunc) shared.Result[Response]

// Behavior is a named pipeline stage. It may run logic before and after next,
// or return a failure without calling next at all.
type Behavior interface {
	Name() string
	Handle(ctx context.Context, request Request, next HandlerFunc) shared.Result[Response]
}

type namedBehavior struct {
	name string
	fn   Middleware
}

func (b namedBehavior) Name() string { return b.name }

func (b namedBehavior) Handle(ctx context.Context, request Request, next HandlerFunc) shared.Result[Response] {
	return b.fn(ctx, request, next)
}

// NewBehavior turns a Middleware into a named Behavior
func NewBehavior(name string, fn Middleware) Behavior {
	return namedBehavior{name: name, fn: fn}
}

// EventHandler reacts to a published domain event
type EventHandler interface {
	Handle(ctx context.Context, event shared.Event) error
}

// EventHandlerFunc adapts a function to EventHandler
type EventHandlerFunc func(ctx context.Context, event shared.Event) error

func (f EventHandlerFunc) Handle(ctx context.Context, event shared.Event) error {
	return f(ctx, event)
}

// Sender is what callers depend on to dispatch requests
type Sender interface {
	Send(ctx context.Context, request Request) shared.Result[Response]
}

// Publisher is what callers depend on to publish domain events
type Publisher interface {
	Publish(ctx context.Context, event shared.Event) error
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(ctx context.Context, event shared.Event) error

func (f PublisherFunc) Publish(ctx context.Context, event shared.Event) error {
	return f(ctx, event)
}
