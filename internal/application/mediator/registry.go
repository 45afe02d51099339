package mediator

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Registry maps request types to handler factories and event types to event handlers.
//
// Registration happens during a single-threaded bootstrap. Seal freezes the
// registry; after that every lookup is a plain map read with no locking.
type Registry struct {
	handlers map[string]HandlerFactory
	events   map[string][]EventHandler
	sealed   atomic.Bool
}

// NewRegistry creates an empty, unsealed registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFactory),
		events:   make(map[string][]EventHandler),
	}
}

// Register binds a handler factory to a request type.
// A second registration for the same type fails with a DuplicateRegistration error.
func (r *Registry) Register(requestType string, factory HandlerFactory) error {
	if requestType == "" {
		return ErrEmptyRequestType
	}
	if factory == nil {
		return ErrNilHandler
	}
	if r.sealed.Load() {
		return fmt.Errorf("register %s: %w", requestType, ErrRegistrySealed)
	}
	if _, exists := r.handlers[requestType]; exists {
		return shared.DuplicateRegistration(requestType)
	}

	r.handlers[requestType] = factory
	return nil
}

// RegisterEventHandler appends a handler for an event type. Handlers run in registration order.
func (r *Registry) RegisterEventHandler(eventType string, handler EventHandler) error {
	if eventType == "" {
		return ErrEmptyRequestType
	}
	if handler == nil {
		return ErrNilHandler
	}
	if r.sealed.Load() {
		return fmt.Errorf("subscribe %s: %w", eventType, ErrRegistrySealed)
	}

	r.events[eventType] = append(r.events[eventType], handler)
	return nil
}

// Resolve builds the handler registered for requestType
func (r *Registry) Resolve(requestType string) (RequestHandler, *shared.Error) {
	factory, ok := r.handlers[requestType]
	if !ok {
		return nil, shared.HandlerNotFound(requestType)
	}

	handler := factory()
	if handler == nil {
		return nil, shared.Unexpected(fmt.Errorf("factory for %s: %w", requestType, ErrNilHandler))
	}
	return handler, nil
}

// EventHandlers returns the handlers subscribed to eventType. The slice must not be modified.
func (r *Registry) EventHandlers(eventType string) []EventHandler {
	return r.events[eventType]
}

// Seal freezes the registry. Calling it more than once is harmless.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// RequestTypes lists the registered request types in sorted order
func (r *Registry) RequestTypes() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
