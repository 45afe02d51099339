package mediator

import (
	"context"
	"fmt"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// TypedHandler handles TReq and produces TResp
type TypedHandler[TReq Request, TResp any] interface {
	Handle(ctx context.Context, request TReq) shared.Result[TResp]
}

// TypedHandlerFunc adapts a function to TypedHandler
type TypedHandlerFunc[TReq Request, TResp any] func(ctx context.Context, request TReq) shared.Result[TResp]

func (f TypedHandlerFunc[TReq, TResp]) Handle(ctx context.Context, request TReq) shared.Result[TResp] {
	return f(ctx, request)
}

// RegisterHandler registers a single shared handler instance for TReq.
// The key is taken from the zero value of TReq.
func RegisterHandler[TReq Request, TResp any](r *Registry, handler TypedHandler[TReq, TResp]) error {
	if handler == nil {
		return ErrNilHandler
	}
	return RegisterFactory[TReq, TResp](r, func() TypedHandler[TReq, TResp] { return handler })
}

// RegisterFunc registers a plain function as the handler for TReq
func RegisterFunc[TReq Request, TResp any](r *Registry, fn func(ctx context.Context, request TReq) shared.Result[TResp]) error {
	if fn == nil {
		return ErrNilHandler
	}
	return RegisterHandler[TReq, TResp](r, TypedHandlerFunc[TReq, TResp](fn))
}

// RegisterFactory registers a factory that builds a fresh handler for every dispatch
func RegisterFactory[TReq Request, TResp any](r *Registry, factory func() TypedHandler[TReq, TResp]) error {
	if factory == nil {
		return ErrNilHandler
	}
	var zero TReq
	return r.Register(zero.RequestType(), func() RequestHandler {
		inner := factory()
		if inner == nil {
			return nil
		}
		return typedAdapter[TReq, TResp]{inner: inner}
	})
}

type typedAdapter[TReq Request, TResp any] struct {
	inner TypedHandler[TReq, TResp]
}

func (a typedAdapter[TReq, TResp]) Handle(ctx context.Context, request Request) shared.Result[Response] {
	typed, ok := request.(TReq)
	if !ok {
		return shared.Failure[Response](shared.InvalidState(
			fmt.Sprintf("handler for %s received %T", request.RequestType(), request)))
	}
	return shared.Map(a.inner.Handle(ctx, typed), func(v TResp) Response { return v })
}

// Send dispatches request and narrows the response to TResp.
// A response of the wrong type is an InvalidState failure.
func Send[TResp any](ctx context.Context, s Sender, request Request) shared.Result[TResp] {
	return shared.Bind(s.Send(ctx, request), func(v Response) shared.Result[TResp] {
		if v == nil {
			var zero TResp
			return shared.Success(zero)
		}
		typed, ok := v.(TResp)
		if !ok {
			var zero TResp
			return shared.Failure[TResp](shared.InvalidState(
				fmt.Sprintf("%s responded with %T, expected %T", request.RequestType(), v, zero)))
		}
		return shared.Success(typed)
	})
}

// Subscribe registers a typed event handler for E.
// The event type is taken from the zero value of E.
func Subscribe[E shared.Event](r *Registry, fn func(ctx context.Context, event E) error) error {
	if fn == nil {
		return ErrNilHandler
	}
	var zero E
	eventType := zero.EventType()
	return r.RegisterEventHandler(eventType, EventHandlerFunc(func(ctx context.Context, event shared.Event) error {
		typed, ok := event.(E)
		if !ok {
			return shared.InvalidState(fmt.Sprintf("subscriber for %s received %T", eventType, event))
		}
		return fn(ctx, typed)
	}))
}
