package events

import (
	"context"
	"fmt"

	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/application/order/queries"
	"github.com/andrescamacho/mediator-go/internal/application/pipeline"
	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// ForwardingHandler sends committed order events to the external event publisher
type ForwardingHandler struct {
	publisher common.EventPublisher
}

func NewForwardingHandler(publisher common.EventPublisher) *ForwardingHandler {
	if publisher == nil {
		publisher = common.NoOpEventPublisher{}
	}
	return &ForwardingHandler{publisher: publisher}
}

func (h *ForwardingHandler) Handle(ctx context.Context, event shared.Event) error {
	if err := h.publisher.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to forward %s %s: %w", event.EventType(), event.EventID(), err)
	}
	return nil
}

// CacheInvalidationHandler evicts cached GetOrder responses when an order changes
type CacheInvalidationHandler struct {
	cache common.Cache
}

func NewCacheInvalidationHandler(cache common.Cache) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{cache: cache}
}

// OnOrderCancelled drops both the owner-scoped and the unscoped entry
func (h *CacheInvalidationHandler) OnOrderCancelled(ctx context.Context, event order.OrderCancelled) error {
	if h.cache == nil {
		return nil
	}
	for _, scope := range []int64{event.CustomerID, 0} {
		key := pipeline.CacheKey(queries.GetOrderQuery{OrderID: event.AggregateID(), CustomerID: scope})
		if err := h.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", key, err)
		}
	}
	return nil
}

// Register subscribes the order event handlers
//
// Subscriptions:
//   - orders.created   → ForwardingHandler
//   - orders.cancelled → ForwardingHandler, CacheInvalidationHandler
func Register(registry *mediator.Registry, forwarding *ForwardingHandler, invalidation *CacheInvalidationHandler) error {
	if err := registry.RegisterEventHandler(order.EventOrderCreated, forwarding); err != nil {
		return err
	}
	if err := registry.RegisterEventHandler(order.EventOrderCancelled, forwarding); err != nil {
		return err
	}
	return mediator.Subscribe(registry, invalidation.OnOrderCancelled)
}
