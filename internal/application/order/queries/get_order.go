package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// GetOrderQuery loads one order.
// CustomerID scopes the lookup; another customer's order is reported as not found.
type GetOrderQuery struct {
	OrderID    string `json:"order_id" validate:"required,uuid"`
	CustomerID int64  `json:"customer_id" validate:"gte=0"`
}

func (GetOrderQuery) RequestType() string { return "orders.get" }
func (GetOrderQuery) Permission() string  { return "orders:read" }
func (q GetOrderQuery) OwnerID() int64    { return q.CustomerID }

// CacheKey includes the scope so customers never share an entry
func (q GetOrderQuery) CacheKey() string      { return OrderCacheKey(q.OrderID, q.CustomerID) }
func (GetOrderQuery) CacheTTL() time.Duration { return 0 }

func (GetOrderQuery) DecodeCached(data []byte) (mediator.Response, error) {
	var dto OrderDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	return dto, nil
}

// OrderCacheKey is the per-scope part of a GetOrderQuery cache key
func OrderCacheKey(orderID string, customerID int64) string {
	return fmt.Sprintf("%s/%d", orderID, customerID)
}

// GetOrderHandler handles the GetOrder query
type GetOrderHandler struct {
	newUnitOfWork order.UnitOfWorkFactory
}

// NewGetOrderHandler creates a new GetOrderHandler
func NewGetOrderHandler(newUnitOfWork order.UnitOfWorkFactory) *GetOrderHandler {
	return &GetOrderHandler{newUnitOfWork: newUnitOfWork}
}

// Handle executes the GetOrder query
func (h *GetOrderHandler) Handle(ctx context.Context, query GetOrderQuery) shared.Result[OrderDTO] {
	o, err := h.newUnitOfWork().Orders().FindByID(ctx, query.OrderID)
	if err != nil {
		return shared.Fail[OrderDTO](err)
	}
	if query.CustomerID != 0 && o.CustomerID() != query.CustomerID {
		return shared.Failure[OrderDTO](shared.NotFoundf("order %s not found", query.OrderID))
	}
	return shared.Success(ToDTO(o))
}
