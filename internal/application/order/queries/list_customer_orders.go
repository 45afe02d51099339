package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// ListCustomerOrdersQuery lists a customer's orders, optionally filtered
type ListCustomerOrdersQuery struct {
	CustomerID int64  `json:"customer_id" validate:"gt=0"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=PENDING CANCELLED"`
	MinTotal   int64  `json:"min_total,omitempty" validate:"gte=0"`
}

func (ListCustomerOrdersQuery) RequestType() string { return "orders.list_by_customer" }
func (ListCustomerOrdersQuery) Permission() string  { return "orders:read" }
func (q ListCustomerOrdersQuery) OwnerID() int64    { return q.CustomerID }

// Specification translates the filters into an order specification
func (q ListCustomerOrdersQuery) Specification() order.Specification {
	specs := []order.Specification{order.ByCustomer(q.CustomerID)}
	if q.Status != "" {
		specs = append(specs, order.WithStatus(order.Status(q.Status)))
	}
	if q.MinTotal > 0 {
		specs = append(specs, order.TotalAtLeast(q.MinTotal))
	}
	return order.And(specs...)
}

// ListCustomerOrdersHandler handles the ListCustomerOrders query
type ListCustomerOrdersHandler struct {
	newUnitOfWork order.UnitOfWorkFactory
}

// NewListCustomerOrdersHandler creates a new ListCustomerOrdersHandler
func NewListCustomerOrdersHandler(newUnitOfWork order.UnitOfWorkFactory) *ListCustomerOrdersHandler {
	return &ListCustomerOrdersHandler{newUnitOfWork: newUnitOfWork}
}

// Handle executes the ListCustomerOrders query
func (h *ListCustomerOrdersHandler) Handle(ctx context.Context, query ListCustomerOrdersQuery) shared.Result[[]OrderDTO] {
	orders, err := h.newUnitOfWork().Orders().Query(ctx, query.Specification())
	if err != nil {
		return shared.Fail[[]OrderDTO](fmt.Errorf("failed to query orders for customer %d: %w", query.CustomerID, err))
	}

	dtos := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, ToDTO(o))
	}
	return shared.Success(dtos)
}
