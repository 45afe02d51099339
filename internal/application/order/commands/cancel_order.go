package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// CancelOrderCommand cancels a pending order.
// CustomerID scopes the command to one customer's orders; zero means unscoped (admin).
type CancelOrderCommand struct {
	OrderID    string `json:"order_id" validate:"required,uuid"`
	CustomerID int64  `json:"customer_id" validate:"gte=0"`
	Reason     string `json:"reason,omitempty" validate:"max=200"`
}

func (CancelOrderCommand) RequestType() string { return "orders.cancel" }
func (CancelOrderCommand) Permission() string  { return "orders:cancel" }
func (c CancelOrderCommand) OwnerID() int64    { return c.CustomerID }

// CancelOrderHandler handles the CancelOrder command
type CancelOrderHandler struct {
	newUnitOfWork order.UnitOfWorkFactory
	events        mediator.Publisher
	clock         shared.Clock
}

// NewCancelOrderHandler creates a new CancelOrderHandler
func NewCancelOrderHandler(
	newUnitOfWork order.UnitOfWorkFactory,
	events mediator.Publisher,
	clock shared.Clock,
) *CancelOrderHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &CancelOrderHandler{
		newUnitOfWork: newUnitOfWork,
		events:        events,
		clock:         clock,
	}
}

// Handle executes the CancelOrder command
func (h *CancelOrderHandler) Handle(ctx context.Context, cmd CancelOrderCommand) shared.Result[shared.Unit] {
	uow := h.newUnitOfWork()

	o, err := uow.Orders().FindByID(ctx, cmd.OrderID)
	if err != nil {
		return shared.Fail[shared.Unit](err)
	}

	if cmd.CustomerID != 0 && o.CustomerID() != cmd.CustomerID {
		return shared.Failure[shared.Unit](
			shared.Forbidden(fmt.Sprintf("order %s belongs to another customer", o.ID())))
	}

	if err := o.Cancel(cmd.Reason, h.clock); err != nil {
		return shared.Fail[shared.Unit](err)
	}

	events, err := uow.SaveChanges(ctx)
	if err != nil {
		return shared.Fail[shared.Unit](fmt.Errorf("failed to save order %s: %w", o.ID(), err))
	}

	dispatch(ctx, h.events, events)

	return shared.Success(shared.Unit{})
}
