package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/application/pipeline"
	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// CreateOrderCommand places a new order for a customer. Total is in cents.
type CreateOrderCommand struct {
	CustomerID int64 `json:"customer_id" validate:"gt=0"`
	Total      int64 `json:"total" validate:"gt=0"`
}

func (CreateOrderCommand) RequestType() string { return "orders.create" }
func (CreateOrderCommand) Permission() string  { return "orders:create" }
func (c CreateOrderCommand) OwnerID() int64    { return c.CustomerID }

// CreateOrderHandler handles the CreateOrder command
type CreateOrderHandler struct {
	newUnitOfWork order.UnitOfWorkFactory
	events        mediator.Publisher
	clock         shared.Clock
}

// NewCreateOrderHandler creates a new CreateOrderHandler
func NewCreateOrderHandler(
	newUnitOfWork order.UnitOfWorkFactory,
	events mediator.Publisher,
	clock shared.Clock,
) *CreateOrderHandler {
	// Default to real clock if not provided
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &CreateOrderHandler{
		newUnitOfWork: newUnitOfWork,
		events:        events,
		clock:         clock,
	}
}

// Handle executes the CreateOrder command and responds with the new order id
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) shared.Result[string] {
	o, err := order.NewOrder(cmd.CustomerID, cmd.Total, h.clock)
	if err != nil {
		return shared.Fail[string](err)
	}

	uow := h.newUnitOfWork()
	if err := uow.Orders().Add(ctx, o); err != nil {
		return shared.Fail[string](fmt.Errorf("failed to stage order: %w", err))
	}

	events, err := uow.SaveChanges(ctx)
	if err != nil {
		return shared.Fail[string](fmt.Errorf("failed to save order: %w", err))
	}

	dispatch(ctx, h.events, events)

	return shared.Success(o.ID())
}

// MaxOrderTotal caps a single order, in cents
const MaxOrderTotal int64 = 10_000_000

// CreateOrderRules holds the business rules the struct tags cannot express
func CreateOrderRules() *pipeline.RuleSet[CreateOrderCommand] {
	return pipeline.NewRuleSet[CreateOrderCommand]().
		Add("total", func(c CreateOrderCommand) string {
			if c.Total > MaxOrderTotal {
				return fmt.Sprintf("must not exceed %d", MaxOrderTotal)
			}
			return ""
		})
}
