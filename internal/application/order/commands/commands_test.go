package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/mediator-go/internal/adapters/persistence"
	"github.com/andrescamacho/mediator-go/internal/application/order/commands"
	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
	"github.com/andrescamacho/mediator-go/test/helpers"
)

func setup(t *testing.T) (order.UnitOfWorkFactory, *helpers.RecordingPublisher, *shared.MockClock) {
	t.Helper()
	db := helpers.NewTestDB(t)
	return persistence.NewGormUnitOfWorkFactory(db),
		helpers.NewRecordingPublisher(),
		shared.NewMockClock(time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC))
}

func createOrder(t *testing.T, uow order.UnitOfWorkFactory, customerID int64) string {
	t.Helper()
	handler := commands.NewCreateOrderHandler(uow, nil, nil)
	id, err := handler.Handle(context.Background(), commands.CreateOrderCommand{CustomerID: customerID, Total: 100}).Value()
	require.NoError(t, err)
	return id
}

func TestCreateOrderHandler_PersistsAndPublishes(t *testing.T) {
	// Arrange
	uow, events, clock := setup(t)
	handler := commands.NewCreateOrderHandler(uow, events, clock)

	// Act
	result := handler.Handle(context.Background(), commands.CreateOrderCommand{CustomerID: 7, Total: 100})

	// Assert
	id, err := result.Value()
	require.NoError(t, err)
	stored, err := uow().Orders().FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.CustomerID())
	assert.True(t, stored.CreatedAt().Equal(clock.Now()))

	published := events.Events()
	require.Len(t, published, 1)
	created, ok := published[0].(order.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, id, created.AggregateID())
	assert.Equal(t, int64(100), created.Total)
}

func TestCreateOrderHandler_DomainValidation(t *testing.T) {
	// Arrange
	uow, events, clock := setup(t)
	handler := commands.NewCreateOrderHandler(uow, events, clock)

	// Act
	result := handler.Handle(context.Background(), commands.CreateOrderCommand{CustomerID: 0, Total: 100})

	// Assert
	require.True(t, result.IsFailure())
	assert.Equal(t, shared.KindValidation, result.Error().Kind)
	assert.Empty(t, events.Events())
}

func TestCreateOrderHandler_SubscriberFailureDoesNotFailCommand(t *testing.T) {
	// Arrange
	uow, events, clock := setup(t)
	events.FailWith(errors.New("subscriber down"))
	handler := commands.NewCreateOrderHandler(uow, events, clock)

	// Act
	result := handler.Handle(context.Background(), commands.CreateOrderCommand{CustomerID: 7, Total: 100})

	// Assert
	assert.True(t, result.IsSuccess())
	assert.Len(t, events.Events(), 1)
}

func TestCancelOrderHandler_CancelsAndPublishes(t *testing.T) {
	// Arrange
	uow, events, clock := setup(t)
	id := createOrder(t, uow, 7)
	handler := commands.NewCancelOrderHandler(uow, events, clock)

	// Act
	result := handler.Handle(context.Background(), commands.CancelOrderCommand{OrderID: id, CustomerID: 7, Reason: "too slow"})

	// Assert
	require.True(t, result.IsSuccess())
	stored, err := uow().Orders().FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stored.IsCancelled())
	assert.Equal(t, "too slow", stored.CancellationReason())
	assert.Equal(t, []string{order.EventOrderCancelled}, events.EventTypes())
}

func TestCancelOrderHandler_Failures(t *testing.T) {
	uow, events, clock := setup(t)
	id := createOrder(t, uow, 7)
	handler := commands.NewCancelOrderHandler(uow, events, clock)

	tests := []struct {
		name string
		cmd  commands.CancelOrderCommand
		want shared.ErrorKind
	}{
		{"missing order", commands.CancelOrderCommand{OrderID: "a3f1c2d4-0000-4000-8000-000000000000"}, shared.KindNotFound},
		{"another customer's order", commands.CancelOrderCommand{OrderID: id, CustomerID: 8}, shared.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := handler.Handle(context.Background(), tt.cmd)
			require.True(t, result.IsFailure())
			assert.Equal(t, tt.want, result.Error().Kind)
		})
	}
	assert.Empty(t, events.Events())
}

func TestCancelOrderHandler_AlreadyCancelledConflicts(t *testing.T) {
	// Arrange
	uow, events, clock := setup(t)
	id := createOrder(t, uow, 7)
	handler := commands.NewCancelOrderHandler(uow, events, clock)
	require.True(t, handler.Handle(context.Background(), commands.CancelOrderCommand{OrderID: id}).IsSuccess())

	// Act
	result := handler.Handle(context.Background(), commands.CancelOrderCommand{OrderID: id})

	// Assert
	require.True(t, result.IsFailure())
	assert.Equal(t, shared.KindConflict, result.Error().Kind)
	assert.Len(t, events.Events(), 1)
}

func TestCreateOrderRules(t *testing.T) {
	rules := commands.CreateOrderRules()

	assert.Empty(t, rules.Validate(context.Background(), commands.CreateOrderCommand{CustomerID: 1, Total: commands.MaxOrderTotal}))

	failures := rules.Validate(context.Background(), commands.CreateOrderCommand{CustomerID: 1, Total: commands.MaxOrderTotal + 1})
	require.Len(t, failures, 1)
	assert.Equal(t, "total", failures[0].Field)

	assert.Empty(t, rules.Validate(context.Background(), commands.CancelOrderCommand{}))
}
