package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/mediator-go/internal/adapters/persistence"
	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
	"github.com/andrescamacho/mediator-go/test/helpers"
)

func seedOrder(t *testing.T, factory order.UnitOfWorkFactory, customerID, total int64, clock shared.Clock) *order.Order {
	t.Helper()
	o, err := order.NewOrder(customerID, total, clock)
	require.NoError(t, err)

	uow := factory()
	require.NoError(t, uow.Orders().Add(context.Background(), o))
	_, err = uow.SaveChanges(context.Background())
	require.NoError(t, err)
	return o
}

func TestGormUnitOfWork_AddAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	o, err := order.NewOrder(7, 100, clock)
	require.NoError(t, err)
	uow := factory()

	// Act
	require.NoError(t, uow.Orders().Add(context.Background(), o))
	events, err := uow.SaveChanges(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.EventOrderCreated, events[0].EventType())
	assert.Equal(t, 1, o.Version())

	found, err := factory().Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(7), found.CustomerID())
	assert.Equal(t, int64(100), found.Total())
	assert.Equal(t, order.StatusPending, found.Status())
	assert.True(t, found.CreatedAt().Equal(clock.Now()))
	assert.Empty(t, found.PullEvents())
}

func TestGormUnitOfWork_FindReturnsTrackedInstance(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	o := seedOrder(t, factory, 7, 100, shared.NewMockClock(time.Time{}))
	uow := factory()

	// Act
	first, err := uow.Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)
	second, err := uow.Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)

	// Assert
	assert.Same(t, first, second)
}

func TestGormUnitOfWork_FindMissingOrder(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	uow := persistence.NewGormUnitOfWork(db)

	// Act
	_, err := uow.Orders().FindByID(context.Background(), "5f0c6a43-9a0e-4c55-8f57-2b1c3c9b0d11")

	// Assert
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestGormUnitOfWork_SavesDirtyOrderAndBumpsVersion(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	clock := shared.NewMockClock(time.Time{})
	o := seedOrder(t, factory, 7, 100, clock)
	uow := factory()
	loaded, err := uow.Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.Cancel("changed my mind", clock))

	// Act
	events, err := uow.SaveChanges(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.EventOrderCancelled, events[0].EventType())
	assert.Equal(t, 2, loaded.Version())

	reloaded, err := factory().Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, reloaded.Status())
	assert.Equal(t, "changed my mind", reloaded.CancellationReason())
	assert.NotNil(t, reloaded.CancelledAt())
	assert.Equal(t, 2, reloaded.Version())
}

func TestGormUnitOfWork_ReadOnlyLoadDoesNotWrite(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	o := seedOrder(t, factory, 7, 100, shared.NewMockClock(time.Time{}))
	uow := factory()
	_, err := uow.Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)

	// Act
	events, err := uow.SaveChanges(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, events)
	var model persistence.OrderModel
	require.NoError(t, db.First(&model, "id = ?", o.ID()).Error)
	assert.Equal(t, 1, model.Version)
}

func TestGormUnitOfWork_ConcurrentModificationConflicts(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	clock := shared.NewMockClock(time.Time{})
	o := seedOrder(t, factory, 7, 100, clock)

	first, second := factory(), factory()
	a, err := first.Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)
	b, err := second.Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)
	require.NoError(t, a.Cancel("first", clock))
	require.NoError(t, b.Cancel("second", clock))
	_, err = first.SaveChanges(context.Background())
	require.NoError(t, err)

	// Act
	_, err = second.SaveChanges(context.Background())

	// Assert
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	reloaded, err := factory().Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)
	assert.Equal(t, "first", reloaded.CancellationReason())
}

func TestGormUnitOfWork_AddDuplicateConflicts(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	o := seedOrder(t, factory, 7, 100, shared.NewMockClock(time.Time{}))
	duplicate := order.Rehydrate(o.ID(), 7, 100, order.StatusPending, o.CreatedAt(), nil, "", 0)
	uow := factory()
	require.NoError(t, uow.Orders().Add(context.Background(), duplicate))

	// Act
	_, err := uow.SaveChanges(context.Background())

	// Assert
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestGormUnitOfWork_Remove(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	o := seedOrder(t, factory, 7, 100, shared.NewMockClock(time.Time{}))
	uow := factory()
	loaded, err := uow.Orders().FindByID(context.Background(), o.ID())
	require.NoError(t, err)
	require.NoError(t, uow.Orders().Remove(context.Background(), loaded))

	// Act
	_, err = uow.SaveChanges(context.Background())

	// Assert
	require.NoError(t, err)
	_, err = factory().Orders().FindByID(context.Background(), o.ID())
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestGormUnitOfWork_RemoveUnsavedOrderNeverWrites(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	uow := persistence.NewGormUnitOfWork(db)
	o, err := order.NewOrder(7, 100, shared.NewMockClock(time.Time{}))
	require.NoError(t, err)
	require.NoError(t, uow.Orders().Add(context.Background(), o))
	require.NoError(t, uow.Orders().Remove(context.Background(), o))

	// Act
	events, err := uow.SaveChanges(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, events)
	var count int64
	require.NoError(t, db.Model(&persistence.OrderModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormOrderRepository_QueryAppliesSpecification(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	clock := shared.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	small := seedOrder(t, factory, 7, 50, clock)
	clock.Advance(time.Minute)
	large := seedOrder(t, factory, 7, 500, clock)
	clock.Advance(time.Minute)
	cancelled := seedOrder(t, factory, 7, 900, clock)
	seedOrder(t, factory, 8, 1000, clock)

	uow := factory()
	c, err := uow.Orders().FindByID(context.Background(), cancelled.ID())
	require.NoError(t, err)
	require.NoError(t, c.Cancel("", clock))
	_, err = uow.SaveChanges(context.Background())
	require.NoError(t, err)

	spec := order.And(order.ByCustomer(7), order.WithStatus(order.StatusPending))

	// Act
	orders, err := factory().Orders().Query(context.Background(), spec)

	// Assert
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, small.ID(), orders[0].ID())
	assert.Equal(t, large.ID(), orders[1].ID())

	orders, err = factory().Orders().Query(context.Background(), order.And(order.ByCustomer(7), order.TotalAtLeast(100)))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, large.ID(), orders[0].ID())
	assert.Equal(t, cancelled.ID(), orders[1].ID())
	for _, o := range orders {
		assert.True(t, order.TotalAtLeast(100).IsSatisfiedBy(o))
	}
}

func TestGormOrderRepository_QueryWithEmptySpecificationReturnsAll(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	factory := persistence.NewGormUnitOfWorkFactory(db)
	clock := shared.NewMockClock(time.Time{})
	seedOrder(t, factory, 7, 50, clock)
	seedOrder(t, factory, 8, 60, clock)

	// Act
	orders, err := factory().Orders().Query(context.Background(), order.And())

	// Assert
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
