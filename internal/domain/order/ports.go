package order

import (
	"context"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Repository gives access to orders inside a unit of work.
// Changes are staged and only written by UnitOfWork.SaveChanges.
type Repository interface {
	// FindByID loads an order and tracks it for changes; a missing order is a NotFound error
	FindByID(ctx context.Context, id string) (*Order, error)

	// Add stages a new order for insertion
	Add(ctx context.Context, o *Order) error

	// Remove stages an order for deletion
	Remove(ctx context.Context, o *Order) error

	// Query returns the orders matching spec, oldest first
	Query(ctx context.Context, spec Specification) ([]*Order, error)
}

// UnitOfWork commits staged changes atomically.
// Modified orders are written with optimistic versioning: a concurrent
// update makes SaveChanges fail with a Conflict and nothing is written.
type UnitOfWork interface {
	Orders() Repository

	// SaveChanges commits and returns the domain events raised by the tracked orders
	SaveChanges(ctx context.Context) ([]shared.Event, error)
}

// UnitOfWorkFactory starts a fresh unit of work per request
type UnitOfWorkFactory func() UnitOfWork
