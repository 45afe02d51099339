package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Status is the lifecycle state of an order
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCancelled Status = "CANCELLED"
)

// Order is the aggregate root for customer orders.
// Totals are integer minor units (cents).
type Order struct {
	id          string
	customerID  int64
	total       int64
	status      Status
	createdAt   time.Time
	cancelledAt *time.Time
	reason      string
	version     int

	events []shared.Event
}

// NewOrder places a pending order and records an OrderCreated event
func NewOrder(customerID, total int64, clock shared.Clock) (*Order, error) {
	if customerID <= 0 {
		return nil, shared.Validation(shared.FieldError{Field: "customer_id", Message: "must be greater than 0"})
	}
	if total <= 0 {
		return nil, shared.Validation(shared.FieldError{Field: "total", Message: "must be greater than 0"})
	}

	now := clock.Now()
	o := &Order{
		id:         uuid.NewString(),
		customerID: customerID,
		total:      total,
		status:     StatusPending,
		createdAt:  now,
	}
	o.record(OrderCreated{
		BaseEvent:  shared.NewBaseEvent(o.id, now),
		CustomerID: customerID,
		Total:      total,
	})
	return o, nil
}

// Rehydrate rebuilds an order from storage without recording events
func Rehydrate(id string, customerID, total int64, status Status, createdAt time.Time, cancelledAt *time.Time, reason string, version int) *Order {
	return &Order{
		id:          id,
		customerID:  customerID,
		total:       total,
		status:      status,
		createdAt:   createdAt,
		cancelledAt: cancelledAt,
		reason:      reason,
		version:     version,
	}
}

func (o *Order) ID() string                 { return o.id }
func (o *Order) CustomerID() int64          { return o.customerID }
func (o *Order) Total() int64               { return o.total }
func (o *Order) Status() Status             { return o.status }
func (o *Order) CreatedAt() time.Time       { return o.createdAt }
func (o *Order) CancelledAt() *time.Time    { return o.cancelledAt }
func (o *Order) CancellationReason() string { return o.reason }

// Version is the persisted revision used for optimistic concurrency
func (o *Order) Version() int { return o.version }

// MarkPersisted records the revision written by the repository
func (o *Order) MarkPersisted(version int) {
	o.version = version
}

func (o *Order) IsCancelled() bool {
	return o.status == StatusCancelled
}

// Cancel moves a pending order to CANCELLED. Cancelling twice is a Conflict.
func (o *Order) Cancel(reason string, clock shared.Clock) error {
	if o.status == StatusCancelled {
		return shared.Conflict(fmt.Sprintf("order %s is already cancelled", o.id))
	}

	now := clock.Now()
	o.status = StatusCancelled
	o.cancelledAt = &now
	o.reason = reason
	o.record(OrderCancelled{
		BaseEvent:  shared.NewBaseEvent(o.id, now),
		CustomerID: o.customerID,
		Reason:     reason,
	})
	return nil
}

func (o *Order) record(e shared.Event) {
	o.events = append(o.events, e)
}

// PullEvents returns the recorded events and clears them
func (o *Order) PullEvents() []shared.Event {
	events := o.events
	o.events = nil
	return events
}
