package shared

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event raised by an aggregate.
//
// EventType must return a constant so that the zero value of a concrete
// event reports the same type as a populated one; typed subscriptions rely on it.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseEvent carries the fields every event shares. Embed it in concrete events
// and add an EventType method.
type BaseEvent struct {
	ID        string    `json:"event_id"`
	Aggregate string    `json:"aggregate_id"`
	Timestamp time.Time `json:"occurred_at"`
}

// NewBaseEvent stamps a fresh event id
func NewBaseEvent(aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Aggregate: aggregateID,
		Timestamp: at,
	}
}

func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }
