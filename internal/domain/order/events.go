package order

import "github.com/andrescamacho/mediator-go/internal/domain/shared"

const (
	EventOrderCreated   = "orders.created"
	EventOrderCancelled = "orders.cancelled"
)

// OrderCreated is raised when a new order is placed
type OrderCreated struct {
	shared.BaseEvent
	CustomerID int64 `json:"customer_id"`
	Total      int64 `json:"total"`
}

func (OrderCreated) EventType() string { return EventOrderCreated }

// OrderCancelled is raised when a pending order is cancelled
type OrderCancelled struct {
	shared.BaseEvent
	CustomerID int64  `json:"customer_id"`
	Reason     string `json:"reason,omitempty"`
}

func (OrderCancelled) EventType() string { return EventOrderCancelled }
