package queries

import (
	"time"

	"github.com/andrescamacho/mediator-go/internal/domain/order"
)

// OrderDTO is the read model returned by order queries
type OrderDTO struct {
	ID                 string     `json:"id"`
	CustomerID         int64      `json:"customer_id"`
	Total              int64      `json:"total"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
}

// ToDTO converts the aggregate into its read model
func ToDTO(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:                 o.ID(),
		CustomerID:         o.CustomerID(),
		Total:              o.Total(),
		Status:             string(o.Status()),
		CreatedAt:          o.CreatedAt(),
		CancelledAt:        o.CancelledAt(),
		CancellationReason: o.CancellationReason(),
	}
}
