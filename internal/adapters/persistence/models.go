package persistence

import "time"

// OrderModel represents the orders table
type OrderModel struct {
	ID                 string     `gorm:"column:id;primaryKey;type:varchar(36)"`
	CustomerID         int64      `gorm:"column:customer_id;not null;index:idx_orders_customer_status"`
	Total              int64      `gorm:"column:total;not null"`
	Status             string     `gorm:"column:status;not null;type:varchar(16);index:idx_orders_customer_status"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason"`
	Version            int        `gorm:"column:version;not null;default:1"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&OrderModel{},
	}
}
