package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/mediator-go/internal/domain/order"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// GormUnitOfWork implements order.UnitOfWork using GORM.
// Loaded and added orders are tracked; SaveChanges writes them in one transaction.
type GormUnitOfWork struct {
	db     *gorm.DB
	orders *GormOrderRepository
}

// NewGormUnitOfWork starts a unit of work over db
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{
		db: db,
		orders: &GormOrderRepository{
			db:        db,
			tracked:   make(map[string]*order.Order),
			snapshots: make(map[string]OrderModel),
		},
	}
}

// NewGormUnitOfWorkFactory returns a factory for request-scoped units of work
func NewGormUnitOfWorkFactory(db *gorm.DB) order.UnitOfWorkFactory {
	return func() order.UnitOfWork {
		return NewGormUnitOfWork(db)
	}
}

func (u *GormUnitOfWork) Orders() order.Repository {
	return u.orders
}

// SaveChanges commits staged inserts, updates and deletes atomically.
// An update whose version no longer matches the row fails with a Conflict.
func (u *GormUnitOfWork) SaveChanges(ctx context.Context) ([]shared.Event, error) {
	r := u.orders

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range r.added {
			model := orderToModel(o)
			model.Version = 1
			if err := tx.Create(model).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return shared.Conflict(fmt.Sprintf("order %s already exists", o.ID()))
				}
				return fmt.Errorf("failed to insert order %s: %w", o.ID(), err)
			}
		}

		for _, id := range r.dirty() {
			o := r.tracked[id]
			model := orderToModel(o)
			result := tx.Model(&OrderModel{}).
				Where("id = ? AND version = ?", o.ID(), o.Version()).
				Updates(map[string]interface{}{
					"status":              model.Status,
					"total":               model.Total,
					"cancelled_at":        model.CancelledAt,
					"cancellation_reason": model.CancellationReason,
					"version":             o.Version() + 1,
				})
			if result.Error != nil {
				return fmt.Errorf("failed to update order %s: %w", o.ID(), result.Error)
			}
			if result.RowsAffected == 0 {
				return shared.Conflict(fmt.Sprintf("order %s was modified concurrently", o.ID())).
					WithMetadata("order_id", o.ID())
			}
		}

		for _, o := range r.removed {
			result := tx.Where("id = ? AND version = ?", o.ID(), o.Version()).Delete(&OrderModel{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete order %s: %w", o.ID(), result.Error)
			}
			if result.RowsAffected == 0 {
				return shared.Conflict(fmt.Sprintf("order %s was modified concurrently", o.ID()))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// versions only advance once the transaction is durable
	var events []shared.Event
	for _, o := range r.added {
		o.MarkPersisted(1)
		events = append(events, o.PullEvents()...)
	}
	for _, id := range r.dirty() {
		o := r.tracked[id]
		o.MarkPersisted(o.Version() + 1)
		events = append(events, o.PullEvents()...)
	}
	for _, o := range r.removed {
		events = append(events, o.PullEvents()...)
	}
	r.reset()
	return events, nil
}

// GormOrderRepository implements order.Repository inside a GormUnitOfWork
type GormOrderRepository struct {
	db *gorm.DB

	tracked   map[string]*order.Order
	snapshots map[string]OrderModel
	loadOrder []string
	added     []*order.Order
	removed   []*order.Order
}

// FindByID retrieves an order by ID, returning the tracked instance when already loaded
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	if o, ok := r.tracked[id]; ok {
		return o, nil
	}

	var model OrderModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NotFoundf("order %s not found", id)
		}
		return nil, fmt.Errorf("failed to find order: %w", result.Error)
	}

	return r.load(&model), nil
}

// Add stages a new order
func (r *GormOrderRepository) Add(ctx context.Context, o *order.Order) error {
	if o == nil {
		return shared.InvalidState("cannot add a nil order")
	}
	if _, ok := r.tracked[o.ID()]; ok {
		return shared.Conflict(fmt.Sprintf("order %s is already tracked", o.ID()))
	}
	r.added = append(r.added, o)
	r.track(o)
	return nil
}

// Remove stages an order for deletion
func (r *GormOrderRepository) Remove(ctx context.Context, o *order.Order) error {
	if o == nil {
		return shared.InvalidState("cannot remove a nil order")
	}
	if r.isAdded(o.ID()) {
		// never written, just forget it
		r.added = removeOrder(r.added, o.ID())
		delete(r.tracked, o.ID())
		return nil
	}
	r.track(o)
	r.removed = append(r.removed, o)
	return nil
}

// Query retrieves the orders matching spec, oldest first
func (r *GormOrderRepository) Query(ctx context.Context, spec order.Specification) ([]*order.Order, error) {
	query := r.db.WithContext(ctx).Model(&OrderModel{})
	query, err := applyCriteria(query, spec.Criteria())
	if err != nil {
		return nil, err
	}

	var models []OrderModel
	if err := query.Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]*order.Order, 0, len(models))
	for i := range models {
		if o, ok := r.tracked[models[i].ID]; ok {
			orders = append(orders, o)
			continue
		}
		orders = append(orders, r.load(&models[i]))
	}
	return orders, nil
}

func (r *GormOrderRepository) track(o *order.Order) *order.Order {
	if _, ok := r.tracked[o.ID()]; !ok {
		r.tracked[o.ID()] = o
		r.loadOrder = append(r.loadOrder, o.ID())
	}
	return o
}

// load rehydrates a row and remembers its state for change detection
func (r *GormOrderRepository) load(model *OrderModel) *order.Order {
	r.snapshots[model.ID] = *model
	return r.track(modelToOrder(model))
}

// dirty lists loaded orders whose state differs from what was read, in load order
func (r *GormOrderRepository) dirty() []string {
	var ids []string
	for _, id := range r.loadOrder {
		if r.isAdded(id) || r.isRemoved(id) {
			continue
		}
		snapshot, ok := r.snapshots[id]
		if !ok || *orderToModel(r.tracked[id]) != snapshot {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *GormOrderRepository) isAdded(id string) bool {
	for _, o := range r.added {
		if o.ID() == id {
			return true
		}
	}
	return false
}

func (r *GormOrderRepository) isRemoved(id string) bool {
	for _, o := range r.removed {
		if o.ID() == id {
			return true
		}
	}
	return false
}

func (r *GormOrderRepository) reset() {
	for _, o := range r.removed {
		delete(r.tracked, o.ID())
		delete(r.snapshots, o.ID())
	}
	for id, o := range r.tracked {
		r.snapshots[id] = *orderToModel(o)
	}
	kept := r.loadOrder[:0]
	for _, id := range r.loadOrder {
		if _, ok := r.tracked[id]; ok {
			kept = append(kept, id)
		}
	}
	r.loadOrder = kept
	r.added = nil
	r.removed = nil
}

func removeOrder(orders []*order.Order, id string) []*order.Order {
	out := orders[:0]
	for _, o := range orders {
		if o.ID() != id {
			out = append(out, o)
		}
	}
	return out
}

// applyCriteria translates specification criteria into WHERE clauses
func applyCriteria(query *gorm.DB, criteria []order.Criterion) (*gorm.DB, error) {
	for _, c := range criteria {
		column, ok := criterionColumns[c.Field]
		if !ok {
			return nil, shared.InvalidState(fmt.Sprintf("unsupported order field %q", c.Field))
		}
		switch c.Op {
		case order.OpEq:
			query = query.Where(column+" = ?", c.Value)
		case order.OpGte:
			query = query.Where(column+" >= ?", c.Value)
		default:
			return nil, shared.InvalidState(fmt.Sprintf("unsupported operator %q", c.Op))
		}
	}
	return query, nil
}

var criterionColumns = map[order.Field]string{
	order.FieldCustomerID: "customer_id",
	order.FieldStatus:     "status",
	order.FieldTotal:      "total",
}

func orderToModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:                 o.ID(),
		CustomerID:         o.CustomerID(),
		Total:              o.Total(),
		Status:             string(o.Status()),
		CreatedAt:          o.CreatedAt(),
		CancelledAt:        o.CancelledAt(),
		CancellationReason: o.CancellationReason(),
		Version:            o.Version(),
	}
}

func modelToOrder(model *OrderModel) *order.Order {
	return order.Rehydrate(
		model.ID,
		model.CustomerID,
		model.Total,
		order.Status(model.Status),
		model.CreatedAt,
		model.CancelledAt,
		model.CancellationReason,
		model.Version,
	)
}
