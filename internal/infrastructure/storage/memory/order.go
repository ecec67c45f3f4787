package memory

import (
	"context"
	"sort"
	"sync"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/domain/order"
)

// OrderRepo is an in-memory order.Repository.
type OrderRepo struct {
	mu     sync.Mutex
	orders map[id.ID]*order.Order
	items  map[id.ID]*order.OrderItem
}

// NewOrderRepo creates an empty in-memory order store.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{
		orders: make(map[id.ID]*order.Order),
		items:  make(map[id.ID]*order.OrderItem),
	}
}

// CreateOrder inserts a new order shell.
func (r *OrderRepo) CreateOrder(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

// GetOrder retrieves an order without its items.
func (r *OrderRepo) GetOrder(_ context.Context, orderID id.ID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	cp := *o
	return &cp, nil
}

// CreateItem inserts a new order item row.
func (r *OrderRepo) CreateItem(_ context.Context, item *order.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *item
	r.items[item.ID] = &cp
	return nil
}

// GetItem retrieves an order item by primary key.
func (r *OrderRepo) GetItem(_ context.Context, itemID id.ID) (*order.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("order item", itemID.String())
	}
	cp := *item
	return &cp, nil
}

// ListItems retrieves all items of an order, oldest first.
func (r *OrderRepo) ListItems(_ context.Context, orderID id.ID) ([]*order.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []*order.OrderItem{}
	for _, item := range r.items {
		if item.OrderID != orderID {
			continue
		}
		cp := *item
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// DeleteItem removes an order item row.
func (r *OrderRepo) DeleteItem(_ context.Context, itemID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[itemID]; !ok {
		return apperror.NewNotFound("order item", itemID.String())
	}
	delete(r.items, itemID)
	return nil
}

var _ order.Repository = (*OrderRepo)(nil)
