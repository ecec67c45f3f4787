package order

import (
	"context"

	"farmstock/internal/core/id"
)

// Repository persists orders and their items. No stock rules live here;
// item inserts and deletes are driven by the reconciliation coordinator.
type Repository interface {
	// CreateOrder inserts a new order shell.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrder retrieves an order without items. NotFound if absent.
	GetOrder(ctx context.Context, orderID id.ID) (*Order, error)

	// CreateItem inserts a new order item.
	CreateItem(ctx context.Context, item *OrderItem) error

	// GetItem retrieves an order item. NotFound if absent.
	GetItem(ctx context.Context, itemID id.ID) (*OrderItem, error)

	// ListItems retrieves all items of an order, oldest first.
	ListItems(ctx context.Context, orderID id.ID) ([]*OrderItem, error)

	// DeleteItem removes an order item row.
	DeleteItem(ctx context.Context, itemID id.ID) error
}
