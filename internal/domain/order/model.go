// Package order provides customer orders and their fulfillment lines.
package order

import (
	"context"
	"time"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/entity"
	"farmstock/internal/core/id"
	"farmstock/internal/core/types"
	"farmstock/internal/domain/resource"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ItemStatus is the reconciliation state of an order line.
type ItemStatus string

const (
	ItemStatusPending ItemStatus = "pending"
	ItemStatusApplied ItemStatus = "applied"
)

// Order is the fulfillment container; stock only moves through its items.
type Order struct {
	entity.Base

	// BuyerID references the buyer by id only.
	BuyerID   id.ID     `db:"buyer_id" json:"buyerId"`
	OrderDate time.Time `db:"order_date" json:"orderDate"`
	Status    Status    `db:"status" json:"status"`
	Notes     string    `db:"order_notes" json:"notes,omitempty"`

	// Items are loaded on demand, not persisted through the order row.
	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// NewOrder creates an open order for a buyer.
func NewOrder(buyerID id.ID, orderDate time.Time) *Order {
	return &Order{
		Base:      entity.NewBase(),
		BuyerID:   buyerID,
		OrderDate: orderDate,
		Status:    StatusOpen,
	}
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if id.IsNil(o.BuyerID) {
		return apperror.NewValidation("buyer is required").
			WithDetail("field", "buyerId")
	}
	if o.OrderDate.IsZero() {
		return apperror.NewValidation("order date is required").
			WithDetail("field", "orderDate")
	}
	return nil
}

// OrderItem is one fulfillment line: a quantity of a resource variant sold
// at a unit price, linked to the lot it was deducted from.
type OrderItem struct {
	entity.Base

	OrderID id.ID `db:"order_id" json:"orderId"`

	ResourceType resource.Type       `db:"resource_type" json:"resourceType"`
	Attributes   resource.Attributes `db:"attributes" json:"attributes"`

	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// TotalPrice = Quantity * UnitPrice, computed exactly in decimal.
	TotalPrice types.Money `db:"total_price" json:"totalPrice"`

	// LinkedLotID is set once reconciliation succeeds.
	LinkedLotID *id.ID `db:"linked_lot_id" json:"linkedLotId,omitempty"`

	Status ItemStatus `db:"status" json:"status"`
}

// NewOrderItem creates a pending item with its total computed.
func NewOrderItem(orderID id.ID, t resource.Type, attrs resource.Attributes, quantity int64, unitPrice types.Money) *OrderItem {
	return &OrderItem{
		Base:         entity.NewBase(),
		OrderID:      orderID,
		ResourceType: t,
		Attributes:   attrs.Clone(),
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		TotalPrice:   types.LineTotal(quantity, unitPrice),
		Status:       ItemStatusPending,
	}
}

// Validate implements entity.Validatable.
func (i *OrderItem) Validate(ctx context.Context) error {
	if id.IsNil(i.OrderID) {
		return apperror.NewValidation("order is required").
			WithDetail("field", "orderId")
	}
	if i.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", i.Quantity)
	}
	if !i.UnitPrice.IsPositive() {
		return apperror.NewValidation("unit price must be positive").
			WithDetail("field", "unitPrice")
	}
	return i.Attributes.Validate(i.ResourceType)
}
