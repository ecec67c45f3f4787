package dto

import (
	"time"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/types"
	"farmstock/internal/domain/order"
	"farmstock/internal/domain/resource"
)

// --- Order DTOs ---

// CreateOrderRequest opens a new order shell. Items are added separately so
// each item runs its own stock reconciliation.
type CreateOrderRequest struct {
	BuyerID   string    `json:"buyerId" binding:"required"`
	OrderDate time.Time `json:"orderDate" binding:"required"`
	Notes     string    `json:"notes"`
}

// AddOrderItemRequest adds a line item to an order, deducting stock.
type AddOrderItemRequest struct {
	ResourceType string            `json:"resourceType" binding:"required"`
	Attributes   map[string]string `json:"attributes" binding:"required"`
	Quantity     int64             `json:"quantity" binding:"required"`
	UnitPrice    string            `json:"unitPrice" binding:"required"`
}

// ParsedItem is the validated form of AddOrderItemRequest.
type ParsedItem struct {
	ResourceType resource.Type
	Attributes   resource.Attributes
	Quantity     int64
	UnitPrice    types.Money
}

// Parse validates the raw request fields.
func (r *AddOrderItemRequest) Parse() (ParsedItem, error) {
	var item ParsedItem

	t, err := resource.ParseType(r.ResourceType)
	if err != nil {
		return item, err
	}

	price, err := types.NewMoneyFromString(r.UnitPrice)
	if err != nil {
		return item, apperror.NewValidation("invalid unit price").
			WithDetail("field", "unitPrice").
			WithDetail("value", r.UnitPrice)
	}

	item = ParsedItem{
		ResourceType: t,
		Attributes:   resource.Attributes(r.Attributes),
		Quantity:     r.Quantity,
		UnitPrice:    price,
	}
	return item, nil
}

// OrderItemResponse is the wire form of an order line item.
type OrderItemResponse struct {
	ID           string            `json:"id"`
	OrderID      string            `json:"orderId"`
	ResourceType string            `json:"resourceType"`
	Attributes   map[string]string `json:"attributes"`
	Quantity     int64             `json:"quantity"`
	UnitPrice    string            `json:"unitPrice"`
	TotalPrice   string            `json:"totalPrice"`
	LinkedLotID  *string           `json:"linkedLotId,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// FromOrderItem creates OrderItemResponse from a domain item.
func FromOrderItem(item *order.OrderItem) OrderItemResponse {
	resp := OrderItemResponse{
		ID:           item.ID.String(),
		OrderID:      item.OrderID.String(),
		ResourceType: string(item.ResourceType),
		Attributes:   item.Attributes,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice.String(),
		TotalPrice:   item.TotalPrice.String(),
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt,
	}
	if item.LinkedLotID != nil {
		s := item.LinkedLotID.String()
		resp.LinkedLotID = &s
	}
	return resp
}

// OrderResponse is the wire form of an order with its items.
type OrderResponse struct {
	ID        string              `json:"id"`
	BuyerID   string              `json:"buyerId"`
	OrderDate time.Time           `json:"orderDate"`
	Status    string              `json:"status"`
	Notes     string              `json:"notes,omitempty"`
	Items     []OrderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// FromOrder creates OrderResponse from a domain order.
func FromOrder(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		items = append(items, FromOrderItem(&o.Items[i]))
	}
	return OrderResponse{
		ID:        o.ID.String(),
		BuyerID:   o.BuyerID.String(),
		OrderDate: o.OrderDate,
		Status:    string(o.Status),
		Notes:     o.Notes,
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
