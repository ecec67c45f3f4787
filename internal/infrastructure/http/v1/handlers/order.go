package handlers

import (
	"github.com/gin-gonic/gin"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/domain/order"
	"farmstock/internal/domain/reconcile"
	"farmstock/internal/infrastructure/http/v1/dto"
)

// OrderHandler serves orders and their line items.
type OrderHandler struct {
	*BaseHandler
	coordinator *reconcile.Coordinator
	service     *order.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, coordinator *reconcile.Coordinator, service *order.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, coordinator: coordinator, service: service}
}

// Create opens a new order shell. Items are added one by one so each runs
// its own stock reconciliation.
// POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	buyerID, err := id.Parse(req.BuyerID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid buyer id").
			WithDetail("field", "buyerId").
			WithDetail("value", req.BuyerID))
		return
	}

	o := order.NewOrder(buyerID, req.OrderDate)
	o.Notes = req.Notes

	if err := h.service.Create(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromOrder(o))
}

// Get returns an order with its items.
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// AddItem adds a line item to an order, deducting stock through the
// reconciliation saga.
// POST /api/v1/orders/:id/items
func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddOrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	parsed, err := req.Parse()
	if err != nil {
		h.Error(c, err)
		return
	}

	item, err := h.coordinator.RecordOrderItem(
		c.Request.Context(),
		orderID,
		parsed.ResourceType,
		parsed.Attributes,
		parsed.Quantity,
		parsed.UnitPrice,
	)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromOrderItem(item))
}

// DeleteItem removes a line item, restoring its quantity to stock first.
// DELETE /api/v1/orders/:id/items/:itemId
func (h *OrderHandler) DeleteItem(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseIDParam(c, "itemId")
	if !ok {
		return
	}

	if err := h.coordinator.DeleteOrderItem(c.Request.Context(), orderID, itemID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
