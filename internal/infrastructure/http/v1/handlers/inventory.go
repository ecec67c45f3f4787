package handlers

import (
	"github.com/gin-gonic/gin"

	"farmstock/internal/domain/reconcile"
	"farmstock/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves inventory item quantity adjustments.
type InventoryHandler struct {
	*BaseHandler
	coordinator *reconcile.Coordinator
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, coordinator *reconcile.Coordinator) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, coordinator: coordinator}
}

// Adjust tops up an inventory item lot.
// PUT /api/v1/inventory/:id
func (h *InventoryHandler) Adjust(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.InventoryAdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lot, err := h.coordinator.AdjustInventory(c.Request.Context(), lotID, req.Quantity, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockLot(lot))
}
