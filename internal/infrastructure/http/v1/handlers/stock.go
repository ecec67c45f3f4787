package handlers

import (
	"github.com/gin-gonic/gin"

	"farmstock/internal/domain/resource"
	"farmstock/internal/domain/stocklot"
	"farmstock/internal/infrastructure/http/v1/dto"
)

// StockHandler serves the stock lot read surface.
type StockHandler struct {
	*BaseHandler
	resolver *stocklot.Resolver
	repo     stocklot.Repository
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, resolver *stocklot.Resolver, repo stocklot.Repository) *StockHandler {
	return &StockHandler{BaseHandler: base, resolver: resolver, repo: repo}
}

// Query returns lots matching a partial attribute filter plus their total.
// POST /api/v1/stock/lots/query
func (h *StockHandler) Query(c *gin.Context) {
	var req dto.StockQueryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := resource.ParseType(req.ResourceType)
	if err != nil {
		h.Error(c, err)
		return
	}

	lots, total, err := h.resolver.QueryLots(c.Request.Context(), t, resource.Attributes(req.Attributes))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockQueryResponse{
		Lots:          dto.FromStockLots(lots),
		TotalQuantity: total,
	})
}

// Get returns a single lot by id.
// GET /api/v1/stock/lots/:id
func (h *StockHandler) Get(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	lot, err := h.repo.GetByID(c.Request.Context(), lotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockLot(lot))
}
