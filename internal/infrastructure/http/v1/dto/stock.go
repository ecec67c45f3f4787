package dto

import (
	"time"

	"farmstock/internal/domain/stocklot"
)

// --- Stock Lot DTOs ---

// StockLotResponse is the wire form of a stock lot.
type StockLotResponse struct {
	ID           string            `json:"id"`
	ResourceType string            `json:"resourceType"`
	Attributes   map[string]string `json:"attributes"`
	Quantity     int64             `json:"quantity"`
	Notes        []string          `json:"notes"`
	Version      int64             `json:"version"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// FromStockLot creates StockLotResponse from a domain lot.
func FromStockLot(l *stocklot.StockLot) StockLotResponse {
	return StockLotResponse{
		ID:           l.ID.String(),
		ResourceType: string(l.ResourceType),
		Attributes:   l.Attributes,
		Quantity:     l.Quantity,
		Notes:        l.Notes,
		Version:      l.Version,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// FromStockLots maps a slice of domain lots.
func FromStockLots(lots []*stocklot.StockLot) []StockLotResponse {
	out := make([]StockLotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, FromStockLot(l))
	}
	return out
}

// StockQueryRequest asks for lots matching a partial attribute filter.
type StockQueryRequest struct {
	ResourceType string            `json:"resourceType" binding:"required"`
	Attributes   map[string]string `json:"attributes"`
}

// StockQueryResponse carries matching lots plus their summed quantity.
type StockQueryResponse struct {
	Lots          []StockLotResponse `json:"lots"`
	TotalQuantity int64              `json:"totalQuantity"`
}

// InventoryAdjustRequest tops up an inventory lot.
type InventoryAdjustRequest struct {
	Quantity int64  `json:"quantity" binding:"required"`
	Note     string `json:"note"`
}
