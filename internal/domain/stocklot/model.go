// Package stocklot provides the stock lot register: the persistent quantity
// ledger for farm resources and the consistency rules that guard it.
package stocklot

import (
	"context"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/entity"
	"farmstock/internal/domain/resource"
)

// StockLot is a counted quantity of a specific resource variant.
// One row exists per distinct (resource_type, attributes) combination.
// Lots are never physically deleted; a lot at quantity 0 remains as a
// fulfilled-out record.
type StockLot struct {
	entity.Base

	ResourceType resource.Type       `db:"resource_type" json:"resourceType"`
	Attributes   resource.Attributes `db:"attributes" json:"attributes"`

	// Quantity is a non-negative integer. Every committed write keeps it >= 0.
	Quantity int64 `db:"quantity" json:"quantity"`

	// Notes is the append-only audit log ("Sold 5 on 2025-05-07").
	Notes []string `db:"notes" json:"notes"`
}

// NewStockLot creates a lot for the given variant with the given opening quantity.
func NewStockLot(t resource.Type, attrs resource.Attributes, quantity int64) *StockLot {
	return &StockLot{
		Base:         entity.NewBase(),
		ResourceType: t,
		Attributes:   attrs.Clone(),
		Quantity:     quantity,
		Notes:        []string{},
	}
}

// Validate implements entity.Validatable.
func (l *StockLot) Validate(ctx context.Context) error {
	if err := l.Attributes.Validate(l.ResourceType); err != nil {
		return err
	}
	if l.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative").
			WithDetail("field", "quantity").
			WithDetail("value", l.Quantity)
	}
	return nil
}

// VariantKey returns the deterministic identity key of the lot's variant.
func (l *StockLot) VariantKey() string {
	return l.Attributes.Key(l.ResourceType)
}

// Snapshot returns a detached copy safe to hand to callers.
func (l *StockLot) Snapshot() *StockLot {
	cp := *l
	cp.Attributes = l.Attributes.Clone()
	cp.Notes = append([]string(nil), l.Notes...)
	return &cp
}
