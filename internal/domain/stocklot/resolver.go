package stocklot

import (
	"context"

	"farmstock/internal/domain/resource"
)

// Resolver answers read-only availability questions against the lot store.
// It is what the UI consults before a sale is submitted; it never mutates.
type Resolver struct {
	repo Repository
}

// NewResolver creates a new availability resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// FindLot performs an exact-match lookup on the full attribute set.
// An unrecognized combination is NotFound, not an approximation.
func (r *Resolver) FindLot(ctx context.Context, t resource.Type, attrs resource.Attributes) (*StockLot, error) {
	if err := attrs.Validate(t); err != nil {
		return nil, err
	}
	return r.repo.GetByVariant(ctx, t, attrs)
}

// QueryLots returns all lots matching a partial attribute filter together
// with their summed quantity. No match yields an empty list and total 0.
func (r *Resolver) QueryLots(ctx context.Context, t resource.Type, filter resource.Attributes) ([]*StockLot, int64, error) {
	if err := filter.ValidateFilter(t); err != nil {
		return nil, 0, err
	}

	lots, err := r.repo.ListByFilter(ctx, t, filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	for _, lot := range lots {
		total += lot.Quantity
	}

	return lots, total, nil
}

// AvailableQuantity sums quantity across all lots matching a partial filter.
func (r *Resolver) AvailableQuantity(ctx context.Context, t resource.Type, filter resource.Attributes) (int64, error) {
	_, total, err := r.QueryLots(ctx, t, filter)
	return total, err
}
