// Package memory provides in-memory repository implementations backed by
// maps and mutexes. They honor the same contracts as the PostgreSQL stores,
// including version-guarded writes, and back the service level tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/domain/resource"
	"farmstock/internal/domain/stocklot"
)

// StockLotRepo is an in-memory stocklot.Repository.
type StockLotRepo struct {
	mu       sync.Mutex
	lots     map[id.ID]*stocklot.StockLot
	variants map[string]id.ID
}

// NewStockLotRepo creates an empty in-memory lot store.
func NewStockLotRepo() *StockLotRepo {
	return &StockLotRepo{
		lots:     make(map[id.ID]*stocklot.StockLot),
		variants: make(map[string]id.ID),
	}
}

// Create inserts a new lot, enforcing variant uniqueness.
func (r *StockLotRepo) Create(_ context.Context, lot *stocklot.StockLot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := lot.VariantKey()
	if _, ok := r.variants[key]; ok {
		return stocklot.ErrDuplicateVariant
	}

	r.lots[lot.ID] = lot.Snapshot()
	r.variants[key] = lot.ID
	return nil
}

// GetByID retrieves a lot by primary key.
func (r *StockLotRepo) GetByID(_ context.Context, lotID id.ID) (*stocklot.StockLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lot, ok := r.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("stock lot", lotID.String())
	}
	return lot.Snapshot(), nil
}

// GetByVariant retrieves the lot for an exact attribute set.
func (r *StockLotRepo) GetByVariant(_ context.Context, t resource.Type, attrs resource.Attributes) (*stocklot.StockLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := attrs.Key(t)
	lotID, ok := r.variants[key]
	if !ok {
		return nil, apperror.NewNotFound("stock lot", key)
	}
	return r.lots[lotID].Snapshot(), nil
}

// ListByFilter returns all lots of a type matching a partial attribute filter.
func (r *StockLotRepo) ListByFilter(_ context.Context, t resource.Type, filter resource.Attributes) ([]*stocklot.StockLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []*stocklot.StockLot{}
	for _, lot := range r.lots {
		if lot.ResourceType != t {
			continue
		}
		if !lot.Attributes.Matches(filter) {
			continue
		}
		matched = append(matched, lot.Snapshot())
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// ApplyQuantity performs the version-guarded write: quantity, note append and
// version bump happen atomically under the store lock.
func (r *StockLotRepo) ApplyQuantity(_ context.Context, lotID id.ID, expectedVersion int64, newQuantity int64, note string) (*stocklot.StockLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lot, ok := r.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("stock lot", lotID.String())
	}
	if lot.Version != expectedVersion {
		return nil, stocklot.ErrVersionConflict
	}

	lot.Quantity = newQuantity
	lot.Notes = append(lot.Notes, note)
	lot.Version++
	lot.UpdatedAt = time.Now().UTC()
	return lot.Snapshot(), nil
}

var _ stocklot.Repository = (*StockLotRepo)(nil)
