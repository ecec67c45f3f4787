package stocklot

import (
	"context"
	"errors"

	"farmstock/internal/core/id"
	"farmstock/internal/domain/resource"
)

// ErrVersionConflict is returned by ApplyQuantity when the lot's stored
// version no longer matches the expected one. The Ledger retries on it;
// it never escapes to callers.
var ErrVersionConflict = errors.New("stock lot version conflict")

// Repository is the persistence access layer for stock lots.
// It carries no business rules: the read-with-version / conditional-write
// contract here is what the Ledger builds its optimistic concurrency on.
type Repository interface {
	// Create inserts a new lot. The store enforces uniqueness on
	// (resource_type, attributes); a concurrent insert of the same variant
	// fails with a duplicate error.
	Create(ctx context.Context, lot *StockLot) error

	// GetByID retrieves a lot by primary key. NotFound if absent.
	GetByID(ctx context.Context, lotID id.ID) (*StockLot, error)

	// GetByVariant retrieves the lot for an exact attribute set.
	// No partial matching: an unrecognized combination is NotFound.
	GetByVariant(ctx context.Context, t resource.Type, attrs resource.Attributes) (*StockLot, error)

	// ListByFilter returns all lots of a type matching a partial attribute
	// filter. An empty filter matches every lot of the type. Returns an
	// empty slice, not an error, when nothing matches.
	ListByFilter(ctx context.Context, t resource.Type, filter resource.Attributes) ([]*StockLot, error)

	// ApplyQuantity conditionally writes a new quantity: the write commits
	// only if the stored version still equals expectedVersion. On success
	// the note is appended to the audit log, version is incremented and
	// updated_at refreshed, all in the same write. On a stale version it
	// returns ErrVersionConflict.
	ApplyQuantity(ctx context.Context, lotID id.ID, expectedVersion int64, newQuantity int64, note string) (*StockLot, error)
}

// IsDuplicate reports whether err is the store's unique-violation error.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateVariant)
}

// ErrDuplicateVariant is returned by Create when a lot for the same
// (resource_type, attributes) already exists.
var ErrDuplicateVariant = errors.New("stock lot variant already exists")
