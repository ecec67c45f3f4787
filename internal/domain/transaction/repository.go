package transaction

import (
	"context"
	"time"

	"farmstock/internal/core/id"
)

// ListFilter narrows transaction list queries.
type ListFilter struct {
	Type     *Type
	Category *Category
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Repository persists transaction records. No stock rules live here.
type Repository interface {
	// Create inserts a new transaction record.
	Create(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a transaction. NotFound if absent.
	GetByID(ctx context.Context, txID id.ID) (*Transaction, error)

	// List retrieves transactions, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}
