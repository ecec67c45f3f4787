package memory

import (
	"context"
	"sort"
	"sync"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/domain/transaction"
)

// TransactionRepo is an in-memory transaction.Repository.
type TransactionRepo struct {
	mu      sync.Mutex
	records map[id.ID]*transaction.Transaction
}

// NewTransactionRepo creates an empty in-memory transaction store.
func NewTransactionRepo() *TransactionRepo {
	return &TransactionRepo{records: make(map[id.ID]*transaction.Transaction)}
}

// Create inserts a new transaction record.
func (r *TransactionRepo) Create(_ context.Context, tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *tx
	r.records[tx.ID] = &cp
	return nil
}

// GetByID retrieves a transaction by primary key.
func (r *TransactionRepo) GetByID(_ context.Context, txID id.ID) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.records[txID]
	if !ok {
		return nil, apperror.NewNotFound("transaction", txID.String())
	}
	cp := *tx
	return &cp, nil
}

// List retrieves transactions matching the filter, newest first.
func (r *TransactionRepo) List(_ context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []*transaction.Transaction{}
	for _, tx := range r.records {
		if filter.Type != nil && tx.Type != *filter.Type {
			continue
		}
		if filter.Category != nil && tx.Category != *filter.Category {
			continue
		}
		if filter.FromDate != nil && tx.Date.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && tx.Date.After(*filter.ToDate) {
			continue
		}
		cp := *tx
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*transaction.Transaction{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

var _ transaction.Repository = (*TransactionRepo)(nil)
