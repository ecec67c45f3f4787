package transaction

import (
	"context"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
)

// Service provides read access to transaction records.
// Writes go through the reconciliation coordinator, never directly here.
type Service struct {
	repo Repository
}

// NewService creates a new transaction read service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByID retrieves a transaction by id.
func (s *Service) GetByID(ctx context.Context, txID id.ID) (*Transaction, error) {
	tx, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("transaction", txID.String())
		}
		return nil, err
	}
	return tx, nil
}

// List retrieves transactions matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
