package order

import (
	"context"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/pkg/logger"
)

// Service provides order shell operations and reads.
// Item writes go through the reconciliation coordinator.
type Service struct {
	repo Repository
}

// NewService creates a new order service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new open order.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return err
	}
	logger.Info(ctx, "order created", "order_id", o.ID, "buyer_id", o.BuyerID)
	return nil
}

// GetByID retrieves an order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, err
	}

	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = make([]OrderItem, len(items))
	for i, item := range items {
		o.Items[i] = *item
	}

	return o, nil
}
