package record_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/domain/order"
	"farmstock/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

var orderColumns = []string{
	"id", "buyer_id", "order_date", "status", "order_notes",
	"version", "created_at", "updated_at",
}

var orderItemColumns = []string{
	"id", "order_id", "resource_type", "attributes", "quantity",
	"unit_price", "total_price", "linked_lot_id", "status",
	"version", "created_at", "updated_at",
}

// OrderRepo implements order.Repository on PostgreSQL.
type OrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateOrder inserts a new order shell. Items are persisted separately.
func (r *OrderRepo) CreateOrder(ctx context.Context, o *order.Order) error {
	q := r.builder.Insert(ordersTable).
		Columns(orderColumns...).
		Values(
			o.ID, o.BuyerID, o.OrderDate, o.Status, o.Notes,
			o.Version, o.CreatedAt, o.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetOrder retrieves an order without its items.
func (r *OrderRepo) GetOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o order.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &o, nil
}

// CreateItem inserts a new order item row.
func (r *OrderRepo) CreateItem(ctx context.Context, item *order.OrderItem) error {
	attrs, err := json.Marshal(item.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	q := r.builder.Insert(orderItemsTable).
		Columns(orderItemColumns...).
		Values(
			item.ID, item.OrderID, item.ResourceType, attrs, item.Quantity,
			item.UnitPrice, item.TotalPrice, item.LinkedLotID, item.Status,
			item.Version, item.CreatedAt, item.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}

	return nil
}

// GetItem retrieves an order item by primary key.
func (r *OrderRepo) GetItem(ctx context.Context, itemID id.ID) (*order.OrderItem, error) {
	q := r.builder.Select(orderItemColumns...).
		From(orderItemsTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item order.OrderItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order item", itemID.String())
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}

	return &item, nil
}

// ListItems retrieves all items of an order, oldest first.
func (r *OrderRepo) ListItems(ctx context.Context, orderID id.ID) ([]*order.OrderItem, error) {
	q := r.builder.Select(orderItemColumns...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []*order.OrderItem{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}

	return items, nil
}

// DeleteItem removes an order item row. NotFound if no row was deleted.
func (r *OrderRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	q := r.builder.Delete(orderItemsTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order item", itemID.String())
	}

	return nil
}

var _ order.Repository = (*OrderRepo)(nil)
