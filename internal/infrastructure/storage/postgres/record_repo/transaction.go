// Package record_repo provides PostgreSQL stores for financial records:
// transactions and orders with their line items.
package record_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/domain/transaction"
	"farmstock/internal/infrastructure/storage/postgres"
)

const transactionsTable = "transactions"

var transactionColumns = []string{
	"id", "transaction_type", "category", "amount", "transaction_date",
	"counterparty_id", "description", "resource_type", "attributes",
	"quantity", "linked_lot_id", "status",
	"version", "created_at", "updated_at",
}

// TransactionRepo implements transaction.Repository on PostgreSQL.
type TransactionRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewTransactionRepo creates a new transaction repository.
func NewTransactionRepo(txManager *postgres.TxManager) *TransactionRepo {
	return &TransactionRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new transaction record.
func (r *TransactionRepo) Create(ctx context.Context, tx *transaction.Transaction) error {
	var attrs any
	if tx.Attributes != nil {
		b, err := json.Marshal(tx.Attributes)
		if err != nil {
			return fmt.Errorf("marshal attributes: %w", err)
		}
		attrs = b
	}

	q := r.builder.Insert(transactionsTable).
		Columns(transactionColumns...).
		Values(
			tx.ID, tx.Type, tx.Category, tx.Amount, tx.Date,
			tx.CounterpartyID, tx.Description, tx.ResourceType, attrs,
			tx.Quantity, tx.LinkedLotID, tx.Status,
			tx.Version, tx.CreatedAt, tx.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by primary key.
func (r *TransactionRepo) GetByID(ctx context.Context, txID id.ID) (*transaction.Transaction, error) {
	q := r.builder.Select(transactionColumns...).
		From(transactionsTable).
		Where(squirrel.Eq{"id": txID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tx transaction.Transaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tx, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", txID.String())
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return &tx, nil
}

// List retrieves transactions matching the filter, newest first.
func (r *TransactionRepo) List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	q := r.builder.Select(transactionColumns...).
		From(transactionsTable).
		OrderBy("transaction_date DESC", "created_at DESC")

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"transaction_type": *filter.Type})
	}
	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"transaction_date": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	txs := []*transaction.Transaction{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &txs, sql, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	return txs, nil
}

var _ transaction.Repository = (*TransactionRepo)(nil)
