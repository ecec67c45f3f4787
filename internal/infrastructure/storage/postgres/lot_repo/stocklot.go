// Package lot_repo provides the PostgreSQL implementation of the stock lot store.
package lot_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/domain/resource"
	"farmstock/internal/domain/stocklot"
	"farmstock/internal/infrastructure/storage/postgres"
)

const stockLotsTable = "stock_lots"

var lotColumns = []string{
	"id", "resource_type", "attributes", "quantity", "notes",
	"version", "created_at", "updated_at",
}

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// StockLotRepo implements stocklot.Repository on PostgreSQL.
// Lot identity is enforced by a unique index on (resource_type, attributes);
// the conditional write is a single UPDATE guarded by the version column, so
// quantity, audit note and version always commit together.
type StockLotRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockLotRepo creates a new stock lot repository.
func NewStockLotRepo(txManager *postgres.TxManager) *StockLotRepo {
	return &StockLotRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new lot.
func (r *StockLotRepo) Create(ctx context.Context, lot *stocklot.StockLot) error {
	attrs, err := json.Marshal(lot.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	q := r.builder.Insert(stockLotsTable).
		Columns(lotColumns...).
		Values(
			lot.ID, lot.ResourceType, attrs, lot.Quantity, lot.Notes,
			lot.Version, lot.CreatedAt, lot.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return stocklot.ErrDuplicateVariant
		}
		return fmt.Errorf("insert lot: %w", err)
	}

	return nil
}

// GetByID retrieves a lot by primary key.
func (r *StockLotRepo) GetByID(ctx context.Context, lotID id.ID) (*stocklot.StockLot, error) {
	q := r.builder.Select(lotColumns...).
		From(stockLotsTable).
		Where(squirrel.Eq{"id": lotID})

	return r.getOne(ctx, q, lotID.String())
}

// GetByVariant retrieves the lot for an exact attribute set.
// jsonb equality ignores key order, so the canonical form is only needed
// for the uniqueness index, not for lookups.
func (r *StockLotRepo) GetByVariant(ctx context.Context, t resource.Type, attrs resource.Attributes) (*stocklot.StockLot, error) {
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	q := r.builder.Select(lotColumns...).
		From(stockLotsTable).
		Where(squirrel.Eq{"resource_type": t}).
		Where(squirrel.Expr("attributes = ?::jsonb", string(attrsJSON)))

	return r.getOne(ctx, q, attrs.Key(t))
}

// ListByFilter returns all lots of a type matching a partial attribute filter.
func (r *StockLotRepo) ListByFilter(ctx context.Context, t resource.Type, filter resource.Attributes) ([]*stocklot.StockLot, error) {
	q := r.builder.Select(lotColumns...).
		From(stockLotsTable).
		Where(squirrel.Eq{"resource_type": t}).
		OrderBy("created_at")

	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		q = q.Where(squirrel.Expr("attributes @> ?::jsonb", string(filterJSON)))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lots := []*stocklot.StockLot{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("select lots: %w", err)
	}

	return lots, nil
}

// ApplyQuantity performs the version-guarded conditional write.
// The new quantity, appended audit note, version bump and updated_at refresh
// are one statement; zero rows affected means the version went stale (or the
// lot vanished, which is reported as NotFound).
func (r *StockLotRepo) ApplyQuantity(ctx context.Context, lotID id.ID, expectedVersion int64, newQuantity int64, note string) (*stocklot.StockLot, error) {
	sql := `
		UPDATE stock_lots
		SET quantity = $1,
		    notes = array_append(notes, $2),
		    version = version + 1,
		    updated_at = $3
		WHERE id = $4 AND version = $5
		RETURNING id, resource_type, attributes, quantity, notes, version, created_at, updated_at
	`

	var lot stocklot.StockLot
	querier := r.txManager.GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &lot, sql, newQuantity, note, time.Now().UTC(), lotID, expectedVersion)
	if err == nil {
		return &lot, nil
	}
	if !pgxscan.NotFound(err) {
		return nil, fmt.Errorf("conditional update: %w", err)
	}

	// No row matched: stale version or missing lot.
	exists, err := r.exists(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NewNotFound("stock lot", lotID.String())
	}
	return nil, stocklot.ErrVersionConflict
}

func (r *StockLotRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*stocklot.StockLot, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot stocklot.StockLot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock lot", key)
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}

	return &lot, nil
}

func (r *StockLotRepo) exists(ctx context.Context, lotID id.ID) (bool, error) {
	var exists bool
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM stock_lots WHERE id = $1)", lotID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lot existence: %w", err)
	}
	return exists, nil
}

// Ensure interface compliance.
var _ stocklot.Repository = (*StockLotRepo)(nil)
