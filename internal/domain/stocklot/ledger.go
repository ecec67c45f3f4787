package stocklot

import (
	"context"
	"errors"
	"fmt"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/domain/resource"
	"farmstock/pkg/logger"
)

// DefaultMaxAttempts bounds the internal optimistic-concurrency retry loop.
const DefaultMaxAttempts = 3

// Ledger is the consistency-enforcing core of the stock register.
// It is the only component allowed to mutate a lot's quantity and version.
//
// Every mutation is a signed delta applied through a version-checked
// conditional write. The Ledger commits each write independently and holds
// no lock while a caller's surrounding saga continues; a concurrent loser
// of the version race retries against fresh state and may legitimately end
// with InsufficientStock.
type Ledger struct {
	repo        Repository
	maxAttempts int
}

// NewLedger creates a ledger with the default retry budget.
func NewLedger(repo Repository) *Ledger {
	return NewLedgerWithAttempts(repo, DefaultMaxAttempts)
}

// NewLedgerWithAttempts creates a ledger with a custom retry budget.
func NewLedgerWithAttempts(repo Repository, maxAttempts int) *Ledger {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Ledger{repo: repo, maxAttempts: maxAttempts}
}

// ApplyDelta locates (or, for positive deltas, creates) the lot for the
// exact attribute set and applies the signed quantity delta.
//
//   - delta < 0 (sale): the lot must exist and the result must stay >= 0,
//     otherwise InsufficientStock{available, requested}.
//   - delta > 0 (purchase): a missing lot is created with quantity = delta.
//
// The quantity write, audit note append and version bump commit together.
// A stale version is retried internally up to the configured budget, then
// surfaced as ConcurrentModification.
func (l *Ledger) ApplyDelta(ctx context.Context, t resource.Type, attrs resource.Attributes, delta int64, note string) (*StockLot, error) {
	if delta == 0 {
		return nil, apperror.NewValidation("delta must not be zero").
			WithDetail("field", "quantity")
	}
	if err := attrs.Validate(t); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		lot, err := l.repo.GetByVariant(ctx, t, attrs)
		switch {
		case err == nil:
			applied, err := l.applyToExisting(ctx, lot, delta, note)
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return applied, err

		case apperror.IsNotFound(err):
			if delta < 0 {
				logger.Warn(ctx, "sale against missing lot rejected",
					"resource_type", t,
					"variant", attrs.Key(t),
					"requested", -delta,
				)
				return nil, apperror.NewInsufficientStock(0, -delta).
					WithDetail("resource_type", string(t))
			}

			created, err := l.createLot(ctx, t, attrs, delta, note)
			if IsDuplicate(err) {
				// Lost the creation race; the winner's lot is now current.
				continue
			}
			return created, err

		default:
			return nil, fmt.Errorf("resolve lot: %w", err)
		}
	}

	logger.Warn(ctx, "ledger retries exhausted",
		"resource_type", t,
		"variant", attrs.Key(t),
		"delta", delta,
		"attempts", l.maxAttempts,
	)
	return nil, apperror.NewConcurrentModification("stock_lot", attrs.Key(t))
}

// ReverseDelta applies the exact inverse of a previously applied delta,
// addressed by lot id rather than attribute re-resolution. It is the
// compensation path of the Reconciliation Coordinator and must remain
// correct even when the lot's quantity has moved since the original write,
// which is why it is always a relative delta, never an absolute set.
//
// A reversal that would drive the quantity negative, or that cannot be
// committed at all, is a CompensationFailed condition: logged at error
// severity for manual reconciliation, never silently dropped.
func (l *Ledger) ReverseDelta(ctx context.Context, lotID id.ID, delta int64, note string) (*StockLot, error) {
	if delta == 0 {
		return nil, apperror.NewValidation("delta must not be zero").
			WithDetail("field", "quantity")
	}

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		lot, err := l.repo.GetByID(ctx, lotID)
		if err != nil {
			logger.Error(ctx, "compensation failed: lot unreachable",
				"lot_id", lotID,
				"delta", delta,
				"reason", err.Error(),
			)
			return nil, apperror.NewCompensationFailed(lotID.String(), delta).WithCause(err)
		}

		newQuantity := lot.Quantity + delta
		if newQuantity < 0 {
			logger.Error(ctx, "compensation failed: reversal would drive quantity negative",
				"lot_id", lotID,
				"delta", delta,
				"quantity", lot.Quantity,
				"reason", "negative result",
			)
			return nil, apperror.NewCompensationFailed(lotID.String(), delta).
				WithDetail("quantity", lot.Quantity)
		}

		updated, err := l.repo.ApplyQuantity(ctx, lot.ID, lot.Version, newQuantity, note)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			logger.Error(ctx, "compensation failed: conditional write error",
				"lot_id", lotID,
				"delta", delta,
				"reason", err.Error(),
			)
			return nil, apperror.NewCompensationFailed(lotID.String(), delta).WithCause(err)
		}

		logger.Info(ctx, "stock delta reversed",
			"lot_id", lotID,
			"delta", delta,
			"quantity", updated.Quantity,
		)
		return updated, nil
	}

	logger.Error(ctx, "compensation failed: retries exhausted",
		"lot_id", lotID,
		"delta", delta,
		"reason", "version conflicts",
		"attempts", l.maxAttempts,
	)
	return nil, apperror.NewCompensationFailed(lotID.String(), delta)
}

func (l *Ledger) applyToExisting(ctx context.Context, lot *StockLot, delta int64, note string) (*StockLot, error) {
	newQuantity := lot.Quantity + delta
	if newQuantity < 0 {
		logger.Warn(ctx, "stock delta rejected",
			"lot_id", lot.ID,
			"delta", delta,
			"reason", "insufficient stock",
			"available", lot.Quantity,
		)
		return nil, apperror.NewInsufficientStock(lot.Quantity, -delta).
			WithDetail("lot_id", lot.ID.String())
	}

	updated, err := l.repo.ApplyQuantity(ctx, lot.ID, lot.Version, newQuantity, note)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock delta applied",
		"lot_id", updated.ID,
		"delta", delta,
		"quantity", updated.Quantity,
		"version", updated.Version,
	)
	return updated, nil
}

func (l *Ledger) createLot(ctx context.Context, t resource.Type, attrs resource.Attributes, quantity int64, note string) (*StockLot, error) {
	lot := NewStockLot(t, attrs, quantity)
	lot.Notes = append(lot.Notes, note)

	if err := l.repo.Create(ctx, lot); err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock lot created",
		"lot_id", lot.ID,
		"resource_type", t,
		"variant", attrs.Key(t),
		"quantity", quantity,
	)
	return lot.Snapshot(), nil
}
