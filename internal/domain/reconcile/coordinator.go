// Package reconcile orchestrates financial and fulfillment events against
// the stock ledger. Every multi-step sequence here is a compensating saga:
// the ledger write and the record write live in different storage areas, so
// a failure after the stock moved is undone with an inverse delta before the
// error surfaces. The observable guarantee is that stock and financial
// records always end up consistent, or the operation is rejected.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/core/tx"
	"farmstock/internal/core/types"
	"farmstock/internal/domain/order"
	"farmstock/internal/domain/resource"
	"farmstock/internal/domain/stocklot"
	"farmstock/internal/domain/transaction"
	"farmstock/pkg/logger"
)

// Coordinator owns event status transitions and the compensation paths.
// The ledger exclusively owns quantity and version mutation; the coordinator
// never touches either directly.
type Coordinator struct {
	ledger    *stocklot.Ledger
	lots      stocklot.Repository
	txRepo    transaction.Repository
	orderRepo order.Repository
	txManager tx.Manager
}

// NewCoordinator creates a reconciliation coordinator.
func NewCoordinator(
	ledger *stocklot.Ledger,
	lots stocklot.Repository,
	txRepo transaction.Repository,
	orderRepo order.Repository,
	txManager tx.Manager,
) *Coordinator {
	return &Coordinator{
		ledger:    ledger,
		lots:      lots,
		txRepo:    txRepo,
		orderRepo: orderRepo,
		txManager: txManager,
	}
}

// TransactionDraft carries the caller's financial fields for RecordTransaction.
type TransactionDraft struct {
	Type           transaction.Type
	Category       transaction.Category
	Amount         types.Money
	Date           time.Time
	CounterpartyID *id.ID
	Description    string

	// Stock movement fields; required when Category implies a movement.
	ResourceType resource.Type
	Attributes   resource.Attributes
	Quantity     int64
}

// RecordTransaction persists a financial transaction, running the stock
// reconciliation saga when the category implies a movement. Categories with
// no stock movement are plain inserts.
func (c *Coordinator) RecordTransaction(ctx context.Context, draft TransactionDraft) (*transaction.Transaction, error) {
	switch draft.Category.Direction() {
	case transaction.StockSale:
		return c.RecordSale(ctx, draft)
	case transaction.StockPurchase:
		return c.RecordPurchase(ctx, draft)
	default:
		rec := c.buildRecord(draft, nil)
		if err := rec.Validate(ctx); err != nil {
			return nil, err
		}
		rec.Status = transaction.StatusApplied
		if err := c.persistTransaction(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
}

// RecordSale runs the sale saga: deduct from the lot, then persist the
// transaction referencing it. If the persist step fails, the deduction is
// reversed before the persist error surfaces; the net visible effect is as
// if the ledger was never touched.
func (c *Coordinator) RecordSale(ctx context.Context, draft TransactionDraft) (*transaction.Transaction, error) {
	rec := c.buildRecord(draft, nil)
	if err := rec.Validate(ctx); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Sold %d on %s", draft.Quantity, draft.Date.Format("2006-01-02"))
	lot, err := c.ledger.ApplyDelta(ctx, draft.ResourceType, draft.Attributes, -draft.Quantity, note)
	if err != nil {
		// Ledger errors surface unchanged; nothing was persisted.
		return nil, err
	}

	rec.LinkedLotID = &lot.ID
	rec.Status = transaction.StatusApplied

	if err := c.persistTransaction(ctx, rec); err != nil {
		return nil, c.compensate(ctx, err, lot.ID, draft.Quantity, "transaction persist failed")
	}

	return rec, nil
}

// RecordPurchase runs the purchase saga: add to (or create) the lot, then
// persist the transaction. No availability check applies on this path.
func (c *Coordinator) RecordPurchase(ctx context.Context, draft TransactionDraft) (*transaction.Transaction, error) {
	rec := c.buildRecord(draft, nil)
	if err := rec.Validate(ctx); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Purchased %d on %s", draft.Quantity, draft.Date.Format("2006-01-02"))
	lot, err := c.ledger.ApplyDelta(ctx, draft.ResourceType, draft.Attributes, draft.Quantity, note)
	if err != nil {
		return nil, err
	}

	rec.LinkedLotID = &lot.ID
	rec.Status = transaction.StatusApplied

	if err := c.persistTransaction(ctx, rec); err != nil {
		return nil, c.compensate(ctx, err, lot.ID, -draft.Quantity, "transaction persist failed")
	}

	return rec, nil
}

// RecordOrderItem runs the sale saga scoped to an order: validate the line,
// deduct from the lot, persist the item with its exact decimal total. The
// persist failure path restores the deducted stock before surfacing.
func (c *Coordinator) RecordOrderItem(ctx context.Context, orderID id.ID, t resource.Type, attrs resource.Attributes, quantity int64, unitPrice types.Money) (*order.OrderItem, error) {
	if _, err := c.orderRepo.GetOrder(ctx, orderID); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, err
	}

	item := order.NewOrderItem(orderID, t, attrs, quantity, unitPrice)
	if err := item.Validate(ctx); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Sold %d on %s (order %s)", quantity, time.Now().UTC().Format("2006-01-02"), orderID)
	lot, err := c.ledger.ApplyDelta(ctx, t, attrs, -quantity, note)
	if err != nil {
		return nil, err
	}

	item.LinkedLotID = &lot.ID
	item.Status = order.ItemStatusApplied

	err = c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return c.orderRepo.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, c.compensate(ctx, err, lot.ID, quantity, "order item persist failed")
	}

	logger.Info(ctx, "order item reconciled",
		"order_id", orderID,
		"item_id", item.ID,
		"lot_id", lot.ID,
		"quantity", quantity,
	)
	return item, nil
}

// DeleteOrderItem restores the item's stock, then removes the record.
// An order item is never removed without its stock being returned: a failed
// reversal aborts the deletion and surfaces the reversal error. The item
// must belong to the given order; an item addressed through the wrong order
// is treated as not found.
func (c *Coordinator) DeleteOrderItem(ctx context.Context, orderID, itemID id.ID) error {
	item, err := c.orderRepo.GetItem(ctx, itemID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("order item", itemID.String())
		}
		return err
	}
	if item.OrderID != orderID {
		return apperror.NewNotFound("order item", itemID.String())
	}

	if item.LinkedLotID != nil {
		note := fmt.Sprintf("Restored %d on %s (order item %s deleted)",
			item.Quantity, time.Now().UTC().Format("2006-01-02"), itemID)
		if _, err := c.ledger.ReverseDelta(ctx, *item.LinkedLotID, item.Quantity, note); err != nil {
			return err
		}
	}

	err = c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return c.orderRepo.DeleteItem(ctx, itemID)
	})
	if err != nil && item.LinkedLotID != nil {
		// The row survived but its stock was already returned; take the
		// restoration back so the two stay consistent.
		return c.compensate(ctx, err, *item.LinkedLotID, -item.Quantity, "order item delete failed")
	}
	if err != nil {
		return err
	}

	logger.Info(ctx, "order item deleted",
		"item_id", itemID,
		"order_id", item.OrderID,
		"restored", item.Quantity,
	)
	return nil
}

// AdjustInventory is the direct restock path for generic inventory lots
// (purchase only; this resource type has no sale-side deduction). The lot is
// addressed by id, re-resolved by its immutable variant, and topped up
// through the ledger's single delta entry point.
func (c *Coordinator) AdjustInventory(ctx context.Context, lotID id.ID, quantity int64, note string) (*stocklot.StockLot, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("restock quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", quantity)
	}

	lot, err := c.lots.GetByID(ctx, lotID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("stock lot", lotID.String())
		}
		return nil, err
	}
	if lot.ResourceType != resource.TypeInventoryItem {
		return nil, apperror.NewValidation("direct adjustment is only supported for inventory items").
			WithDetail("lot_id", lotID.String()).
			WithDetail("resource_type", string(lot.ResourceType))
	}

	if note == "" {
		note = fmt.Sprintf("Restocked %d on %s", quantity, time.Now().UTC().Format("2006-01-02"))
	}
	return c.ledger.ApplyDelta(ctx, lot.ResourceType, lot.Attributes, quantity, note)
}

// compensate reverses a previously applied deduction (restoreQty > 0 returns
// stock, < 0 takes it back) and returns the original error. A failed
// compensation is logged by the ledger and marked on the surfaced error so
// the caller knows stock may be inconsistent.
func (c *Coordinator) compensate(ctx context.Context, original error, lotID id.ID, restoreQty int64, reason string) error {
	note := "compensated: " + reason
	if _, cerr := c.ledger.ReverseDelta(ctx, lotID, restoreQty, note); cerr != nil {
		if appErr, ok := apperror.AsAppError(original); ok {
			appErr.WithDetail("compensation", "failed: stock may be inconsistent - contact support")
		}
		return original
	}

	logger.Info(ctx, "saga compensated",
		"lot_id", lotID,
		"restored", restoreQty,
		"reason", reason,
	)
	return original
}

func (c *Coordinator) buildRecord(draft TransactionDraft, linkedLot *id.ID) *transaction.Transaction {
	rec := transaction.NewTransaction(draft.Type, draft.Category, draft.Amount, draft.Date)
	rec.CounterpartyID = draft.CounterpartyID
	rec.Description = draft.Description
	rec.LinkedLotID = linkedLot

	if draft.Category.MovesStock() {
		t := draft.ResourceType
		q := draft.Quantity
		rec.ResourceType = &t
		rec.Attributes = draft.Attributes.Clone()
		rec.Quantity = &q
	}

	return rec
}

func (c *Coordinator) persistTransaction(ctx context.Context, rec *transaction.Transaction) error {
	return c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := c.txRepo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
}
