package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/core/types"
	"farmstock/internal/domain/order"
	"farmstock/internal/domain/reconcile"
	"farmstock/internal/domain/resource"
	"farmstock/internal/domain/stocklot"
	"farmstock/internal/domain/transaction"
	"farmstock/internal/infrastructure/storage/memory"
)

// failingTxRepo fails the next N Create calls, then delegates.
type failingTxRepo struct {
	transaction.Repository
	failures int
}

func (r *failingTxRepo) Create(ctx context.Context, tx *transaction.Transaction) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("store unavailable")
	}
	return r.Repository.Create(ctx, tx)
}

// failingOrderRepo fails the next N item writes, then delegates.
type failingOrderRepo struct {
	order.Repository
	createItemFailures int
	deleteItemFailures int
}

func (r *failingOrderRepo) CreateItem(ctx context.Context, item *order.OrderItem) error {
	if r.createItemFailures > 0 {
		r.createItemFailures--
		return errors.New("store unavailable")
	}
	return r.Repository.CreateItem(ctx, item)
}

func (r *failingOrderRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	if r.deleteItemFailures > 0 {
		r.deleteItemFailures--
		return errors.New("store unavailable")
	}
	return r.Repository.DeleteItem(ctx, itemID)
}

type fixture struct {
	lots        *memory.StockLotRepo
	txRepo      transaction.Repository
	orderRepo   order.Repository
	coordinator *reconcile.Coordinator
}

func newFixture(txRepo transaction.Repository, orderRepo order.Repository) *fixture {
	lots := memory.NewStockLotRepo()
	if txRepo == nil {
		txRepo = memory.NewTransactionRepo()
	}
	if orderRepo == nil {
		orderRepo = memory.NewOrderRepo()
	}
	ledger := stocklot.NewLedger(lots)
	return &fixture{
		lots:        lots,
		txRepo:      txRepo,
		orderRepo:   orderRepo,
		coordinator: reconcile.NewCoordinator(ledger, lots, txRepo, orderRepo, memory.NewTxManager()),
	}
}

func (f *fixture) seedHens(t *testing.T, qty int64) *stocklot.StockLot {
	t.Helper()
	lot := stocklot.NewStockLot(resource.TypeChicken, resource.Attributes{"type": "laying_hen", "breed": "leghorn"}, qty)
	if err := f.lots.Create(context.Background(), lot); err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	return lot
}

func saleDraft(qty int64) reconcile.TransactionDraft {
	return reconcile.TransactionDraft{
		Type:         transaction.TypeIncome,
		Category:     transaction.CategoryChickenSale,
		Amount:       types.MustMoney("150.00"),
		Date:         time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC),
		ResourceType: resource.TypeChicken,
		Attributes:   resource.Attributes{"type": "laying_hen", "breed": "leghorn"},
		Quantity:     qty,
	}
}

func TestRecordSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)
	lot := f.seedHens(t, 10)

	rec, err := f.coordinator.RecordTransaction(ctx, saleDraft(5))
	if err != nil {
		t.Fatalf("RecordTransaction failed: %v", err)
	}
	if rec.Status != transaction.StatusApplied {
		t.Errorf("status = %s, want applied", rec.Status)
	}
	if rec.LinkedLotID == nil || *rec.LinkedLotID != lot.ID {
		t.Errorf("record not linked to the deducted lot")
	}

	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", current.Quantity)
	}
	if len(current.Notes) != 1 || current.Notes[0] != "Sold 5 on 2025-05-07" {
		t.Errorf("notes = %v, want the sale audit note", current.Notes)
	}

	stored, err := f.txRepo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("transaction not persisted: %v", err)
	}
	if stored.Status != transaction.StatusApplied {
		t.Errorf("stored status = %s, want applied", stored.Status)
	}
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)
	lot := f.seedHens(t, 10)

	_, err := f.coordinator.RecordTransaction(ctx, saleDraft(15))
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	appErr, _ := apperror.AsAppError(err)
	if appErr.Details["available"] != int64(10) || appErr.Details["requested"] != int64(15) {
		t.Errorf("details = %v, want available=10 requested=15", appErr.Details)
	}

	// Neither the lot nor the transaction store moved.
	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 10 || current.Version != 1 {
		t.Errorf("lot changed after rejected sale: qty=%d version=%d", current.Quantity, current.Version)
	}
	txs, _ := f.txRepo.List(ctx, transaction.ListFilter{})
	if len(txs) != 0 {
		t.Errorf("transactions persisted = %d, want 0", len(txs))
	}
}

func TestRecordPurchaseCreatesLot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)

	draft := reconcile.TransactionDraft{
		Type:         transaction.TypeExpense,
		Category:     transaction.CategoryEggPurchase,
		Amount:       types.MustMoney("24.50"),
		Date:         time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC),
		ResourceType: resource.TypeEgg,
		Attributes:   resource.Attributes{"size": "large", "color": "brown"},
		Quantity:     30,
	}

	rec, err := f.coordinator.RecordTransaction(ctx, draft)
	if err != nil {
		t.Fatalf("RecordTransaction failed: %v", err)
	}
	if rec.LinkedLotID == nil {
		t.Fatal("purchase record must link its lot")
	}

	lot, err := f.lots.GetByID(ctx, *rec.LinkedLotID)
	if err != nil {
		t.Fatalf("lot not created: %v", err)
	}
	if lot.Quantity != 30 {
		t.Errorf("quantity = %d, want 30", lot.Quantity)
	}
}

func TestRecordTransactionWithoutStockMovement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)

	draft := reconcile.TransactionDraft{
		Type:     transaction.TypeExpense,
		Category: transaction.CategoryFeedExpense,
		Amount:   types.MustMoney("80.00"),
		Date:     time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC),
	}

	rec, err := f.coordinator.RecordTransaction(ctx, draft)
	if err != nil {
		t.Fatalf("RecordTransaction failed: %v", err)
	}
	if rec.LinkedLotID != nil {
		t.Error("non-stock category must not link a lot")
	}
	if rec.Status != transaction.StatusApplied {
		t.Errorf("status = %s, want applied", rec.Status)
	}

	lots, _ := f.lots.ListByFilter(ctx, resource.TypeChicken, nil)
	if len(lots) != 0 {
		t.Errorf("lots created = %d, want 0", len(lots))
	}
}

func TestRecordSaleCompensatesOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	failing := &failingTxRepo{Repository: memory.NewTransactionRepo(), failures: 1}
	f := newFixture(failing, nil)
	lot := f.seedHens(t, 10)

	_, err := f.coordinator.RecordTransaction(ctx, saleDraft(5))
	if err == nil {
		t.Fatal("expected persist error to surface")
	}
	if apperror.IsInsufficientStock(err) {
		t.Fatalf("persist failure misclassified: %v", err)
	}

	// The deduction was rolled back; net effect is zero.
	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 10 {
		t.Errorf("quantity = %d, want 10 after compensation", current.Quantity)
	}

	// A retry now succeeds cleanly.
	rec, err := f.coordinator.RecordTransaction(ctx, saleDraft(5))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	current, _ = f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 5 {
		t.Errorf("quantity = %d, want 5 after retry", current.Quantity)
	}
	if rec.Status != transaction.StatusApplied {
		t.Errorf("status = %s, want applied", rec.Status)
	}
}

func TestRecordPurchaseCompensatesOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	failing := &failingTxRepo{Repository: memory.NewTransactionRepo(), failures: 1}
	f := newFixture(failing, nil)
	lot := f.seedHens(t, 10)

	draft := saleDraft(4)
	draft.Type = transaction.TypeExpense
	draft.Category = transaction.CategoryChickenPurchase

	if _, err := f.coordinator.RecordTransaction(ctx, draft); err == nil {
		t.Fatal("expected persist error to surface")
	}

	// The added stock was taken back.
	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 10 {
		t.Errorf("quantity = %d, want 10 after compensation", current.Quantity)
	}
}

func TestRecordOrderItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)
	lot := f.seedHens(t, 17)

	o := order.NewOrder(id.New(), time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC))
	if err := f.orderRepo.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	item, err := f.coordinator.RecordOrderItem(ctx, o.ID,
		resource.TypeChicken,
		resource.Attributes{"type": "laying_hen", "breed": "leghorn"},
		5, types.MustMoney("30.00"))
	if err != nil {
		t.Fatalf("RecordOrderItem failed: %v", err)
	}
	if !item.TotalPrice.Equal(types.MustMoney("150.00")) {
		t.Errorf("total = %s, want 150.00", item.TotalPrice.String())
	}
	if item.LinkedLotID == nil || *item.LinkedLotID != lot.ID {
		t.Error("item not linked to the deducted lot")
	}

	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 12 {
		t.Errorf("quantity = %d, want 12", current.Quantity)
	}
}

func TestRecordOrderItemUnknownOrder(t *testing.T) {
	f := newFixture(nil, nil)
	f.seedHens(t, 10)

	_, err := f.coordinator.RecordOrderItem(context.Background(), id.New(),
		resource.TypeChicken,
		resource.Attributes{"type": "laying_hen", "breed": "leghorn"},
		1, types.MustMoney("30.00"))
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected NotFound for unknown order, got %v", err)
	}
}

func TestRecordOrderItemCompensatesOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	failing := &failingOrderRepo{Repository: memory.NewOrderRepo(), createItemFailures: 1}
	f := newFixture(nil, failing)
	lot := f.seedHens(t, 17)

	o := order.NewOrder(id.New(), time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC))
	if err := f.orderRepo.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err := f.coordinator.RecordOrderItem(ctx, o.ID,
		resource.TypeChicken,
		resource.Attributes{"type": "laying_hen", "breed": "leghorn"},
		5, types.MustMoney("30.00"))
	if err == nil {
		t.Fatal("expected persist error to surface")
	}

	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 17 {
		t.Errorf("quantity = %d, want 17 after compensation", current.Quantity)
	}
	items, _ := f.orderRepo.ListItems(ctx, o.ID)
	if len(items) != 0 {
		t.Errorf("items persisted = %d, want 0", len(items))
	}
}

func TestDeleteOrderItemRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)
	lot := f.seedHens(t, 17)

	o := order.NewOrder(id.New(), time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC))
	if err := f.orderRepo.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	item, err := f.coordinator.RecordOrderItem(ctx, o.ID,
		resource.TypeChicken,
		resource.Attributes{"type": "laying_hen", "breed": "leghorn"},
		5, types.MustMoney("30.00"))
	if err != nil {
		t.Fatalf("RecordOrderItem failed: %v", err)
	}

	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 12 {
		t.Fatalf("quantity = %d, want 12 before delete", current.Quantity)
	}

	if err := f.coordinator.DeleteOrderItem(ctx, o.ID, item.ID); err != nil {
		t.Fatalf("DeleteOrderItem failed: %v", err)
	}

	current, _ = f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 17 {
		t.Errorf("quantity = %d, want 17 after restore", current.Quantity)
	}
	if _, err := f.orderRepo.GetItem(ctx, item.ID); !apperror.IsNotFound(err) {
		t.Errorf("item still present after delete: %v", err)
	}
}

func TestDeleteOrderItemReDeductsWhenDeleteFails(t *testing.T) {
	ctx := context.Background()
	failing := &failingOrderRepo{Repository: memory.NewOrderRepo(), deleteItemFailures: 1}
	f := newFixture(nil, failing)
	lot := f.seedHens(t, 17)

	o := order.NewOrder(id.New(), time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC))
	if err := f.orderRepo.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	item, err := f.coordinator.RecordOrderItem(ctx, o.ID,
		resource.TypeChicken,
		resource.Attributes{"type": "laying_hen", "breed": "leghorn"},
		5, types.MustMoney("30.00"))
	if err != nil {
		t.Fatalf("RecordOrderItem failed: %v", err)
	}

	if err := f.coordinator.DeleteOrderItem(ctx, o.ID, item.ID); err == nil {
		t.Fatal("expected delete failure to surface")
	}

	// The restoration was taken back: the item row survived, so the lot
	// must hold the deducted quantity, not the restored one.
	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 12 {
		t.Fatalf("quantity = %d after failed delete, want 12", current.Quantity)
	}
	if _, err := f.orderRepo.GetItem(ctx, item.ID); err != nil {
		t.Fatalf("item should survive a failed delete: %v", err)
	}

	// A retry after the store recovers completes normally.
	if err := f.coordinator.DeleteOrderItem(ctx, o.ID, item.ID); err != nil {
		t.Fatalf("retry DeleteOrderItem failed: %v", err)
	}
	current, _ = f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 17 {
		t.Errorf("quantity = %d after retried delete, want 17", current.Quantity)
	}
}

func TestDeleteOrderItemRejectsWrongOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)
	lot := f.seedHens(t, 17)

	o := order.NewOrder(id.New(), time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC))
	if err := f.orderRepo.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	item, err := f.coordinator.RecordOrderItem(ctx, o.ID,
		resource.TypeChicken,
		resource.Attributes{"type": "laying_hen", "breed": "leghorn"},
		5, types.MustMoney("30.00"))
	if err != nil {
		t.Fatalf("RecordOrderItem failed: %v", err)
	}

	err = f.coordinator.DeleteOrderItem(ctx, id.New(), item.ID)
	if !apperror.IsNotFound(err) {
		t.Fatalf("delete through the wrong order: got %v, want NotFound", err)
	}

	current, _ := f.lots.GetByID(ctx, lot.ID)
	if current.Quantity != 12 {
		t.Errorf("quantity = %d, want 12 (no stock movement on rejected delete)", current.Quantity)
	}
	if _, err := f.orderRepo.GetItem(ctx, item.ID); err != nil {
		t.Errorf("item must survive a rejected delete: %v", err)
	}
}

func TestAdjustInventory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)

	invLot := stocklot.NewStockLot(resource.TypeInventoryItem,
		resource.Attributes{"category": "feed", "item_name": "layer_pellets"}, 3)
	if err := f.lots.Create(ctx, invLot); err != nil {
		t.Fatalf("seed lot: %v", err)
	}

	updated, err := f.coordinator.AdjustInventory(ctx, invLot.ID, 7, "")
	if err != nil {
		t.Fatalf("AdjustInventory failed: %v", err)
	}
	if updated.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", updated.Quantity)
	}

	// Only positive restocks are allowed.
	if _, err := f.coordinator.AdjustInventory(ctx, invLot.ID, -2, ""); err == nil {
		t.Error("negative adjustment must be rejected")
	}

	// Livestock lots cannot be adjusted directly.
	henLot := f.seedHens(t, 5)
	if _, err := f.coordinator.AdjustInventory(ctx, henLot.ID, 1, ""); err == nil {
		t.Error("direct adjustment of a livestock lot must be rejected")
	}
}
