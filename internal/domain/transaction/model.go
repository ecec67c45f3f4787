// Package transaction provides the financial transaction record
// (income/expense facts, optionally linked to a stock lot).
package transaction

import (
	"context"
	"time"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/entity"
	"farmstock/internal/core/id"
	"farmstock/internal/core/types"
	"farmstock/internal/domain/resource"
)

// Type is the financial direction of a transaction.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category classifies a transaction and decides whether a stock
// reconciliation step runs, and in which direction.
type Category string

const (
	CategoryChickenSale       Category = "chicken_sale"
	CategoryChickSale         Category = "chick_sale"
	CategoryEggSale           Category = "egg_sale"
	CategoryChickenPurchase   Category = "chicken_purchase"
	CategoryChickPurchase     Category = "chick_purchase"
	CategoryEggPurchase       Category = "egg_purchase"
	CategoryInventoryPurchase Category = "inventory_purchase"
	CategoryFeedExpense       Category = "feed_expense"
	CategorySalaryExpense     Category = "salary_expense"
	CategoryOtherIncome       Category = "other_income"
	CategoryOtherExpense      Category = "other_expense"
)

// StockDirection is how a category moves stock, if at all.
type StockDirection int

const (
	// StockNone means the category carries no stock movement.
	StockNone StockDirection = iota
	// StockSale deducts from a lot.
	StockSale
	// StockPurchase adds to a lot.
	StockPurchase
)

var categoryDirections = map[Category]StockDirection{
	CategoryChickenSale:       StockSale,
	CategoryChickSale:         StockSale,
	CategoryEggSale:           StockSale,
	CategoryChickenPurchase:   StockPurchase,
	CategoryChickPurchase:     StockPurchase,
	CategoryEggPurchase:       StockPurchase,
	CategoryInventoryPurchase: StockPurchase,
	CategoryFeedExpense:       StockNone,
	CategorySalaryExpense:     StockNone,
	CategoryOtherIncome:       StockNone,
	CategoryOtherExpense:      StockNone,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryDirections[c]
	return ok
}

// Direction returns the stock movement implied by the category.
func (c Category) Direction() StockDirection {
	return categoryDirections[c]
}

// MovesStock reports whether the category implies a livestock/inventory movement.
func (c Category) MovesStock() bool {
	return c.Direction() != StockNone
}

// Status is the reconciliation state of the record. A record only persists
// after its stock movement (if any) succeeded, so a stored row is either
// pending reconciliation or applied; failed sagas leave no row behind.
type Status string

const (
	StatusPending Status = "pending"
	StatusApplied Status = "applied"
)

// Transaction is a financial fact. When its category implies a stock
// movement it references the reconciled lot through LinkedLotID.
type Transaction struct {
	entity.Base

	Type     Type        `db:"transaction_type" json:"transactionType"`
	Category Category    `db:"category" json:"category"`
	Amount   types.Money `db:"amount" json:"amount"`
	Date     time.Time   `db:"transaction_date" json:"date"`

	// CounterpartyID references a buyer or seller by id only; no business
	// rule in this core depends on the identity record.
	CounterpartyID *id.ID `db:"counterparty_id" json:"counterpartyId,omitempty"`

	Description string `db:"description" json:"description,omitempty"`

	// Stock movement fields, set only when Category.MovesStock().
	ResourceType *resource.Type      `db:"resource_type" json:"resourceType,omitempty"`
	Attributes   resource.Attributes `db:"attributes" json:"attributes,omitempty"`
	Quantity     *int64              `db:"quantity" json:"quantity,omitempty"`

	// LinkedLotID is set once reconciliation succeeds.
	LinkedLotID *id.ID `db:"linked_lot_id" json:"linkedLotId,omitempty"`

	Status Status `db:"status" json:"status"`
}

// NewTransaction creates a pending transaction record.
func NewTransaction(txType Type, category Category, amount types.Money, date time.Time) *Transaction {
	return &Transaction{
		Base:     entity.NewBase(),
		Type:     txType,
		Category: category,
		Amount:   amount,
		Date:     date,
		Status:   StatusPending,
	}
}

// Validate implements entity.Validatable.
func (t *Transaction) Validate(ctx context.Context) error {
	if !t.Type.Valid() {
		return apperror.NewValidation("invalid transaction type").
			WithDetail("field", "transaction_type").
			WithDetail("value", string(t.Type))
	}
	if !t.Category.Valid() {
		return apperror.NewValidation("unknown category").
			WithDetail("field", "category").
			WithDetail("value", string(t.Category))
	}
	if t.Amount.IsNegative() {
		return apperror.NewValidation("amount must not be negative").
			WithDetail("field", "amount")
	}
	if t.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	if t.Category.MovesStock() {
		if t.ResourceType == nil {
			return apperror.NewValidation("resource_type is required for stock-moving categories").
				WithDetail("field", "resource_type").
				WithDetail("category", string(t.Category))
		}
		if t.Quantity == nil || *t.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity")
		}
		if err := t.Attributes.Validate(*t.ResourceType); err != nil {
			return err
		}
	}

	return nil
}
