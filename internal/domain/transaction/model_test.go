package transaction

import (
	"context"
	"testing"
	"time"

	"farmstock/internal/core/types"
	"farmstock/internal/domain/resource"
)

func TestCategoryDirection(t *testing.T) {
	tests := []struct {
		category  Category
		direction StockDirection
	}{
		{CategoryChickenSale, StockSale},
		{CategoryChickSale, StockSale},
		{CategoryEggSale, StockSale},
		{CategoryChickenPurchase, StockPurchase},
		{CategoryChickPurchase, StockPurchase},
		{CategoryEggPurchase, StockPurchase},
		{CategoryInventoryPurchase, StockPurchase},
		{CategoryFeedExpense, StockNone},
		{CategorySalaryExpense, StockNone},
		{CategoryOtherIncome, StockNone},
		{CategoryOtherExpense, StockNone},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := tt.category.Direction(); got != tt.direction {
				t.Errorf("Direction() = %v, want %v", got, tt.direction)
			}
		})
	}

	if Category("loan_payment").Valid() {
		t.Error("unknown category must not be valid")
	}
}

func TestTransactionValidate(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC)
	qty := int64(5)
	henType := resource.TypeChicken

	t.Run("stock category requires stock fields", func(t *testing.T) {
		tx := NewTransaction(TypeIncome, CategoryChickenSale, types.MustMoney("150.00"), date)
		if err := tx.Validate(ctx); err == nil {
			t.Error("missing resource fields must be rejected")
		}

		tx.ResourceType = &henType
		tx.Attributes = resource.Attributes{"type": "laying_hen", "breed": "leghorn"}
		tx.Quantity = &qty
		if err := tx.Validate(ctx); err != nil {
			t.Errorf("complete stock transaction rejected: %v", err)
		}
	})

	t.Run("non-stock category needs no stock fields", func(t *testing.T) {
		tx := NewTransaction(TypeExpense, CategorySalaryExpense, types.MustMoney("900.00"), date)
		if err := tx.Validate(ctx); err != nil {
			t.Errorf("salary expense rejected: %v", err)
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		tx := NewTransaction(TypeExpense, CategoryOtherExpense, types.MustMoney("-1.00"), date)
		if err := tx.Validate(ctx); err == nil {
			t.Error("negative amount must be rejected")
		}
	})

	t.Run("zero quantity on stock category", func(t *testing.T) {
		zero := int64(0)
		tx := NewTransaction(TypeIncome, CategoryEggSale, types.MustMoney("10.00"), date)
		eggs := resource.TypeEgg
		tx.ResourceType = &eggs
		tx.Attributes = resource.Attributes{"size": "large", "color": "brown"}
		tx.Quantity = &zero
		if err := tx.Validate(ctx); err == nil {
			t.Error("zero quantity must be rejected")
		}
	})
}
