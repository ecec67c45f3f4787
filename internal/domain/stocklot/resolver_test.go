package stocklot_test

import (
	"context"
	"testing"

	"farmstock/internal/core/apperror"
	"farmstock/internal/domain/resource"
	"farmstock/internal/domain/stocklot"
	"farmstock/internal/infrastructure/storage/memory"
)

func TestResolverQueryLots(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockLotRepo()
	resolver := stocklot.NewResolver(repo)

	seedLot(t, repo, resource.TypeEgg, resource.Attributes{"size": "large", "color": "brown"}, 30)
	seedLot(t, repo, resource.TypeEgg, resource.Attributes{"size": "large", "color": "white"}, 12)
	seedLot(t, repo, resource.TypeEgg, resource.Attributes{"size": "small", "color": "brown"}, 5)

	tests := []struct {
		name      string
		filter    resource.Attributes
		wantLots  int
		wantTotal int64
	}{
		{name: "all eggs", filter: nil, wantLots: 3, wantTotal: 47},
		{name: "large only", filter: resource.Attributes{"size": "large"}, wantLots: 2, wantTotal: 42},
		{name: "exact variant", filter: resource.Attributes{"size": "small", "color": "brown"}, wantLots: 1, wantTotal: 5},
		{name: "no match", filter: resource.Attributes{"color": "green"}, wantLots: 0, wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lots, total, err := resolver.QueryLots(ctx, resource.TypeEgg, tt.filter)
			if err != nil {
				t.Fatalf("QueryLots failed: %v", err)
			}
			if len(lots) != tt.wantLots {
				t.Errorf("lots = %d, want %d", len(lots), tt.wantLots)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestResolverQueryLotsRejectsUnknownKey(t *testing.T) {
	resolver := stocklot.NewResolver(memory.NewStockLotRepo())

	_, _, err := resolver.QueryLots(context.Background(), resource.TypeEgg, resource.Attributes{"weight": "60g"})
	if err == nil {
		t.Fatal("expected validation error for unknown filter key")
	}
}

func TestResolverFindLotExactMatch(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockLotRepo()
	resolver := stocklot.NewResolver(repo)

	attrs := resource.Attributes{"type": "laying_hen", "breed": "leghorn"}
	seeded := seedLot(t, repo, resource.TypeChicken, attrs, 10)

	found, err := resolver.FindLot(ctx, resource.TypeChicken, attrs)
	if err != nil {
		t.Fatalf("FindLot failed: %v", err)
	}
	if found.ID != seeded.ID {
		t.Errorf("found lot %s, want %s", found.ID, seeded.ID)
	}

	// A partial set is a validation error on the exact path, never a fuzzy hit.
	if _, err := resolver.FindLot(ctx, resource.TypeChicken, resource.Attributes{"breed": "leghorn"}); err == nil {
		t.Error("partial attribute set must be rejected")
	}

	_, err = resolver.FindLot(ctx, resource.TypeChicken, resource.Attributes{"type": "rooster", "breed": "leghorn"})
	if !apperror.IsNotFound(err) {
		t.Errorf("unrecognized variant: got %v, want NotFound", err)
	}
}
