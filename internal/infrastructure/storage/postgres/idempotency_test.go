package postgres

import (
	"testing"
	"time"

	"farmstock/internal/core/apperror"
)

func pendingRecord(key, operation, hash string, age time.Duration, now time.Time) *IdempotencyRecord {
	return &IdempotencyRecord{
		Key:         key,
		Operation:   operation,
		Status:      IdempotencyStatusPending,
		RequestHash: hash,
		CreatedAt:   now.Add(-age),
		UpdatedAt:   now.Add(-age),
	}
}

func TestResolveAcquireInsertedRowIsAcquired(t *testing.T) {
	now := time.Now().UTC()
	record := pendingRecord("k1", "POST /api/v1/transactions", "h1", 0, now)

	replay, reclaim, err := resolveAcquire(record, true, "POST /api/v1/transactions", "h1", now)
	if err != nil {
		t.Fatalf("resolveAcquire: %v", err)
	}
	if replay != nil || reclaim {
		t.Fatalf("replay = %v, reclaim = %v, want acquired", replay, reclaim)
	}
}

func TestResolveAcquireImmediateDuplicateConflicts(t *testing.T) {
	now := time.Now().UTC()
	// The first request inserted the row half a second ago and is still
	// running. The duplicate sees the existing row, not a fresh insert, and
	// must not be told the key is acquired.
	record := pendingRecord("k1", "POST /api/v1/transactions", "h1", 500*time.Millisecond, now)

	replay, reclaim, err := resolveAcquire(record, false, "POST /api/v1/transactions", "h1", now)
	if replay != nil || reclaim {
		t.Fatalf("replay = %v, reclaim = %v, want conflict", replay, reclaim)
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeIdempotency {
		t.Fatalf("err = %v, want %s", err, apperror.CodeIdempotency)
	}
}

func TestResolveAcquireRejectsMismatchedReuse(t *testing.T) {
	now := time.Now().UTC()
	record := pendingRecord("k1", "POST /api/v1/transactions", "h1", 5*time.Second, now)

	for _, tc := range []struct {
		name      string
		operation string
		hash      string
	}{
		{"different body", "POST /api/v1/transactions", "h2"},
		{"different operation", "POST /api/v1/orders", "h1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := resolveAcquire(record, false, tc.operation, tc.hash, now)
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.Code != apperror.CodeIdempotency {
				t.Fatalf("err = %v, want %s", err, apperror.CodeIdempotency)
			}
		})
	}
}

func TestResolveAcquireReplaysFinishedKey(t *testing.T) {
	now := time.Now().UTC()
	record := &IdempotencyRecord{
		Key:         "k1",
		Operation:   "POST /api/v1/transactions",
		Status:      IdempotencyStatusSuccess,
		RequestHash: "h1",
		Response:    []byte(`{"id":"tx-1"}`),
		StatusCode:  201,
		ContentType: "application/json",
		CreatedAt:   now.Add(-time.Minute),
		UpdatedAt:   now.Add(-time.Minute),
	}

	replay, reclaim, err := resolveAcquire(record, false, "POST /api/v1/transactions", "h1", now)
	if err != nil || reclaim {
		t.Fatalf("err = %v, reclaim = %v, want replay", err, reclaim)
	}
	if replay == nil || replay.StatusCode != 201 || string(replay.Body) != `{"id":"tx-1"}` {
		t.Fatalf("replay = %+v, want stored 201 response", replay)
	}
}

func TestResolveAcquireNormalizesLegacyReplay(t *testing.T) {
	now := time.Now().UTC()
	record := &IdempotencyRecord{
		Key:         "k1",
		Operation:   "POST /api/v1/transactions",
		Status:      IdempotencyStatusFailed,
		RequestHash: "h1",
		Response:    []byte(`{"error":{}}`),
		CreatedAt:   now.Add(-time.Minute),
		UpdatedAt:   now.Add(-time.Minute),
	}

	replay, _, err := resolveAcquire(record, false, "POST /api/v1/transactions", "h1", now)
	if err != nil || replay == nil {
		t.Fatalf("err = %v, replay = %v, want normalized replay", err, replay)
	}
	if replay.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200 default", replay.StatusCode)
	}
	if replay.ContentType != "application/json" {
		t.Errorf("ContentType = %q, want application/json default", replay.ContentType)
	}
}

func TestResolveAcquireStalePendingIsReclaimable(t *testing.T) {
	now := time.Now().UTC()
	record := pendingRecord("k1", "POST /api/v1/transactions", "h1", staleAfter+time.Second, now)

	replay, reclaim, err := resolveAcquire(record, false, "POST /api/v1/transactions", "h1", now)
	if err != nil || replay != nil {
		t.Fatalf("err = %v, replay = %v, want reclaim", err, replay)
	}
	if !reclaim {
		t.Fatal("stale pending key must be offered for reclaim")
	}
}
