package middleware_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"farmstock/internal/core/apperror"
	"farmstock/internal/infrastructure/http/v1/middleware"
	"farmstock/internal/infrastructure/storage/postgres"
)

type fakeEntry struct {
	operation   string
	requestHash string
	status      string
	statusCode  int
	contentType string
	body        []byte
}

// fakeKeyStore mirrors the acquire/complete/fail semantics of the SQL-backed
// store: first acquire wins, a reused key must carry the same operation and
// body hash, and finished keys replay the stored response.
type fakeKeyStore struct {
	mu      sync.Mutex
	entries map[string]*fakeEntry
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{entries: map[string]*fakeEntry{}}
}

func (s *fakeKeyStore) AcquireKey(_ context.Context, key, operation, requestHash string) (*postgres.IdempotencyReplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.entries[key] = &fakeEntry{operation: operation, requestHash: requestHash, status: "pending"}
		return nil, nil
	}
	if e.operation != operation || e.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if e.status == "pending" {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return &postgres.IdempotencyReplay{
		StatusCode:  e.statusCode,
		ContentType: e.contentType,
		Body:        e.body,
	}, nil
}

func (s *fakeKeyStore) CompleteKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, "success", statusCode, contentType, response)
}

func (s *fakeKeyStore) FailKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, "failed", statusCode, contentType, response)
}

func (s *fakeKeyStore) finish(key, status string, statusCode int, contentType string, response any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	e.status = status
	e.statusCode = statusCode
	e.contentType = contentType
	if response != nil {
		body, err := json.Marshal(response)
		if err != nil {
			return err
		}
		e.body = body
	}
	return nil
}

// newTestRouter wires the middleware chain the way the production router
// does: errors rendered after handlers, idempotency guarding the group.
// The POST handler completes its key exactly like BaseHandler.Created.
func newTestRouter(store middleware.KeyStore, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Idempotency(store))
	r.POST("/transactions", func(c *gin.Context) {
		*calls++
		resp := gin.H{"id": "tx-1"}
		if key, ok := c.Get("idempotency_key"); ok {
			ks := c.MustGet("idempotency_store").(middleware.KeyStore)
			_ = ks.CompleteKey(c.Request.Context(), key.(string), http.StatusCreated, "application/json", resp)
		}
		c.JSON(http.StatusCreated, resp)
	})
	r.GET("/transactions", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})
	return r
}

func sha256Hex(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func doPost(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysCompletedRequest(t *testing.T) {
	store := newFakeKeyStore()
	calls := 0
	r := newTestRouter(store, &calls)

	body := `{"category":"egg_sales","quantity":5}`

	first := doPost(r, "retry-1", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first request status = %d, want 201", first.Code)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}

	second := doPost(r, "retry-1", body)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay status = %d, want 201", second.Code)
	}
	if calls != 1 {
		t.Fatalf("handler calls after replay = %d, want 1 (operation must not re-execute)", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body %q differs from original %q", second.Body.String(), first.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeKeyStore()
	calls := 0
	r := newTestRouter(store, &calls)

	if w := doPost(r, "retry-2", `{"quantity":5}`); w.Code != http.StatusCreated {
		t.Fatalf("first request status = %d, want 201", w.Code)
	}

	w := doPost(r, "retry-2", `{"quantity":9}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("mismatched reuse status = %d, want 409", w.Code)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestIdempotencyRejectsKeyStillPending(t *testing.T) {
	store := newFakeKeyStore()
	calls := 0
	r := newTestRouter(store, &calls)

	body := `{"quantity":5}`

	// Another in-flight request holds the key.
	if _, err := store.AcquireKey(context.Background(), "retry-3", "POST /transactions", sha256Hex(body)); err != nil {
		t.Fatalf("seed acquire: %v", err)
	}

	w := doPost(r, "retry-3", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("pending key status = %d, want 409", w.Code)
	}
	if calls != 0 {
		t.Fatalf("handler calls = %d, want 0", calls)
	}
}

func TestIdempotencyReplaysFailedOutcome(t *testing.T) {
	store := newFakeKeyStore()
	calls := 0
	r := newTestRouter(store, &calls)

	body := `{"quantity":5}`
	if _, err := store.AcquireKey(context.Background(), "retry-4", "POST /transactions", sha256Hex(body)); err != nil {
		t.Fatalf("seed acquire: %v", err)
	}
	errBody := gin.H{"error": gin.H{"code": "INSUFFICIENT_STOCK"}}
	if err := store.FailKey(context.Background(), "retry-4", http.StatusConflict, "application/json", errBody); err != nil {
		t.Fatalf("seed fail: %v", err)
	}

	w := doPost(r, "retry-4", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("failed replay status = %d, want 409", w.Code)
	}
	if calls != 0 {
		t.Fatalf("handler calls = %d, want 0 (failed outcomes replay too)", calls)
	}
}

func TestIdempotencySkipsRequestsWithoutKey(t *testing.T) {
	store := newFakeKeyStore()
	calls := 0
	r := newTestRouter(store, &calls)

	doPost(r, "", `{"quantity":5}`)
	doPost(r, "", `{"quantity":5}`)
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2 (no key means no dedup)", calls)
	}
}

func TestIdempotencySkipsReads(t *testing.T) {
	store := newFakeKeyStore()
	calls := 0
	r := newTestRouter(store, &calls)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "retry-5")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("read status = %d, want 200", w.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2 (reads are never deduplicated)", calls)
	}
}
