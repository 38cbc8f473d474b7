package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return value, nil
}

func (s *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func newIdempotentRouter(store pkgredis.IdempotencyStore, hits *atomic.Int32) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, time.Hour, nil))
	r.Post("/api/v1/orders", func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"order_number":"ORD-20250901-ABCDEF"}}`))
	})
	r.Get("/api/v1/cart", func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryStore()
	var hits atomic.Int32
	router := newIdempotentRouter(store, &hits)

	body := `{"payment_method":"card"}`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "ORD-20250901-ABCDEF")
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemoryStore()
	var hits atomic.Int32
	router := newIdempotentRouter(store, &hits)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"payment_method":"card"}`))
	first.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, first)
	require.Equal(t, http.StatusCreated, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"payment_method":"paypal"}`))
	second.Header.Set("Idempotency-Key", "key-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, second)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, int32(1), hits.Load())
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	store := newMemoryStore()
	var hits atomic.Int32
	router := newIdempotentRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(0), hits.Load())
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newMemoryStore()
	var hits atomic.Int32
	router := newIdempotentRouter(store, &hits)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), hits.Load())
	assert.Empty(t, store.values)
}
