package idempotency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
)

type counter struct{ calls int }

func newRouter(store Store, c *counter, status int) (*gin.Engine, *metrics.Metrics) {
	gin.SetMode(gin.TestMode)
	m := metrics.New(metrics.DefaultConfig("test-service"))
	config := DefaultConfig("test-service", store, logging.Discard())
	config.Metrics = m

	router := gin.New()
	router.Use(Middleware(config))
	handler := func(ctx *gin.Context) {
		c.calls++
		ctx.JSON(status, gin.H{"call": c.calls})
	}
	router.POST("/plans", handler)
	router.GET("/plans", handler)
	return router, m
}

func send(router http.Handler, method, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/plans", strings.NewReader(body))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func callNumber(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["call"]
}

func TestReplayReturnsStoredResponse(t *testing.T) {
	c := &counter{}
	router, _ := newRouter(NewMemoryStore(), c, http.StatusCreated)

	first := send(router, http.MethodPost, "plan-1", `{"warehouseId":"WH-1"}`)
	second := send(router, http.MethodPost, "plan-1", `{"warehouseId":"WH-1"}`)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, 1, callNumber(t, second))
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
	assert.Empty(t, first.Header().Get(HeaderReplayed))
	assert.Equal(t, 1, c.calls)
}

func TestRequestsWithoutKeyPassThrough(t *testing.T) {
	c := &counter{}
	store := NewMemoryStore()
	router, _ := newRouter(store, c, http.StatusCreated)

	send(router, http.MethodPost, "", `{}`)
	send(router, http.MethodPost, "", `{}`)
	send(router, http.MethodGet, "get-key", "")

	assert.Equal(t, 3, c.calls)
	assert.Zero(t, store.Len())
}

func TestDifferentBodyIsRejected(t *testing.T) {
	c := &counter{}
	router, m := newRouter(NewMemoryStore(), c, http.StatusCreated)

	send(router, http.MethodPost, "plan-1", `{"warehouseId":"WH-1"}`)
	rec := send(router, http.MethodPost, "plan-1", `{"warehouseId":"WH-2"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNPROCESSABLE_ENTITY")
	assert.Equal(t, 1, c.calls)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotentRequests.WithLabelValues("mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotentRequests.WithLabelValues("new")))
}

func TestInvalidKey(t *testing.T) {
	c := &counter{}
	router, _ := newRouter(NewMemoryStore(), c, http.StatusCreated)

	rec := send(router, http.MethodPost, "not a key!", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(router, http.MethodPost, strings.Repeat("k", 256), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, c.calls)
}

func TestServerErrorReleasesKey(t *testing.T) {
	c := &counter{}
	store := NewMemoryStore()
	router, _ := newRouter(store, c, http.StatusInternalServerError)

	send(router, http.MethodPost, "plan-1", `{}`)
	send(router, http.MethodPost, "plan-1", `{}`)

	assert.Equal(t, 2, c.calls)
	assert.Zero(t, store.Len())
}

func TestRunningRequestConflicts(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now().UTC()
	_, _, err := store.Acquire(context.Background(), &Record{
		ID:          "test-service/plan-1",
		Key:         "plan-1",
		Fingerprint: Fingerprint(http.MethodPost, "/plans", []byte(`{}`)),
		LockedAt:    &now,
		ExpiresAt:   now.Add(time.Hour),
	})
	require.NoError(t, err)

	c := &counter{}
	router, _ := newRouter(store, c, http.StatusCreated)
	rec := send(router, http.MethodPost, "plan-1", `{}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, c.calls)
}

func TestStaleLockIsTakenOver(t *testing.T) {
	store := NewMemoryStore()
	stale := time.Now().UTC().Add(-time.Hour)
	_, _, err := store.Acquire(context.Background(), &Record{
		ID:          "test-service/plan-1",
		Key:         "plan-1",
		Fingerprint: Fingerprint(http.MethodPost, "/plans", []byte(`{}`)),
		LockedAt:    &stale,
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	c := &counter{}
	router, _ := newRouter(store, c, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, send(router, http.MethodPost, "plan-1", `{}`).Code)
	replay := send(router, http.MethodPost, "plan-1", `{}`)
	assert.Equal(t, "true", replay.Header().Get(HeaderReplayed))
	assert.Equal(t, 1, c.calls)
}

// snapshotStore hands out the record as it was before any takeover, the way
// two requests racing on one stale lock both read it.
type snapshotStore struct {
	*MemoryStore
	snapshot Record
}

func (s *snapshotStore) Acquire(context.Context, *Record) (*Record, bool, error) {
	rec := s.snapshot
	return &rec, false, nil
}

func TestStaleLockIsTakenOverOnce(t *testing.T) {
	stale := time.Now().UTC().Add(-time.Hour)
	rec := Record{
		ID:          "test-service/plan-1",
		Key:         "plan-1",
		Fingerprint: Fingerprint(http.MethodPost, "/plans", []byte(`{}`)),
		LockedAt:    &stale,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	memory := NewMemoryStore()
	_, _, err := memory.Acquire(context.Background(), &rec)
	require.NoError(t, err)

	c := &counter{}
	router, m := newRouter(&snapshotStore{MemoryStore: memory, snapshot: rec}, c, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, send(router, http.MethodPost, "plan-1", `{}`).Code)
	assert.Equal(t, http.StatusConflict, send(router, http.MethodPost, "plan-1", `{}`).Code)
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotentRequests.WithLabelValues("in_flight")))
}

func TestMemoryStoreTakeOver(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	stale := time.Now().UTC().Add(-time.Hour)
	_, _, err := store.Acquire(ctx, &Record{ID: "svc/k", LockedAt: &stale, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	now := time.Now().UTC()
	won, err := store.TakeOver(ctx, "svc/k", stale, now)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.TakeOver(ctx, "svc/k", stale, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, won, "the lock already moved")

	require.NoError(t, store.Complete(ctx, "svc/k", Response{StatusCode: http.StatusOK}))
	won, err = store.TakeOver(ctx, "svc/k", now, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, won, "completed records are not locked")

	won, err = store.TakeOver(ctx, "svc/missing", stale, now)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestFingerprintCoversPath(t *testing.T) {
	body := []byte(`{"a":1}`)
	assert.Equal(t, Fingerprint("POST", "/a", body), Fingerprint("POST", "/a", body))
	assert.NotEqual(t, Fingerprint("POST", "/a", body), Fingerprint("POST", "/b", body))
	assert.NotEqual(t, Fingerprint("POST", "/a", body), Fingerprint("POST", "/a", []byte(`{"a":2}`)))
}
