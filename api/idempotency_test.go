package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/timeoff"
)

func TestCreateRequest_IdempotencyKey(t *testing.T) {
	// GIVEN: Redis-backed idempotency keys
	// WHEN: The same create is sent twice with one key and once with another
	// THEN: The repeat is replayed and the new key hits the conflict check

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := newTestAPI(t, withRedis(rdb))
	managerToken, _, token := a.team()

	first := a.do(http.MethodPost, "/api/requests", token, draftBody(timeoff.ReasonPTO, mon, mon), IdempotencyHeader, "abc-123")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	// Without the cache this would be a conflict.
	second := a.do(http.MethodPost, "/api/requests", token, draftBody(timeoff.ReasonPTO, mon, mon), IdempotencyHeader, "abc-123")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	third := a.do(http.MethodPost, "/api/requests", token, draftBody(timeoff.ReasonPTO, mon, mon), IdempotencyHeader, "abc-456")
	assert.Equal(t, http.StatusConflict, third.Code)

	var list []RequestDTO
	rec := a.do(http.MethodGet, "/api/requests", managerToken, nil)
	decode(t, rec, &list)
	assert.Len(t, list, 1)
}

func TestCreateRequest_IdempotencyInFlight(t *testing.T) {
	// GIVEN: A lock held by a first attempt still running
	// WHEN: A retry arrives with the same key
	// THEN: 409 PROCESSING

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := newTestAPI(t, withRedis(rdb))
	_, employeeID, token := a.team()

	// Simulate a first attempt that is still running.
	require.NoError(t, mr.Set(fmt.Sprintf("idemp:/api/requests:%s:k1:lock", employeeID), "locked"))

	rec := a.do(http.MethodPost, "/api/requests", token, draftBody(timeoff.ReasonPTO, mon, mon), IdempotencyHeader, "k1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "PROCESSING", body.Code)
}

func TestIdempotency_RedisDownFailsOpen(t *testing.T) {
	// GIVEN: Redis that has gone away
	// WHEN: A create arrives with a key
	// THEN: The request is served without replay

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	a := newTestAPI(t, withRedis(rdb))
	_, _, token := a.team()
	mr.Close()

	rec := a.do(http.MethodPost, "/api/requests", token, draftBody(timeoff.ReasonPTO, mon, mon), IdempotencyHeader, "k1")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Header().Get(ReplayedHeader))
}

func TestIdempotency_CancelledRequestStillReleasesAndCaches(t *testing.T) {
	// GIVEN: A handler whose request context is cancelled while it runs
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := Idempotency(rdb, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		writeJSON(w, http.StatusCreated, map[string]string{"id": "req-1"})
	}))

	principal := auth.Principal{ID: "emp-1", Role: auth.RoleUser}
	req := httptest.NewRequest(http.MethodPost, "/api/requests", nil)
	req = req.WithContext(context.WithValue(ctx, principalKey{}, principal))
	req.Header.Set(IdempotencyHeader, "k1")

	// WHEN: The request completes after the cancellation
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	// THEN: The lock is gone and the response is cached for replay
	assert.False(t, mr.Exists("idemp:/api/requests:emp-1:k1:lock"))
	assert.True(t, mr.Exists("idemp:/api/requests:emp-1:k1"))
}
