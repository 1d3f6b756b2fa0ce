package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/notify"
	"github.com/warp/pto-tracker/store/sqlite"
	"github.com/warp/pto-tracker/timeoff"
)

// syncNotifier delivers inline so tests can read notifications right away.
type syncNotifier struct{ d *notify.Dispatcher }

func (n syncNotifier) Notify(e notify.Event) { _ = n.d.Deliver(context.Background(), e) }

type testAPI struct {
	t        *testing.T
	router   http.Handler
	handler  *Handler
	store    *sqlite.Store
	registry *prometheus.Registry
}

type testOption func(*RouterOptions)

func withRedis(rdb *redis.Client) testOption {
	return func(o *RouterOptions) { o.Redis = rdb }
}

func withRateLimit(rps float64, burst int) testOption {
	return func(o *RouterOptions) { o.RateLimitRPS, o.RateLimitBurst = rps, burst }
}

func newTestAPI(t *testing.T, opts ...testOption) *testAPI {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := zerolog.Nop()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	dispatcher := notify.NewDispatcher(store, nil, logger, notify.Options{Recorder: metrics})

	svc := timeoff.NewService(store, syncNotifier{dispatcher}, logger, "http://localhost:5173")
	tokens := auth.NewTokenService("test-secret-test-secret-test-secret", time.Hour)
	h := NewHandler(svc, store, tokens, metrics, logger)

	ro := RouterOptions{Gatherer: registry, EnableScenarios: true}
	for _, opt := range opts {
		opt(&ro)
	}
	return &testAPI{t: t, router: NewRouter(h, ro), handler: h, store: store, registry: registry}
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// signup registers an account and returns its id and a login token.
func (a *testAPI) signup(name, email string) (id, token string) {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/signup", "", SignupRequest{Name: name, Email: email, Password: "password123"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]string
	decode(a.t, rec, &created)

	rec = a.do(http.MethodPost, "/api/login", "", LoginRequest{Email: email, Password: "password123"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var login LoginResponse
	decode(a.t, rec, &login)
	return created["id"], login.Token
}

// team signs up a manager and one employee with a work-remote allowance of 5.
func (a *testAPI) team() (managerToken, employeeID, employeeToken string) {
	a.t.Helper()

	_, managerToken = a.signup("Grace Hopper", "grace@example.com")
	employeeID, employeeToken = a.signup("Ada Lovelace", "ada@example.com")

	rec := a.do(http.MethodPatch, "/api/team/balance", managerToken, map[string]any{"userId": employeeID, "balance": 5})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return managerToken, employeeID, employeeToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func draftBody(reason timeoff.Reason, start, end string) DraftRequest {
	return DraftRequest{Reason: string(reason), StartDate: start, EndDate: end, Notes: "out"}
}
