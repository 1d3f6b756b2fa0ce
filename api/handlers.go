/*
handlers.go - HTTP API handlers for leave requests

PURPOSE:
  Exposes the request lifecycle via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to timeoff.Service.

ENDPOINTS:
  Requests:
    GET    /api/requests        List (own, all for managers, or calendar view)
    GET    /api/requests/{id}   Get one (owner or manager)
    POST   /api/requests        Create, runs admission
    PATCH  /api/requests/{id}   Manager decision or owner edit
    DELETE /api/requests/{id}   Delete

  Accounts:       see account.go
  Team:           see team.go
  Notifications:  see notifications.go
  Export:         see export.go
  Scenarios:      see scenarios.go

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service: Admission, persistence and notification fan-out
  - Store: Notification feed and demo reset
  - Tokens: JWT issuing for login

REQUEST FLOW:
  1. Parse HTTP request
  2. Read the caller from context (Authenticator middleware)
  3. Call timeoff.Service
  4. Serialize response
  5. Map errors with HandleError

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: Error to status mapping
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/notify"
	"github.com/warp/pto-tracker/timeoff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the HTTP layer needs beyond the service.
type Store interface {
	notify.Feed
	Reset(ctx context.Context) error
}

// Pinger is implemented by stores that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *timeoff.Service
	Store   Store
	Tokens  *auth.TokenService
	Metrics *Metrics
	Logger  zerolog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(svc *timeoff.Service, store Store, tokens *auth.TokenService, metrics *Metrics, logger zerolog.Logger) *Handler {
	return &Handler{
		Service: svc,
		Store:   store,
		Tokens:  tokens,
		Metrics: metrics,
		Logger:  logger.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

// ListRequests returns requests visible to the caller.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := timeoff.ListQuery{
		UserID:   q.Get("userId"),
		Status:   timeoff.Status(q.Get("status")),
		Calendar: q.Get("view") == "calendar",
	}
	if q.Get("startDate") != "" && q.Get("endDate") != "" {
		window, err := parseWindow(q.Get("startDate"), q.Get("endDate"))
		if err != nil {
			h.HandleError(w, r, err)
			return
		}
		query.Window = &window
	}

	reqs, err := h.Service.List(r.Context(), principalFrom(r), query)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	users, err := h.Service.Directory(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs, users))
}

// GetRequest returns one request if the caller may see it.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Service.Get(r.Context(), principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.decorate(r.Context(), req))
}

// CreateRequest admits a new request for the caller.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var body DraftRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}
	draft, err := body.toDraft()
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	req, err := h.Service.Create(r.Context(), principalFrom(r), draft)
	h.Metrics.Admission(err)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.decorate(r.Context(), req))
}

// UpdateRequest decides (manager, status set) or edits (owner) a request.
func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body UpdateRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}
	actor := principalFrom(r)

	var (
		req timeoff.Request
		err error
	)
	if body.Status != "" {
		req, err = h.Service.Decide(r.Context(), actor, id, timeoff.Status(body.Status), body.ApprovalNote)
	} else {
		var draft timeoff.Draft
		draft, err = body.toDraft()
		if err == nil {
			req, err = h.Service.Edit(r.Context(), actor, id, draft)
			h.Metrics.Admission(err)
		}
	}
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.decorate(r.Context(), req))
}

// DeleteRequest removes a request.
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), principalFrom(r), chi.URLParam(r, "id")); err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Health reports whether the store answers. Stores without Ping are assumed up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			h.Logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decorate adds owner and approver names; lookup failures leave them out.
func (h *Handler) decorate(ctx context.Context, req timeoff.Request) RequestDTO {
	users, err := h.Service.Directory(ctx)
	if err != nil {
		h.Logger.Warn().Err(err).Str("request_id", req.ID).Msg("failed to load directory")
	}
	return toRequestDTO(req, users)
}

func parseWindow(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, fmt.Errorf("%w: startDate %q is not a date", timeoff.ErrInvalidInput, start)
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("%w: endDate %q is not a date", timeoff.ErrInvalidInput, end)
	}
	window := generic.Period{Start: s, End: e}
	if !window.Valid() {
		return generic.Period{}, fmt.Errorf("%w: endDate is before startDate", timeoff.ErrInvalidInput)
	}
	return window, nil
}

// decodeJSON reads a JSON body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid request body", timeoff.ErrInvalidInput)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
