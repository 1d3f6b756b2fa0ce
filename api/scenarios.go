/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with a realistic
	team. Every seeded request goes through the same admission path as a
	real one, so a scenario that loads is also a consistency check.

AVAILABLE SCENARIOS:

	half-day-mix:     Complementary half days and a rejected overlap
	balance-squeeze:  Work-remote allowance of 5 with 3.5 already used
	busy-team:        Several people with a week of mixed leave

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Sign up a manager (first user) and members
 3. Set work-remote allowances
 4. Create requests through admission, relative to next Monday
 5. Approve or reject some of them

USAGE VIA API:

	POST /api/scenarios/load
	{"id": "balance-squeeze"}

All demo accounts use the password "password123".

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
	Seeding does not send notifications.

SEE ALSO:
  - handlers.go: Handler definition
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/notify"
	"github.com/warp/pto-tracker/timeoff"
)

const demoPassword = "password123"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "half-day-mix",
		Name:        "Half-Day Mix",
		Description: "First-half PTO with second-half WFH on the same day, plus a rejected overlap",
		Category:    "conflicts",
	},
	{
		ID:          "balance-squeeze",
		Name:        "Balance Squeeze",
		Description: "Work-remote allowance of 5 days with 3.5 already used",
		Category:    "balance",
	},
	{
		ID:          "busy-team",
		Name:        "Busy Team",
		Description: "Four people with a week of mixed PTO and WFH",
		Category:    "calendar",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var body LoadScenarioRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}

	if err := h.loadScenario(r.Context(), body.ID, generic.Today()); err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": body.ID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.HandleError(w, r, fmt.Errorf("reset database: %w", err))
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) loadScenario(ctx context.Context, id string, today generic.TimePoint) error {
	var loader func(context.Context, *seeder) error
	switch id {
	case "half-day-mix":
		loader = loadHalfDayMixScenario
	case "balance-squeeze":
		loader = loadBalanceSqueezeScenario
	case "busy-team":
		loader = loadBusyTeamScenario
	default:
		return fmt.Errorf("%w: unknown scenario %q", timeoff.ErrInvalidInput, id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset database: %w", err)
	}
	h.currentScenario = ""

	// Seed through a quiet copy of the service.
	quiet := *h.Service
	quiet.Notifier = notify.Discard{}
	s := &seeder{svc: &quiet, monday: nextMonday(today)}
	if err := loader(ctx, s); err != nil {
		return fmt.Errorf("load scenario %s: %w", id, err)
	}

	h.currentScenario = id
	h.Logger.Info().Str("scenario", id).Msg("scenario loaded")
	return nil
}

// nextMonday is the first Monday strictly after today.
func nextMonday(today generic.TimePoint) generic.TimePoint {
	offset := (int(time.Monday) - int(today.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return today.AddDays(offset)
}

// =============================================================================
// SEEDING HELPERS
// =============================================================================

type seeder struct {
	svc     *timeoff.Service
	monday  generic.TimePoint
	manager auth.Principal
}

func (s *seeder) member(ctx context.Context, name, email string) (auth.Principal, error) {
	u, err := s.svc.Signup(ctx, name, email, demoPassword)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("signup %s: %w", email, err)
	}
	p := u.Principal()
	if p.IsManager() && s.manager.ID == "" {
		s.manager = p
	}
	return p, nil
}

func (s *seeder) allowance(ctx context.Context, p auth.Principal, days int64) error {
	return s.svc.SetBalance(ctx, s.manager, p.ID, false, generic.Days(decimal.NewFromInt(days)))
}

// request creates a request spanning weekday offsets from the seeded Monday.
func (s *seeder) request(ctx context.Context, p auth.Principal, reason timeoff.Reason, startOffset, endOffset int, notes string) (timeoff.Request, error) {
	req, err := s.svc.Create(ctx, p, timeoff.Draft{
		Reason: reason,
		Start:  s.monday.AddDays(startOffset).Time,
		End:    s.monday.AddDays(endOffset).Time,
		Notes:  notes,
	})
	if err != nil {
		return timeoff.Request{}, fmt.Errorf("%s %s: %w", p.Name, reason, err)
	}
	return req, nil
}

func (s *seeder) decide(ctx context.Context, req timeoff.Request, status timeoff.Status, note string) error {
	_, err := s.svc.Decide(ctx, s.manager, req.ID, status, note)
	return err
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadHalfDayMixScenario(ctx context.Context, s *seeder) error {
	if _, err := s.member(ctx, "Maya Patel", "maya@example.com"); err != nil {
		return err
	}
	ravi, err := s.member(ctx, "Ravi Kumar", "ravi@example.com")
	if err != nil {
		return err
	}
	lena, err := s.member(ctx, "Lena Park", "lena@example.com")
	if err != nil {
		return err
	}
	for _, p := range []auth.Principal{ravi, lena} {
		if err := s.allowance(ctx, p, 8); err != nil {
			return err
		}
	}

	// Ravi: dentist in the morning, works from home in the afternoon.
	morning, err := s.request(ctx, ravi, timeoff.ReasonFirstHalfPTO, 0, 0, "Dentist appointment")
	if err != nil {
		return err
	}
	if err := s.decide(ctx, morning, timeoff.StatusApproved, ""); err != nil {
		return err
	}
	if _, err := s.request(ctx, ravi, timeoff.ReasonSecondHalfWorkRemote, 0, 0, "Recovering at home"); err != nil {
		return err
	}

	// Lena: remote Thursday was rejected, so PTO on the same day is admitted.
	remote, err := s.request(ctx, lena, timeoff.ReasonWorkRemote, 3, 3, "Waiting for a delivery")
	if err != nil {
		return err
	}
	if err := s.decide(ctx, remote, timeoff.StatusRejected, "Team offsite that day"); err != nil {
		return err
	}
	_, err = s.request(ctx, lena, timeoff.ReasonPTO, 3, 4, "Long weekend")
	return err
}

func loadBalanceSqueezeScenario(ctx context.Context, s *seeder) error {
	if _, err := s.member(ctx, "Maya Patel", "maya@example.com"); err != nil {
		return err
	}
	sam, err := s.member(ctx, "Sam Rivera", "sam@example.com")
	if err != nil {
		return err
	}
	if err := s.allowance(ctx, sam, 5); err != nil {
		return err
	}

	remote, err := s.request(ctx, sam, timeoff.ReasonWorkRemote, 0, 2, "Contractor at the house")
	if err != nil {
		return err
	}
	if err := s.decide(ctx, remote, timeoff.StatusApproved, "Fine by me"); err != nil {
		return err
	}
	_, err = s.request(ctx, sam, timeoff.ReasonFirstHalfWorkRemote, 3, 3, "Internet install")
	return err
}

func loadBusyTeamScenario(ctx context.Context, s *seeder) error {
	if _, err := s.member(ctx, "Maya Patel", "maya@example.com"); err != nil {
		return err
	}
	names := []struct{ name, email string }{
		{"Ravi Kumar", "ravi@example.com"},
		{"Lena Park", "lena@example.com"},
		{"Sam Rivera", "sam@example.com"},
		{"Noor Haddad", "noor@example.com"},
	}
	members := make([]auth.Principal, 0, len(names))
	for _, n := range names {
		p, err := s.member(ctx, n.name, n.email)
		if err != nil {
			return err
		}
		if err := s.allowance(ctx, p, 10); err != nil {
			return err
		}
		members = append(members, p)
	}

	type seed struct {
		who        int
		reason     timeoff.Reason
		start, end int
		notes      string
		status     timeoff.Status
	}
	seeds := []seed{
		{0, timeoff.ReasonPTO, 0, 1, "Family visit", timeoff.StatusApproved},
		{0, timeoff.ReasonWorkRemote, 2, 2, "Train strike", timeoff.StatusPending},
		{1, timeoff.ReasonWorkRemote, 0, 4, "Remote week", timeoff.StatusApproved},
		{2, timeoff.ReasonSecondHalfPTO, 1, 1, "School play", timeoff.StatusPending},
		{2, timeoff.ReasonFirstHalfWorkRemote, 1, 1, "Plumber visit", timeoff.StatusApproved},
		{3, timeoff.ReasonPTO, 3, 7, "Vacation", timeoff.StatusRejected},
		{3, timeoff.ReasonPTO, 4, 4, "Moving day", timeoff.StatusPending},
	}
	for _, sd := range seeds {
		req, err := s.request(ctx, members[sd.who], sd.reason, sd.start, sd.end, sd.notes)
		if err != nil {
			return err
		}
		if sd.status != timeoff.StatusPending {
			if err := s.decide(ctx, req, sd.status, ""); err != nil {
				return err
			}
		}
	}
	return nil
}
