package timeoff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/notify"
)

// =============================================================================
// STORE CONTRACT
// =============================================================================

// RequestFilter narrows ListRequests. Zero fields match everything.
type RequestFilter struct {
	OwnerID string
	Status  Status
	Window  *generic.Period // keep requests overlapping this span
}

// Store is the persistence the request service needs.
type Store interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	SaveUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id string) error
	SetBalance(ctx context.Context, userID string, allowance generic.Amount) error
	SetAllBalances(ctx context.Context, allowance generic.Amount) error

	SaveRequest(ctx context.Context, r Request) error
	GetRequest(ctx context.Context, id string) (*Request, error)
	DeleteRequest(ctx context.Context, id string) error
	ListRequests(ctx context.Context, f RequestFilter) ([]Request, error)
}

// =============================================================================
// REQUEST SERVICE - Admission plus persistence plus fan-out
// =============================================================================

// Service runs the request lifecycle. Notifications are emitted after the
// store write succeeds and never affect the returned result.
type Service struct {
	Store    Store
	Notifier notify.Notifier
	Logger   zerolog.Logger
	AppURL   string

	NewID func() string
	Now   func() time.Time
}

func NewService(store Store, notifier notify.Notifier, logger zerolog.Logger, appURL string) *Service {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Service{
		Store:    store,
		Notifier: notifier,
		Logger:   logger.With().Str("component", "timeoff").Logger(),
		AppURL:   strings.TrimRight(appURL, "/"),
		NewID:    uuid.NewString,
		Now:      time.Now,
	}
}

// Create admits a new request for actor.
func (s *Service) Create(ctx context.Context, actor auth.Principal, d Draft) (Request, error) {
	owner, err := s.requireUser(ctx, actor.ID)
	if err != nil {
		return Request{}, err
	}
	existing, err := s.Store.ListRequests(ctx, RequestFilter{OwnerID: owner.ID})
	if err != nil {
		return Request{}, fmt.Errorf("load requests: %w", err)
	}

	admitted, err := Admit(AdmissionInput{
		Mode:      ModeCreate,
		Draft:     d,
		Existing:  existing,
		Allowance: owner.WorkRemoteBalance,
	})
	if err != nil {
		return Request{}, err
	}

	now := s.Now().UTC()
	req := Request{ID: s.NewID(), OwnerID: owner.ID, CreatedAt: now, UpdatedAt: now}
	admitted.Apply(&req)
	if err := s.Store.SaveRequest(ctx, req); err != nil {
		return Request{}, fmt.Errorf("save request: %w", err)
	}

	s.Logger.Info().Str("request_id", req.ID).Str("user_id", owner.ID).
		Str("reason", string(req.Reason)).Str("cost", admitted.Cost.Value.String()).Msg("request admitted")

	start, end := req.Start.String(), req.End.String()
	s.Notifier.Notify(notify.Event{
		To:      notify.Audience{Managers: true},
		Title:   "New Time-Off Request",
		Message: fmt.Sprintf("%s has requested %s from %s to %s", owner.Name, req.Reason.Phrase(), start, end),
		Link:    "/approvals",
		Card: &notify.Card{
			Title:   "New Time-Off Request",
			Message: fmt.Sprintf("**%s** has requested leave.", owner.Name),
			User:    owner.Name,
			Reason:  req.Reason.Phrase(),
			Start:   start,
			End:     end,
			Link:    fmt.Sprintf("%s/approvals?highlight=%s", s.AppURL, req.ID),
		},
	})
	return req, nil
}

// Edit re-admits an owner's request and resets it to PENDING.
func (s *Service) Edit(ctx context.Context, actor auth.Principal, id string, d Draft) (Request, error) {
	req, err := s.requireRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if err := CanEdit(actor, *req); err != nil {
		return Request{}, err
	}
	owner, err := s.requireUser(ctx, req.OwnerID)
	if err != nil {
		return Request{}, err
	}
	existing, err := s.Store.ListRequests(ctx, RequestFilter{OwnerID: owner.ID})
	if err != nil {
		return Request{}, fmt.Errorf("load requests: %w", err)
	}

	admitted, err := Admit(AdmissionInput{
		Mode:      ModeEdit,
		Draft:     d,
		Existing:  existing,
		SelfID:    req.ID,
		Allowance: owner.WorkRemoteBalance,
	})
	if err != nil {
		return Request{}, err
	}

	updated := *req
	admitted.Apply(&updated)
	updated.UpdatedAt = s.Now().UTC()
	if err := s.Store.SaveRequest(ctx, updated); err != nil {
		return Request{}, fmt.Errorf("save request: %w", err)
	}

	s.Logger.Info().Str("request_id", updated.ID).Str("previous_status", string(req.Status)).Msg("request edited")

	s.Notifier.Notify(notify.Event{
		To:    notify.Audience{Managers: true},
		Title: "Request Edited",
		Message: fmt.Sprintf("%s has edited their %s request (%s - %s). It requires re-approval.",
			owner.Name, updated.Reason.Phrase(), updated.Start, updated.End),
		Link: "/approvals",
	})
	return updated, nil
}

// Decide approves or rejects a request on behalf of a manager.
func (s *Service) Decide(ctx context.Context, actor auth.Principal, id string, status Status, note string) (Request, error) {
	req, err := s.requireRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	decided, err := Decide(actor, *req, status, note)
	if err != nil {
		return Request{}, err
	}
	decided.UpdatedAt = s.Now().UTC()
	if err := s.Store.SaveRequest(ctx, decided); err != nil {
		return Request{}, fmt.Errorf("save request: %w", err)
	}

	s.Logger.Info().Str("request_id", id).Str("status", string(status)).Str("approver_id", actor.ID).Msg("request decided")

	verb := strings.ToLower(string(status))
	msg := fmt.Sprintf("Your %s request has been %s by %s", decided.Reason.Phrase(), verb, actor.Name)
	if decided.ApprovalNote != "" {
		msg += ": " + decided.ApprovalNote
	}
	s.Notifier.Notify(notify.Event{
		To:      notify.Audience{UserIDs: []string{decided.OwnerID}},
		Title:   "Request " + verb,
		Message: msg,
		Link:    "/requests",
	})
	return decided, nil
}

// Delete removes a request if actor is allowed to.
func (s *Service) Delete(ctx context.Context, actor auth.Principal, id string) error {
	req, err := s.requireRequest(ctx, id)
	if err != nil {
		return err
	}
	if err := CanDelete(actor, *req); err != nil {
		return err
	}
	if err := s.Store.DeleteRequest(ctx, id); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	s.Logger.Info().Str("request_id", id).Str("actor_id", actor.ID).Msg("request deleted")

	ownerName := req.OwnerID
	if owner, err := s.Store.GetUser(ctx, req.OwnerID); err == nil && owner != nil {
		ownerName = owner.Name
	}
	span := fmt.Sprintf("(%s - %s)", req.Start, req.End)

	var managerMsg string
	if actor.ID == req.OwnerID {
		managerMsg = fmt.Sprintf("%s has cancelled the %s request %s.", ownerName, req.Reason.Phrase(), span)
	} else {
		managerMsg = fmt.Sprintf("%s has deleted the %s request %s.", actor.Name, req.Reason.Phrase(), span)
	}
	s.Notifier.Notify(notify.Event{
		To:      notify.Audience{Managers: true, Except: actor.ID},
		Title:   "Request Deleted",
		Message: managerMsg,
		Link:    "/approvals",
	})

	if actor.ID != req.OwnerID {
		s.Notifier.Notify(notify.Event{
			To:      notify.Audience{UserIDs: []string{req.OwnerID}},
			Title:   "Request Deleted by Manager",
			Message: fmt.Sprintf("Your %s request %s has been deleted by %s.", req.Reason.Phrase(), span, actor.Name),
			Link:    "/requests",
		})
	}
	return nil
}

// Get returns a request visible to actor.
func (s *Service) Get(ctx context.Context, actor auth.Principal, id string) (Request, error) {
	req, err := s.requireRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !actor.IsManager() && req.OwnerID != actor.ID {
		return Request{}, ErrForbidden
	}
	return *req, nil
}

// ListQuery is the caller-facing list filter.
type ListQuery struct {
	UserID   string
	Status   Status
	Window   *generic.Period
	Calendar bool // calendar view shows everyone's requests
}

// List applies visibility: users see their own, managers see everyone or one user.
func (s *Service) List(ctx context.Context, actor auth.Principal, q ListQuery) ([]Request, error) {
	f := RequestFilter{Status: q.Status, Window: q.Window}
	if !q.Calendar {
		if !actor.IsManager() {
			f.OwnerID = actor.ID
		} else {
			f.OwnerID = q.UserID
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.Store.ListRequests(ctx, f)
}

// =============================================================================
// BALANCES
// =============================================================================

// MemberBalance is one row of the team balance listing.
type MemberBalance struct {
	User    User
	Balance BalanceSummary
}

// RemainingFor reports one user's work-remote balance.
func (s *Service) RemainingFor(ctx context.Context, userID string) (BalanceSummary, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return BalanceSummary{}, err
	}
	reqs, err := s.Store.ListRequests(ctx, RequestFilter{OwnerID: userID})
	if err != nil {
		return BalanceSummary{}, fmt.Errorf("load requests: %w", err)
	}
	return Summarize(user.WorkRemoteBalance, reqs)
}

// TeamBalances reports every user's work-remote balance, ordered by name.
func (s *Service) TeamBalances(ctx context.Context, actor auth.Principal) ([]MemberBalance, error) {
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	all, err := s.Store.ListRequests(ctx, RequestFilter{})
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	byOwner := make(map[string][]Request)
	for _, r := range all {
		byOwner[r.OwnerID] = append(byOwner[r.OwnerID], r)
	}

	out := make([]MemberBalance, 0, len(users))
	for _, u := range users {
		summary, err := Summarize(u.WorkRemoteBalance, byOwner[u.ID])
		if err != nil {
			return nil, fmt.Errorf("balance for %s: %w", u.ID, err)
		}
		out = append(out, MemberBalance{User: u, Balance: summary})
	}
	return out, nil
}

// SetBalance sets one user's allowance, or everyone's when userID is empty and all is true.
func (s *Service) SetBalance(ctx context.Context, actor auth.Principal, userID string, all bool, allowance generic.Amount) error {
	if !actor.IsManager() {
		return ErrForbidden
	}
	if !ValidAllowance(allowance.Value) {
		return fmt.Errorf("%w: balance must be a non-negative whole number of days", ErrInvalidInput)
	}
	allowance = generic.Days(allowance.Value)
	if all {
		if err := s.Store.SetAllBalances(ctx, allowance); err != nil {
			return fmt.Errorf("set all balances: %w", err)
		}
		s.Logger.Info().Str("allowance", allowance.Value.String()).Msg("balance set for all users")
		return nil
	}
	if userID == "" {
		return fmt.Errorf("%w: userId or setAll is required", ErrInvalidInput)
	}
	if _, err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if err := s.Store.SetBalance(ctx, userID, allowance); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	s.Logger.Info().Str("user_id", userID).Str("allowance", allowance.Value.String()).Msg("balance set")
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) requireUser(ctx context.Context, id string) (*User, error) {
	u, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, &generic.NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}

func (s *Service) requireRequest(ctx context.Context, id string) (*Request, error) {
	r, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if r == nil {
		return nil, &generic.NotFoundError{Kind: "request", ID: id}
	}
	return r, nil
}
