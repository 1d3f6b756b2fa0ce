package timeoff

import (
	"strings"
	"time"

	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
)

// =============================================================================
// ADMISSION - Validation pipeline for create and edit
// =============================================================================
//
// Order (first failure wins, nothing is mutated on failure):
//   1. required fields
//   2. known reason
//   3. start <= end
//   4. neither edge on a weekend
//   5. at least one weekday
//   6. half-day spans exactly one day
//   7. no conflict with the owner's other active requests
//   8. work-remote cost fits the remaining allowance
//
// Admit is pure: callers load the owner's requests and allowance first and
// persist the result afterwards.

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Draft is the raw candidate as submitted. Zero dates mean "not provided".
type Draft struct {
	Reason Reason
	Start  time.Time
	End    time.Time
	Notes  string
}

type AdmissionInput struct {
	Mode      Mode
	Draft     Draft
	Existing  []Request // all of the owner's requests, any status
	SelfID    string    // request being edited, excluded from checks
	Allowance generic.Amount
}

// Admitted holds the normalized fields ready to persist.
type Admitted struct {
	Reason       Reason
	Start        generic.TimePoint
	End          generic.TimePoint
	Notes        string
	Status       Status
	ApproverID   string
	ApprovalNote string
	Cost         generic.Amount
}

// Apply copies the admitted fields onto r and resets its approval state.
func (a Admitted) Apply(r *Request) {
	r.Reason = a.Reason
	r.Start = a.Start
	r.End = a.End
	r.Notes = a.Notes
	r.Status = a.Status
	r.ApproverID = a.ApproverID
	r.ApprovalNote = a.ApprovalNote
}

func Admit(in AdmissionInput) (Admitted, error) {
	d := in.Draft

	var missing []string
	if d.Reason == "" {
		missing = append(missing, "reason")
	}
	if d.Start.IsZero() {
		missing = append(missing, "startDate")
	}
	if d.End.IsZero() {
		missing = append(missing, "endDate")
	}
	if strings.TrimSpace(d.Notes) == "" {
		missing = append(missing, "notes")
	}
	if len(missing) > 0 {
		return Admitted{}, &MissingFieldsError{Fields: missing}
	}

	info, err := LookupReason(d.Reason)
	if err != nil {
		return Admitted{}, err
	}

	start := generic.NormalizeDate(d.Start)
	end := generic.NormalizeDate(d.End)
	if start.After(end) {
		return Admitted{}, &InvalidRangeError{Start: start, End: end, Detail: "end date is before start date"}
	}

	if start.IsWeekend() {
		return Admitted{}, &WeekendDateError{Endpoint: EndpointStart, Date: start}
	}
	if end.IsWeekend() {
		return Admitted{}, &WeekendDateError{Endpoint: EndpointEnd, Date: end}
	}
	if len(generic.WeekdaysInRange(start, end)) == 0 {
		return Admitted{}, &EmptyWeekdayRangeError{Start: start, End: end}
	}
	if info.IsHalfDay() && !start.Equal(end) {
		return Admitted{}, &InvalidRangeError{Start: start, End: end, Detail: "a half-day request must start and end on the same day"}
	}

	selfID := ""
	if in.Mode == ModeEdit {
		selfID = in.SelfID
	}
	active := ActiveRequests(in.Existing, selfID)

	candidate := Candidate{Reason: info.Reason, Start: start, End: end}
	result, err := DetectConflict(candidate, active)
	if err != nil {
		return Admitted{}, err
	}
	if err := result.Err(); err != nil {
		return Admitted{}, err
	}

	cost := costOf(info, start, end)
	if info.WorkRemote {
		remaining, err := Remaining(in.Allowance, active)
		if err != nil {
			return Admitted{}, err
		}
		// An edit may keep what the request already holds even if the
		// allowance has since dropped below it.
		held, err := heldBy(in.Existing, selfID)
		if err != nil {
			return Admitted{}, err
		}
		if cost.GreaterThan(remaining) && cost.GreaterThan(held) {
			return Admitted{}, &InsufficientBalanceError{Requested: cost, Remaining: remaining}
		}
	}

	return Admitted{
		Reason: info.Reason,
		Start:  start,
		End:    end,
		Notes:  strings.TrimSpace(d.Notes),
		Status: StatusPending,
		Cost:   cost,
	}, nil
}

// heldBy is the work-remote cost currently held by the request with id.
func heldBy(requests []Request, id string) (generic.Amount, error) {
	if id == "" {
		return generic.ZeroDays(), nil
	}
	for _, r := range requests {
		if r.ID == id {
			return ConsumedWorkRemoteDays([]Request{r})
		}
	}
	return generic.ZeroDays(), nil
}

// =============================================================================
// PERMISSIONS AND DECISIONS
// =============================================================================

// CanEdit allows the owner to edit a pending or approved request.
func CanEdit(actor auth.Principal, r Request) error {
	if actor.ID != r.OwnerID {
		return ErrForbidden
	}
	if r.Status == StatusRejected {
		return ErrNotEditable
	}
	return nil
}

// CanDelete allows managers to delete anything and owners to withdraw a
// pending or approved request.
func CanDelete(actor auth.Principal, r Request) error {
	if actor.IsManager() {
		return nil
	}
	if actor.ID != r.OwnerID {
		return ErrForbidden
	}
	if r.Status == StatusRejected {
		return ErrNotDeletable
	}
	return nil
}

// Decide records a manager's approval or rejection. Conflicts and balance are
// not re-checked; they were enforced at admission.
func Decide(actor auth.Principal, r Request, status Status, note string) (Request, error) {
	if !actor.IsManager() {
		return Request{}, ErrForbidden
	}
	if status != StatusApproved && status != StatusRejected {
		return Request{}, ErrInvalidStatus
	}
	r.Status = status
	r.ApproverID = actor.ID
	r.ApprovalNote = strings.TrimSpace(note)
	return r, nil
}
