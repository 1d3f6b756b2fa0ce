package timeoff

import (
	"github.com/warp/pto-tracker/generic"
)

// =============================================================================
// CONFLICT DETECTOR
// =============================================================================
//
// Two requests conflict when their inclusive spans overlap and the day types
// cannot share a day:
//
//   full day  + anything          -> HARD
//   half FIRST + half FIRST       -> SAME_HALF_DUPLICATE if same code, else HARD
//   half SECOND + half SECOND     -> same as above
//   half FIRST + half SECOND      -> no conflict
//
// The detector reports the first conflicting request in input order.

type ConflictKind string

const (
	ConflictHard              ConflictKind = "HARD"
	ConflictSameHalfDuplicate ConflictKind = "SAME_HALF_DUPLICATE"
)

// Candidate is the leave being admitted.
type Candidate struct {
	Reason Reason
	Start  generic.TimePoint
	End    generic.TimePoint
}

func (c Candidate) Period() generic.Period {
	return generic.Period{Start: c.Start, End: c.End}
}

// ConflictResult is either no conflict or the request that blocks the candidate.
type ConflictResult struct {
	Conflict bool
	Kind     ConflictKind
	Against  Request
}

// Err converts a conflict into the error reported to the requester.
func (cr ConflictResult) Err() error {
	if !cr.Conflict {
		return nil
	}
	info, _ := LookupReason(cr.Against.Reason)
	return &SchedulingConflictError{
		Kind:      cr.Kind,
		AgainstID: cr.Against.ID,
		Reason:    cr.Against.Reason,
		Label:     info.Label,
		Start:     cr.Against.Start,
		End:       cr.Against.End,
	}
}

// DetectConflict checks candidate against existing. existing must already
// exclude rejected requests and, on edit, the request being replaced.
func DetectConflict(candidate Candidate, existing []Request) (ConflictResult, error) {
	cInfo, err := LookupReason(candidate.Reason)
	if err != nil {
		return ConflictResult{}, err
	}

	span := candidate.Period()
	for _, ex := range existing {
		if !span.Overlaps(ex.Period()) {
			continue
		}
		exInfo, err := LookupReason(ex.Reason)
		if err != nil {
			return ConflictResult{}, err
		}
		if kind, ok := classify(cInfo, exInfo); ok {
			return ConflictResult{Conflict: true, Kind: kind, Against: ex}, nil
		}
	}
	return ConflictResult{}, nil
}

func classify(a, b ReasonInfo) (ConflictKind, bool) {
	if !a.IsHalfDay() || !b.IsHalfDay() {
		return ConflictHard, true
	}
	if a.Slot != b.Slot {
		return "", false
	}
	if a.Reason == b.Reason {
		return ConflictSameHalfDuplicate, true
	}
	return ConflictHard, true
}

// ActiveRequests drops rejected requests and the one with excludeID.
func ActiveRequests(requests []Request, excludeID string) []Request {
	active := make([]Request, 0, len(requests))
	for _, r := range requests {
		if r.Status == StatusRejected {
			continue
		}
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		active = append(active, r)
	}
	return active
}
