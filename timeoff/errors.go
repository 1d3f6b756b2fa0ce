package timeoff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/pto-tracker/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrMissingFields       = errors.New("all fields are required")
	ErrWeekendDate         = errors.New("date falls on a weekend")
	ErrEmptyWeekdayRange   = errors.New("range contains no weekdays")
	ErrInvalidRange        = errors.New("invalid date range")
	ErrSchedulingConflict  = errors.New("scheduling conflict")
	ErrInsufficientBalance = generic.ErrInsufficientBalance
	ErrUnknownReason       = errors.New("unknown reason")

	// Permission and state errors
	ErrForbidden     = errors.New("forbidden")
	ErrNotEditable   = errors.New("request can no longer be edited")
	ErrNotDeletable  = errors.New("request can no longer be deleted")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidInput  = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("all fields are required: missing %s", strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingFields }

// Endpoint says which edge of a range an error refers to.
type Endpoint string

const (
	EndpointStart Endpoint = "start"
	EndpointEnd   Endpoint = "end"
)

type WeekendDateError struct {
	Endpoint Endpoint
	Date     generic.TimePoint
}

func (e *WeekendDateError) Error() string {
	return fmt.Sprintf("%s date %s falls on a weekend, please select a weekday", e.Endpoint, e.Date)
}

func (e *WeekendDateError) Unwrap() error { return ErrWeekendDate }

type EmptyWeekdayRangeError struct {
	Start generic.TimePoint
	End   generic.TimePoint
}

func (e *EmptyWeekdayRangeError) Error() string {
	return fmt.Sprintf("no weekdays between %s and %s", e.Start, e.End)
}

func (e *EmptyWeekdayRangeError) Unwrap() error { return ErrEmptyWeekdayRange }

type InvalidRangeError struct {
	Start  generic.TimePoint
	End    generic.TimePoint
	Detail string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %s to %s: %s", e.Start, e.End, e.Detail)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// SchedulingConflictError describes the existing request that blocked admission.
type SchedulingConflictError struct {
	Kind      ConflictKind
	AgainstID string
	Reason    Reason
	Label     string
	Start     generic.TimePoint
	End       generic.TimePoint
}

func (e *SchedulingConflictError) Error() string {
	if e.Kind == ConflictSameHalfDuplicate {
		return fmt.Sprintf("conflict: you already have a %q request on %s for the same half of the day",
			e.Reason.Phrase(), e.Start)
	}
	return fmt.Sprintf("conflict: you already have a %q request from %s to %s that overlaps with this date range",
		e.Reason.Phrase(), e.Start, e.End)
}

func (e *SchedulingConflictError) Unwrap() error { return ErrSchedulingConflict }

type InsufficientBalanceError struct {
	Requested generic.Amount
	Remaining generic.Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient WFH balance: %s day(s) remaining but this request needs %s day(s)",
		e.Remaining.Value, e.Requested.Value)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

type UnknownReasonError struct {
	Code string
}

func (e *UnknownReasonError) Error() string {
	return fmt.Sprintf("unknown reason %q", e.Code)
}

func (e *UnknownReasonError) Unwrap() error { return ErrUnknownReason }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true for admission failures caused by the candidate itself.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrWeekendDate) ||
		errors.Is(err, ErrEmptyWeekdayRange) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrSchedulingConflict) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrUnknownReason) ||
		errors.Is(err, ErrInvalidInput)
}

// Code is a stable machine-readable name for err, used in responses and metrics.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, ErrWeekendDate):
		return "weekend_date"
	case errors.Is(err, ErrEmptyWeekdayRange):
		return "empty_weekday_range"
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrSchedulingConflict):
		return "scheduling_conflict"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrUnknownReason):
		return "unknown_reason"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotEditable):
		return "not_editable"
	case errors.Is(err, ErrNotDeletable):
		return "not_deletable"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, generic.ErrEntityNotFound):
		return "not_found"
	case errors.Is(err, generic.ErrDuplicate):
		return "duplicate"
	default:
		return "internal"
	}
}
