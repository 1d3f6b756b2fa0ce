package api

import (
	"errors"
	"net/http"

	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/timeoff"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, timeoff.ErrForbidden),
		errors.Is(err, timeoff.ErrNotEditable),
		errors.Is(err, timeoff.ErrNotDeletable):
		return http.StatusForbidden
	case errors.Is(err, generic.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, timeoff.ErrSchedulingConflict):
		return http.StatusConflict
	case errors.Is(err, timeoff.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case timeoff.IsValidation(err),
		errors.Is(err, timeoff.ErrInvalidStatus),
		errors.Is(err, generic.ErrDuplicate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorDetails exposes the structured fields of admission errors.
func errorDetails(err error) map[string]any {
	var (
		missing      *timeoff.MissingFieldsError
		weekend      *timeoff.WeekendDateError
		conflict     *timeoff.SchedulingConflictError
		insufficient *timeoff.InsufficientBalanceError
		unknown      *timeoff.UnknownReasonError
	)
	switch {
	case errors.As(err, &missing):
		return map[string]any{"fields": missing.Fields}
	case errors.As(err, &weekend):
		return map[string]any{"endpoint": string(weekend.Endpoint), "date": weekend.Date.String()}
	case errors.As(err, &conflict):
		return map[string]any{
			"kind":      string(conflict.Kind),
			"requestId": conflict.AgainstID,
			"reason":    string(conflict.Reason),
			"label":     conflict.Label,
			"startDate": conflict.Start.String(),
			"endDate":   conflict.End.String(),
		}
	case errors.As(err, &insufficient):
		return map[string]any{
			"requested": insufficient.Requested.Float64(),
			"remaining": insufficient.Remaining.Float64(),
		}
	case errors.As(err, &unknown):
		return map[string]any{"reason": unknown.Code}
	}
	return nil
}

// HandleError writes err as a JSON error response. Internal errors are logged
// and their text is not exposed.
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal", "Something went wrong", nil)
		return
	}
	code := timeoff.Code(err)
	if status == http.StatusUnauthorized {
		code = "unauthorized"
	}
	writeError(w, status, code, err.Error(), errorDetails(err))
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}
