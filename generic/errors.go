/*
errors.go - Shared error sentinels

PURPOSE:
  Errors that more than one package needs to recognize. Domain packages wrap
  these with context and structured detail.

ERROR CATEGORIES:
  1. Lookup errors - Missing users, requests, notifications
  2. Validation errors - Malformed periods, insufficient balance
  3. Store errors - Uniqueness violations

USAGE:
  if errors.Is(err, generic.ErrEntityNotFound) {
      writeError(w, http.StatusNotFound, "not found", err)
  }

SEE ALSO:
  - timeoff/errors.go: Admission error taxonomy built on these
  - api/errors.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEntityNotFound is returned when a referenced entity doesn't exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a unique field (e.g. email) is already taken.
	ErrDuplicate = errors.New("already exists")

	// ErrInsufficientBalance is returned when consumption exceeds available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the kind of thing that was missing.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrEntityNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}
