package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Engines return them
// (wrapped with context) and never panic on expected conditions.

var (
	// ErrNotFound: a task, challenge, rule or user id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized: the actor is not the participant/recipient the operation requires.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidState: the operation is not permitted from the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotEligible: selecting a title that has not been earned.
	ErrNotEligible = errors.New("not eligible")

	// ErrValidation: malformed input.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes which input field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFound wraps ErrNotFound with the kind and id that failed to resolve.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
