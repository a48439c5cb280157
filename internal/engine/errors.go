package engine

import (
	"errors"
	"fmt"
)

// Error kinds returned by engine operations. Callers match with errors.Is;
// the boundary maps each kind to a generic, non-leaking response.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict marks a broken uniqueness or counter invariant. It is an
	// internal bug class, never a normal user-facing condition.
	ErrConflict = errors.New("invariant conflict")

	ErrInternal = errors.New("internal error")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundErr(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

func unauthorizedErr(action string) error {
	return fmt.Errorf("%w: requester may not %s", ErrUnauthorized, action)
}

func conflictErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
