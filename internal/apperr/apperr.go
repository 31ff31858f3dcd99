// Package apperr defines the error taxonomy shared by the store, the
// recurrence engine and the HTTP boundary. Callers classify with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an operation against an unknown id.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports malformed input rejected before any state change.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidExpression reports a recurrence descriptor that cannot be
	// evaluated. Rejected at creation time, never stored.
	ErrInvalidExpression = errors.New("invalid recurrence expression")
	// ErrStoreIO reports an unavailable or failing persistence layer.
	ErrStoreIO = errors.New("store unavailable")
)

func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func InvalidExpression(expr string, cause error) error {
	return fmt.Errorf("cron %q: %v: %w", expr, cause, ErrInvalidExpression)
}

func StoreIO(op string, cause error) error {
	return fmt.Errorf("%s: %v: %w", op, cause, ErrStoreIO)
}
