package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a task, board or user id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation covers operating on the draft id through the wrong
	// path and invalid input.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnauthorized is returned when an operation needs a user and has none.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the acting user does not own the board.
	ErrForbidden = fmt.Errorf("board owned by another user: %w", ErrUnauthorized)

	// ErrRemoteSync marks a failed calendar call. The sync engine absorbs it.
	ErrRemoteSync = errors.New("calendar sync failed")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap makes validation errors match ErrInvalidOperation.
func (e *ValidationError) Unwrap() error { return ErrInvalidOperation }

// NotFoundError wraps ErrNotFound with the kind and id that failed to resolve.
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
