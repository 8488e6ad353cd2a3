package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store.
	ErrNotFound = errors.New("entity not found")

	// ErrCardNotFound indicates that the requested card does not exist.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrNotRequeueable is returned when Requeue targets a card that is
	// not in the Failed state. Only Failed cards can be re-armed.
	ErrNotRequeueable = errors.New("card is not in a requeueable state")

	// ErrStorage wraps I/O and database failures. Callers treat it as
	// fatal to the triggering call but not to the process; idempotent
	// retry by the next caller is the recovery path.
	ErrStorage = errors.New("storage error")
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
