package service

import (
	"errors"
	"fmt"
)

// ErrUnknownOutcomeKind is returned when a sync report carries an
// outcome kind the server does not recognize.
var ErrUnknownOutcomeKind = errors.New("unknown outcome kind")

// CardServiceError wraps failures from card service operations with
// the operation name for log context.
type CardServiceError struct {
	Operation string
	Message   string
	Err       error
}

func (e *CardServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("card service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("card service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *CardServiceError) Unwrap() error {
	return e.Err
}

// NewCardServiceError creates a new CardServiceError.
func NewCardServiceError(operation, message string, err error) *CardServiceError {
	return &CardServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
