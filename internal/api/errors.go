package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/service"
	"github.com/ankiqueue/ankiqueue/internal/store"
	"github.com/ankiqueue/ankiqueue/internal/translation"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. This
// keeps internal error types from leaking into response selection
// logic scattered across handlers.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found
	case errors.Is(err, store.ErrCardNotFound):
		return http.StatusNotFound

	// State conflicts
	case errors.Is(err, store.ErrNotRequeueable):
		return http.StatusConflict

	// Bad request
	case errors.Is(err, domain.ErrCardFrontEmpty),
		errors.Is(err, domain.ErrCardBackEmpty),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, service.ErrUnknownOutcomeKind):
		return http.StatusBadRequest

	// Upstream translation backend problems
	case errors.Is(err, translation.ErrTranslationFailed):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Raw error strings never reach the client.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, store.ErrNotRequeueable):
		return "Card is not in a requeueable state"
	case errors.Is(err, domain.ErrCardFrontEmpty):
		return "Card front must not be empty"
	case errors.Is(err, domain.ErrCardBackEmpty):
		return "Card back must not be empty"
	case errors.Is(err, domain.ErrInvalidStatus):
		return "Invalid card status"
	case errors.Is(err, service.ErrUnknownOutcomeKind):
		return "Unknown outcome kind"
	case errors.Is(err, translation.ErrTranslationFailed):
		return "Translation backend unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a user-friendly
// message without echoing submitted values back.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'EnqueueRequest.Front' Error:Field validation for 'Front' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 {
					return "Invalid " + field + ": " + getValidationTagMessage(fieldParts[3])
				}
				return "Invalid " + field
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt":
		return "must be positive"
	default:
		return "validation failed"
	}
}
