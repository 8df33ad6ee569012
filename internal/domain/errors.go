package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors shared by the session store, the task store and the API client.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation indicates input was rejected before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the server rejected the credential (missing, invalid or expired).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNetwork indicates no response was received from the server.
	ErrNetwork = errors.New("network error")

	// ErrTitleRequired indicates an empty or whitespace-only title.
	ErrTitleRequired = errors.New("title is required")

	// ErrTitleTooLong indicates a title above MaxTitleLength characters.
	ErrTitleTooLong = errors.New("title must be 255 characters or less")

	// ErrInvalidTaskStatus indicates a status outside pending|in_progress|completed.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidTaskPriority indicates a priority outside low|medium|high.
	ErrInvalidTaskPriority = errors.New("invalid task priority")

	// ErrInvalidTimestamp indicates a timestamp that could not be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// User-facing messages.
const (
	MessageNetwork      = "Network error. Please check your connection."
	MessageServer       = "Server Error"
	MessageUnauthorized = "You are not authorized to perform this action."
	MessageValidation   = "Please fill in all required fields."
)

// FieldError describes a field-specific validation failure.
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError carries every field that failed validation.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, issue string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Issue: issue}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Issue)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Issue returns the issue reported for field, or "" when the field passed.
func (e *ValidationError) Issue(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Issue
		}
	}
	return ""
}

// ServerError is a response the server produced with a non-success status.
// Detail is the human-readable message from the body and is surfaced verbatim.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return MessageServer
	}
	return e.Detail
}

// Unwrap maps well-known statuses onto domain sentinels.
func (e *ServerError) Unwrap() error {
	switch e.StatusCode {
	case 401:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	default:
		return nil
	}
}

// UserMessage converts any error produced by this module into the text shown to users.
// Server details are passed through, transport failures get the generic connectivity
// message, and everything else falls back to the supplied default.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var serverErr *ServerError
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		if len(validationErr.Fields) == 1 {
			return validationErr.Fields[0].Issue
		}
		return MessageValidation
	case errors.As(err, &serverErr):
		if serverErr.Detail != "" {
			return serverErr.Detail
		}
		if fallback != "" {
			return fallback
		}
		return MessageServer
	case errors.Is(err, ErrNetwork):
		return MessageNetwork
	case errors.Is(err, ErrUnauthorized):
		return MessageUnauthorized
	}

	if fallback != "" {
		return fallback
	}
	return err.Error()
}
