// Package apperror defines the typed errors the service layer reports to callers.
//
// Every user-facing failure carries a stable kind (one of the sentinel errors
// below, reachable with errors.Is) and a human-readable Message. Anything that
// is not an *AppError is treated by the HTTP layer as an internal failure and
// is never shown to the caller verbatim.
package apperror

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("Validation Error")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrAlreadyFavorited = errors.New("already favorited")
)

type AppError struct {
	Err     error             // actual error
	Message string            // Human-readable error message
	Field   string            // Optional: field causing the error
	Fields  map[string]string // Optional: every offending field -> reason
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string]string{field: message},
	}
}

// InvalidFields reports several offending fields at once. Field is set to the
// alphabetically first one so single-field callers keep working.
func InvalidFields(fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var first string
	if len(names) > 0 {
		first = names[0]
	}

	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf("invalid fields: %v", names),
		Field:   first,
		Fields:  fields,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when an operation runs without a verified user.
// The operation is aborted before any side effect.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "valid authentication required",
	}
}

// AlreadyFavorited reports a duplicate (user, smell) favorite edge.
func AlreadyFavorited(smellID string) *AppError {
	return &AppError{
		Err:     ErrAlreadyFavorited,
		Message: fmt.Sprintf("smell %s is already in favorites", smellID),
	}
}
