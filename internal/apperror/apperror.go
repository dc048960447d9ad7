// Package apperror defines the domain errors shared by every layer.
//
// Callers check the category with errors.Is against the sentinels below and
// read the human-readable text from AppError.Message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("Validation Error")
	ErrConflict       = errors.New("conflict")
	ErrStorageCorrupt = errors.New("storage corrupt")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: lower-level error that triggered this one
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the category sentinel and the underlying cause, so
// errors.Is works for either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
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
	}
}

// Conflict reports that the resource changed underneath the request, e.g.
// it was deleted after the caller's reference was resolved.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %s was changed by another request", resource, id),
	}
}

// StorageCorrupt reports a stored payload under key that exists but cannot be
// decoded. The storage adapter logs it and falls back to a default value; it
// never reaches the user.
func StorageCorrupt(key string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorageCorrupt,
		Message: fmt.Sprintf("stored value under %q is unreadable", key),
		Cause:   cause,
	}
}
