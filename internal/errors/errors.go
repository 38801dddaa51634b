package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Larder error code.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"       // 400
	ErrNotFound             ErrorCode = "NOT_FOUND"             // 404
	ErrFileNotFound         ErrorCode = "FILE_NOT_FOUND"        // 404
	ErrAlreadySaved         ErrorCode = "ALREADY_SAVED"         // 409
	ErrEmptyCookbook        ErrorCode = "EMPTY_COOKBOOK"        // 422
	ErrConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED" // 428
	ErrCancelled            ErrorCode = "CANCELLED"             // 499
	ErrInternal             ErrorCode = "INTERNAL"              // 500
	ErrUpstreamFailed       ErrorCode = "UPSTREAM_FAILED"       // 502
	ErrStorageFailed        ErrorCode = "STORAGE_FAILED"        // 507
)

// LarderError represents a structured error with code, status, and details.
type LarderError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *LarderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *LarderError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *LarderError {
	return &LarderError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a recipe that cannot be found.
func NewNotFound(identifier string) *LarderError {
	return &LarderError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("recipe not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *LarderError {
	return &LarderError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadySaved creates a 409 error for a recipe that is already in the cookbook.
func NewAlreadySaved(id, name string) *LarderError {
	return &LarderError{
		Code:    ErrAlreadySaved,
		Status:  409,
		Message: fmt.Sprintf("%s is already in your cookbook", name),
		Details: map[string]any{"id": id, "name": name},
	}
}

// NewEmptyCookbook creates a 422 error for operations that need at least one saved recipe.
func NewEmptyCookbook() *LarderError {
	return &LarderError{
		Code:    ErrEmptyCookbook,
		Status:  422,
		Message: "your cookbook is empty; save some recipes first",
	}
}

// NewConfirmationRequired creates a 428 error for destructive operations
// invoked without explicit confirmation.
func NewConfirmationRequired(action string) *LarderError {
	return &LarderError{
		Code:    ErrConfirmationRequired,
		Status:  428,
		Message: fmt.Sprintf("%s requires explicit confirmation", action),
		Details: map[string]any{"action": action},
	}
}

// NewCancelled creates a 499 error for an operation interrupted by context cancellation.
func NewCancelled(operation string) *LarderError {
	return &LarderError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *LarderError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &LarderError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// NewUpstreamFailed creates a 502 error for a failed call to the recipe API.
func NewUpstreamFailed(operation string, err error) *LarderError {
	msg := fmt.Sprintf("recipe service request failed: %s", operation)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &LarderError{
		Code:    ErrUpstreamFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"operation": operation},
		cause:   err,
	}
}

// NewStorageFailed creates a 507 error when the cookbook cannot be persisted.
func NewStorageFailed(err error) *LarderError {
	msg := "failed to save cookbook"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &LarderError{
		Code:    ErrStorageFailed,
		Status:  507,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a LarderError with the given code.
func Is(err error, code ErrorCode) bool {
	var lErr *LarderError
	if stderrors.As(err, &lErr) {
		return lErr.Code == code
	}
	return false
}

// As extracts a LarderError from err, wrapping unknown errors as internal.
func As(err error) *LarderError {
	var lErr *LarderError
	if stderrors.As(err, &lErr) {
		return lErr
	}
	return NewInternal(err)
}
