package api

import (
	"errors"
	"fmt"

	"github.com/methodbus/methodbus/pkg/validate"
)

// Error codes used across the registration and invocation surface.
const (
	CodeDuplicateCollection = "DUPLICATE_COLLECTION"
	CodeInvalidCollection   = "INVALID_COLLECTION"
	CodeMethodNotFound      = "METHOD_NOT_FOUND"
	CodeInvalidArgument     = "INVALID_ARGUMENT"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeInternal            = "INTERNAL_ERROR"
	CodeTimeout             = "TIMEOUT"
)

// Error is a structured error with a stable code, suitable for crossing
// the wire.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError creates a new structured Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// DuplicateCollectionError builds the fatal error for registering a
// collection name twice.
func DuplicateCollectionError(name string) *Error {
	return &Error{
		Code:    CodeDuplicateCollection,
		Message: fmt.Sprintf("collection %q is already registered", name),
	}
}

// MethodNotFoundError builds the error for dispatching an unknown method.
func MethodNotFoundError(name string) *Error {
	return &Error{
		Code:    CodeMethodNotFound,
		Message: fmt.Sprintf("unknown method: %s", name),
	}
}

// AsError converts any error into a wire Error. Structured errors pass
// through, validation failures keep their per-parameter detail, anything
// else becomes an internal error.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		return &Error{
			Code:    CodeValidationFailed,
			Message: verr.Error(),
			Details: verr.AsJSON(),
		}
	}
	return &Error{Code: CodeInternal, Message: err.Error()}
}
