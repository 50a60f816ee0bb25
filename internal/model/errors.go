package model

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures surfaced to API callers.
type ErrorCode string

const (
	CodeInvalidInput     ErrorCode = "invalid_input"
	CodeNotFound         ErrorCode = "not_found"
	CodeNotADirectory    ErrorCode = "not_a_directory"
	CodePermissionDenied ErrorCode = "permission_denied"
	CodeConfiguration    ErrorCode = "configuration_error"
	CodeAuthentication   ErrorCode = "authentication_failed"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeTimeout          ErrorCode = "timeout"
	CodeConnection       ErrorCode = "connection_failed"
	CodeUnknownProvider  ErrorCode = "unknown_provider_error"
)

// Error is a classified error with a user-facing message. The underlying
// cause is retained for logs but never shown to the caller.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a classified error retaining the underlying cause.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the error code, or CodeUnknownProvider when the error
// carries no classification.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknownProvider
}

// UserMessage extracts the user-facing message, falling back to the raw
// error text for unclassified errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
