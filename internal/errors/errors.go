// Package errors defines the application's tagged error type. Callers branch
// on the machine-checkable Code, never on message text.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorises an AppError.
type ErrorCode string

// Error codes understood by the HTTP layer.
const (
	ErrCodeNotFound     ErrorCode = "not_found"
	ErrCodeConflict     ErrorCode = "conflict"
	ErrCodeValidation   ErrorCode = "validation"
	ErrCodeForeignKey   ErrorCode = "foreign_key"
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeForbidden    ErrorCode = "forbidden"
	ErrCodeUnavailable  ErrorCode = "unavailable"
	ErrCodeTimeout      ErrorCode = "timeout"
	ErrCodeCanceled     ErrorCode = "canceled"
	ErrCodeInternal     ErrorCode = "internal"
)

// AppError is a categorised error with a client-safe message. Field names the
// offending input for validation and conflict errors.
type AppError struct {
	Code    ErrorCode
	Message string
	Field   string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error { return e.Cause }

// New returns an AppError with code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches code and message to cause. A nil cause yields nil.
func Wrap(cause error, code ErrorCode, message string) error {
	if cause == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: cause}
}

// NotFound reports a missing resource.
func NotFound(message string) *AppError { return New(ErrCodeNotFound, message) }

// NotFoundf is NotFound with formatting.
func NotFoundf(format string, args ...any) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Conflict reports a clash with existing state.
func Conflict(message string) *AppError { return New(ErrCodeConflict, message) }

// Validation reports invalid input.
func Validation(message string) *AppError { return New(ErrCodeValidation, message) }

// ValidationField reports invalid input for a named field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Unauthorized reports a caller that could not be authenticated.
func Unauthorized(message string) *AppError { return New(ErrCodeUnauthorized, message) }

// Forbidden reports an authenticated caller that may not act.
func Forbidden(message string) *AppError { return New(ErrCodeForbidden, message) }

// Unavailable reports a backing dependency that cannot serve the request.
func Unavailable(message string) *AppError { return New(ErrCodeUnavailable, message) }

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsNotFound reports whether err is a not_found AppError.
func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

// IsConflict reports whether err is a conflict AppError.
func IsConflict(err error) bool { return HasCode(err, ErrCodeConflict) }

// IsValidation reports whether err is a validation AppError.
func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }

// IsUnauthorized reports whether err is an unauthorized AppError.
func IsUnauthorized(err error) bool { return HasCode(err, ErrCodeUnauthorized) }

// IsForbidden reports whether err is a forbidden AppError.
func IsForbidden(err error) bool { return HasCode(err, ErrCodeForbidden) }

// IsUnavailable reports whether err is an unavailable AppError.
func IsUnavailable(err error) bool { return HasCode(err, ErrCodeUnavailable) }

// GetCode returns the code of the first AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field of the first AppError in err's chain, or "".
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
