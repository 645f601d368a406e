// Package apperr provides structured error types shared across the console.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of error for API responses.
type Code string

const (
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeDuplicateFilename      Code = "DUPLICATE_FILENAME"
	CodeReference              Code = "REFERENCE_ERROR"
	CodeRender                 Code = "RENDER_ERROR"
	CodeCheckerUnavailable     Code = "CHECKER_UNAVAILABLE"
	CodeSyntaxCheckFailed      Code = "SYNTAX_CHECK_FAILED"
	CodeNotFound               Code = "NOT_FOUND"
	CodeConflict               Code = "CONFLICT"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeForbidden              Code = "FORBIDDEN"
	CodeInternal               Code = "INTERNAL_ERROR"
)

// Error is a structured application error carrying enough detail for the
// caller to render a precise message (field name, line number, and so on).
type Error struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches a detail key-value pair.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) *Error {
	return New(CodeValidation, message).WithDetail("field", field)
}

// NotFound creates a not found error for a resource.
func NotFound(resource string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// Reference creates a dangling reference error naming the offending
// entity, field, and unresolved value.
func Reference(entity, field, value string) *Error {
	return Newf(CodeReference, "%s.%s references unknown %q", entity, field, value).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeRender, CodeReference:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateFilename, CodeConflict, CodeConcurrentModification:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeCheckerUnavailable:
		return http.StatusServiceUnavailable
	case CodeSyntaxCheckFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err is an Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// HTTPStatus returns the HTTP status for an error, defaulting to 500.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}
