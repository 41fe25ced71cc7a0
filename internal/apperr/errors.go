package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidPeriodKind = "INVALID_PERIOD_KIND"
	CodeDependencyFailure = "DEPENDENCY_FAILURE"
)

// Error is an application error carrying a stable code. Under errors.Is
// an error matches a target with the same code, and when the target has a
// Reason the reasons must match too.
type Error struct {
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Reason == "" || t.Reason == e.Reason)
}

// Sentinel errors for errors.Is checks
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "resource not found"}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized, Message: "not authorized to access this resource"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidPeriodKind = &Error{Code: CodeInvalidPeriodKind, Message: "invalid payment period"}
	ErrDependencyFailure = &Error{Code: CodeDependencyFailure, Message: "dependency unavailable"}

	// ErrDuplicatePeriod is returned by stores when a rent record already
	// exists for the tenant and period.
	ErrDuplicatePeriod = &Error{Code: CodeValidation, Reason: "duplicate_period", Message: "rent record already exists for this period"}
)

func NotFound(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) error {
	return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Dependency wraps a store or collaborator failure.
func Dependency(message string, err error) error {
	return &Error{Code: CodeDependencyFailure, Message: message, Err: err}
}

// HTTPStatus maps an error onto the status code handlers respond with.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeValidation, CodeInvalidPeriodKind:
		return http.StatusBadRequest
	case CodeDependencyFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
