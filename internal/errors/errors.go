package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so the sentinels below
// work with errors.Is regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeInternalError = "INTERNAL_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeSpecification = "SPECIFICATION_ERROR"
	CodeDomain        = "DOMAIN_ERROR"
	CodeConvergence   = "CONVERGENCE_ERROR"
	CodeUnattainable  = "UNATTAINABLE_ERROR"
	CodeCanceled      = "CANCELED"
)

// Sentinels for errors.Is
var (
	ErrSpecification = New(CodeSpecification, "invalid specification")
	ErrDomain        = New(CodeDomain, "degenerate design")
	ErrConvergence   = New(CodeConvergence, "root finder did not converge")
	ErrUnattainable  = New(CodeUnattainable, "requested value is unattainable")
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// Specification reports a spec that violates an input invariant
func Specification(format string, args ...interface{}) *AppError {
	return Newf(CodeSpecification, format, args...)
}

// Domain reports a degenerate design reaching the power function
func Domain(format string, args ...interface{}) *AppError {
	return Newf(CodeDomain, format, args...)
}

// Convergence reports an exhausted iteration budget
func Convergence(format string, args ...interface{}) *AppError {
	return Newf(CodeConvergence, format, args...)
}

// Unattainable reports a request outside what the configured bounds allow
func Unattainable(format string, args ...interface{}) *AppError {
	return Newf(CodeUnattainable, format, args...)
}

// HTTPStatus maps an error to the status code the API responds with
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeSpecification, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeDomain, CodeUnattainable:
		return http.StatusUnprocessableEntity
	case CodeCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
