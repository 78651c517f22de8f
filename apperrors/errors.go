// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeAuthorization ErrorType = "authorization_error"
	ErrorTypeUnauthorized  ErrorType = "unauthorized"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeIntegrity     ErrorType = "integrity_error"
	ErrorTypeInternal      ErrorType = "internal_error"
)

// AppError carries a user-facing message and the HTTP status it maps to.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	// Retryable marks failures the caller may simply try again.
	Retryable bool  `json:"retryable,omitempty"`
	Err       error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{Type: t, Message: message, Code: code, Details: detail}
}

func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewAuthorizationError is returned when an authenticated user acts outside their scope.
func NewAuthorizationError(message string, details ...string) *AppError {
	return newError(ErrorTypeAuthorization, http.StatusForbidden, message, details)
}

func NewUnauthorizedError(message string, details ...string) *AppError {
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, details)
}

func NewConflictError(message string, details ...string) *AppError {
	e := newError(ErrorTypeConflict, http.StatusConflict, message, details)
	e.Retryable = true
	return e
}

func NewIntegrityError(message string, details ...string) *AppError {
	return newError(ErrorTypeIntegrity, http.StatusBadRequest, message, details)
}

// NewInternalError wraps an unexpected failure; err is kept for logging only.
func NewInternalError(message string, err error) *AppError {
	e := newError(ErrorTypeInternal, http.StatusInternalServerError, message, nil)
	e.Err = err
	return e
}

func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsValidationError(err error) bool    { return IsType(err, ErrorTypeValidation) }
func IsNotFoundError(err error) bool      { return IsType(err, ErrorTypeNotFound) }
func IsAuthorizationError(err error) bool { return IsType(err, ErrorTypeAuthorization) }
func IsConflictError(err error) bool      { return IsType(err, ErrorTypeConflict) }
func IsIntegrityError(err error) bool     { return IsType(err, ErrorTypeIntegrity) }
