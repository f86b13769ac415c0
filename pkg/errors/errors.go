package errors

import (
	"fmt"
	"net/http"
)

// AppError is a custom error type that includes the upstream HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError creates a new AppError
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Common errors
var (
	ErrUnauthorized = NewAppError(http.StatusUnauthorized, "Session expired, please log in again")
	ErrNotFound     = NewAppError(http.StatusNotFound, "Resource not found")
	ErrServer       = NewAppError(http.StatusInternalServerError, "Server error")
)

// FromStatus builds an AppError for an unexpected API response status
func FromStatus(code int, operation string) *AppError {
	return NewAppError(code, fmt.Sprintf("%s failed with status %d", operation, code))
}

// Rejected reports whether the API explicitly rejected the request
// (success=false with a 2xx status still counts as a rejection).
func Rejected(operation string) *AppError {
	return NewAppError(http.StatusOK, fmt.Sprintf("%s was rejected by the server", operation))
}

// Helper functions to create specific errors
func BadRequest(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, msg)
}

func Internal(msg string) *AppError {
	return NewAppError(http.StatusInternalServerError, msg)
}
