package domain

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError. The HTTP layer maps these to status codes.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeForbidden              = "FORBIDDEN"
	CodeUnauthorizedTransition = "UNAUTHORIZED_TRANSITION"
	CodeInvalidState           = "INVALID_STATE"
	CodeConflict               = "CONFLICT"
)

// AppError is a domain error with a machine-readable code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError reports malformed input rejected before any computation.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewNotFoundError reports an identifier that does not resolve.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewForbiddenError reports an ownership violation outside the booking state machine.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewUnauthorizedTransitionError reports a caller whose role may not perform from -> to.
func NewUnauthorizedTransitionError(from, to string) *AppError {
	return &AppError{
		Code:    CodeUnauthorizedTransition,
		Message: fmt.Sprintf("caller is not allowed to move booking from %s to %s", from, to),
	}
}

// NewInvalidStateError reports a transition that no role may perform from the current state.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewConflictError reports a lost compare-and-set race.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// CodeOf returns the AppError code wrapped in err, or "" when err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsValidation(err error) bool             { return CodeOf(err) == CodeValidation }
func IsNotFound(err error) bool               { return CodeOf(err) == CodeNotFound }
func IsForbidden(err error) bool              { return CodeOf(err) == CodeForbidden }
func IsUnauthorizedTransition(err error) bool { return CodeOf(err) == CodeUnauthorizedTransition }
func IsInvalidState(err error) bool           { return CodeOf(err) == CodeInvalidState }
func IsConflict(err error) bool               { return CodeOf(err) == CodeConflict }
