// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation  ErrorType = iota // Input validation errors (400 Bad Request)
	ErrorTypeNotFound                     // Resource not found errors (404 Not Found)
	ErrorTypeConflict                     // Resource conflict errors (409 Conflict)
	ErrorTypeInternal                     // Internal server errors (500 Internal Server Error)
	ErrorTypeUnavailable                  // Service or provider unavailable errors (503 Service Unavailable)
)

// Sentinel errors carried inside DomainError so callers can use errors.Is.
var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrRecordingNotFound   = errors.New("recording not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrConflict            = errors.New("resource conflict")
	ErrRevisionMismatch    = errors.New("revision mismatch")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrInternal            = errors.New("internal error")

	ErrProviderAuth     = errors.New("provider authentication failed")
	ErrProviderQuota    = errors.New("provider quota exhausted")
	ErrProviderRequest  = errors.New("provider request failed")
	ErrProviderNotFound = errors.New("provider event not found")
)

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(append([]error{ErrValidationFailed}, err...)...)}
}

// NewInvalidTransitionError reports a status/date change that the meeting
// lifecycle does not allow. It is a validation-class error.
func NewInvalidTransitionError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(append([]error{ErrInvalidTransition}, err...)...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(append([]error{ErrConflict}, err...)...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}

// NewProviderError builds one of the provider taxonomy errors. kind must be
// one of ErrProviderAuth, ErrProviderQuota, ErrProviderRequest or
// ErrProviderNotFound.
func NewProviderError(kind error, message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(append([]error{kind}, err...)...)}
}

// IsProviderError reports whether err belongs to the provider taxonomy.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProviderAuth) ||
		errors.Is(err, ErrProviderQuota) ||
		errors.Is(err, ErrProviderRequest) ||
		errors.Is(err, ErrProviderNotFound)
}

// IsTransientProviderError reports whether a retry may succeed.
func IsTransientProviderError(err error) bool {
	return errors.Is(err, ErrProviderRequest)
}
