package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Expected enrollment outcomes, surfaced to the caller rather than logged as faults.
	ErrSectionFull     = New("SECTION_FULL", http.StatusConflict, "course section is full")
	ErrAlreadyEnrolled = New("ALREADY_ENROLLED", http.StatusConflict, "student already enrolled in this section")
	ErrNotEnrolled     = New("NOT_ENROLLED", http.StatusConflict, "student is not enrolled in this section")

	// ErrSequenceOverflow indicates the three-digit code window was exhausted
	// or a malformed code would otherwise have been issued. Always a fault.
	ErrSequenceOverflow = New("SEQUENCE_OVERFLOW", http.StatusInternalServerError, "generated code violates expected pattern")

	// ErrTeachingLimit rejects assigning a fourth active section to one faculty member.
	ErrTeachingLimit = New("TEACHING_LIMIT", http.StatusPreconditionFailed, "faculty already teaching maximum allowed active sections")

	// ErrCacheMiss is the sentinel for cache lookups that found nothing.
	ErrCacheMiss = errors.New("cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsBusinessOutcome reports whether the error is an expected domain result
// (seat taken, duplicate enrollment) as opposed to an infrastructure fault.
func IsBusinessOutcome(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case ErrSectionFull.Code, ErrAlreadyEnrolled.Code, ErrNotEnrolled.Code, ErrTeachingLimit.Code:
		return true
	}
	return false
}
