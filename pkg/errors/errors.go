package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
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
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Registration error taxonomy. Enrollment operations resolve to one of these
// kinds so callers can branch on Code rather than message text.
var (
	ErrNotAuthenticated   = New("NOT_AUTHENTICATED", http.StatusUnauthorized, "please sign in to manage your courses")
	ErrAlreadyEnrolled    = New("ALREADY_ENROLLED", http.StatusConflict, "you are already enrolled in this course")
	ErrAlreadyWaitlisted  = New("ALREADY_WAITLISTED", http.StatusConflict, "you are already on the waitlist for this course")
	ErrSectionFull        = New("SECTION_FULL", http.StatusConflict, "course is now full, please try again or join the waitlist")
	ErrWaitlistFull       = New("WAITLIST_FULL", http.StatusConflict, "the waitlist for this course is full")
	ErrNoSeatsAvailable   = New("NO_SEATS_AVAILABLE", http.StatusConflict, "no seats are available in this section")
	ErrScheduleConflict   = New("SCHEDULE_CONFLICT", http.StatusConflict, "time conflict with an enrolled course")
	ErrStorageUnavailable = New("STORAGE_UNAVAILABLE", http.StatusServiceUnavailable, "storage backend unavailable")
	ErrPartialWrite       = New("PARTIAL_WRITE_FAILURE", http.StatusInternalServerError, "registration partially applied, pending reconciliation")
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

// WithDetails returns a copy of the error carrying structured details.
// SCHEDULE_CONFLICT uses it to surface the conflicting section.
func WithDetails(err *Error, message string, details interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	clone.Details = details
	return &clone
}
