package errors

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// CapacityExceeded is returned when a reservation asks for more guests than
// the experience has spots left on the requested date.
func CapacityExceeded(message string) *AppError {
	return &AppError{
		Code:    "CAPACITY_EXCEEDED",
		Message: message,
		Status:  http.StatusConflict,
	}
}

func InvalidGuestCount(message string) *AppError {
	return &AppError{
		Code:    "INVALID_GUEST_COUNT",
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func PastDate(message string) *AppError {
	return &AppError{
		Code:    "PAST_DATE",
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func EmptyContent(message string) *AppError {
	return &AppError{
		Code:    "EMPTY_CONTENT",
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// Conflict marks transient store contention. The repositories retry it
// internally; it is not meant to reach the HTTP surface.
func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// TooManyRequests carries the wait until the next token so the client
// knows when retrying is worthwhile.
func TooManyRequests(message string, waitTime time.Duration) *AppError {
	if waitTime > 0 {
		message = fmt.Sprintf("%s (retry in %ds)", message, int(math.Ceil(waitTime.Seconds())))
	}
	return &AppError{
		Code:    "TOO_MANY_REQUESTS",
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
