package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeHTTPStatus  ErrorType = "http_status"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeCheckpoint  ErrorType = "checkpoint"
	ErrorTypeStorage     ErrorType = "storage"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// ErrCorruptCheckpoint is returned when a checkpoint record cannot be decoded
var ErrCorruptCheckpoint = stderrors.New("corrupt checkpoint")

// Error represents a scraper error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// FromStatus classifies a non-200 HTTP response
func FromStatus(statusCode int, url string) *Error {
	t := ErrorTypeHTTPStatus
	switch {
	case statusCode == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case statusCode >= 500:
		t = ErrorTypeServerError
	}
	return &Error{
		Type:    t,
		Message: fmt.Sprintf("unexpected status %d for %s", statusCode, url),
		Code:    statusCode,
	}
}

// TypeOf returns the ErrorType of err or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeHTTPStatus:
		return true
	default:
		return false
	}
}

// IsTransient reports whether err counts as a transient page fetch failure
func IsTransient(err error) bool {
	return IsRetryable(TypeOf(err))
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error.
// Any status other than 200 is treated as transient by the crawler.
func IsRetryableStatusCode(statusCode int) bool {
	return statusCode != http.StatusOK
}
