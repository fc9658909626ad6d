package source

import (
	"errors"
	"fmt"
)

// Kind categorizes a provider error.
type Kind string

const (
	// KindNotFound indicates the symbol or series id is unknown to the provider.
	KindNotFound Kind = "not_found"
	// KindUnavailable indicates the provider is unreachable, rate limited,
	// or returned a server error.
	KindUnavailable Kind = "unavailable"
	// KindEmpty indicates the provider answered but returned no rows for
	// the requested window.
	KindEmpty Kind = "empty"
	// KindStale indicates data was returned but every point is older than
	// the caller's acceptable threshold.
	KindStale Kind = "stale"
)

// Error is a structured provider error. Retryable marks errors worth
// re-attempting under the fetch policy; a bad symbol never is.
type Error struct {
	Kind       Kind
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewNotFound creates a non-retryable unknown-symbol error.
func NewNotFound(target string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not known to provider", target),
	}
}

// NewUnavailable creates a retryable transient provider error.
func NewUnavailable(cause error) *Error {
	return &Error{
		Kind:      KindUnavailable,
		Retryable: true,
		Message:   "provider unreachable",
		Cause:     cause,
	}
}

// NewEmpty creates a retryable no-rows error.
func NewEmpty(target string) *Error {
	return &Error{
		Kind:      KindEmpty,
		Retryable: true,
		Message:   fmt.Sprintf("provider returned no rows for %s", target),
	}
}

// NewStale creates a stale-data error. Staleness is judged by the caller,
// not the adapter, so whether it is retried is a policy decision there.
func NewStale(target string) *Error {
	return &Error{
		Kind:    KindStale,
		Message: fmt.Sprintf("all rows for %s are older than the acceptable threshold", target),
	}
}

// ClassifyStatus converts an HTTP status code into the appropriate Error.
// 404 means an unknown symbol; 429 and 5xx are transient; other 4xx are
// treated as non-retryable provider rejections.
func ClassifyStatus(statusCode int, target string) *Error {
	switch {
	case statusCode == 404:
		return NewNotFound(target)
	case statusCode == 429:
		return &Error{
			Kind:       KindUnavailable,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "rate limit exceeded",
		}
	case statusCode >= 500:
		return &Error{
			Kind:       KindUnavailable,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "server returned an error",
		}
	default:
		return &Error{
			Kind:       KindUnavailable,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}

// Retryable reports whether err is worth re-attempting. Unknown error
// types (plain network errors and such) default to retryable.
func Retryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return true
}

// IsKind reports whether err is a provider error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
