package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport matches failures that never produced an HTTP response.
	ErrTransport = errors.New("transport failure")
	// ErrUnauthorized matches 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches 403 responses.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrConflict matches 409 responses.
	ErrConflict = errors.New("conflict")
	// ErrInvalidResponse reports a body that does not have the expected shape.
	ErrInvalidResponse = errors.New("invalid response")
)

// TransportError wraps a network failure for a single request.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap exposes both ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

// Is maps well-known statuses onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// Retryable reports whether repeating the request may succeed without changes.
func Retryable(err error) bool {
	if errors.Is(err, ErrTransport) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
