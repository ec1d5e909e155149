package entities

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is reported when a request is still rejected with 401
	// after the credentials were refreshed once.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is reported when a group, repository, branch or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingCredentials is reported when neither a token nor a username is configured.
	ErrMissingCredentials = errors.New("no credentials configured")

	// ErrNoFreshCredentials is reported by credential providers that cannot
	// deliver anything better than what was already used.
	ErrNoFreshCredentials = errors.New("no fresh credentials available")
)

// HTTPError is a failed request: a non-2xx response or a transport failure.
// StatusCode is 0 when no response was received (timeouts, refused connections).
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	cause      error
}

// NewHTTPError creates an error for a non-2xx response.
func NewHTTPError(method, url string, statusCode int, status string) *HTTPError {
	if status == "" {
		status = http.StatusText(statusCode)
	}
	return &HTTPError{Method: method, URL: url, StatusCode: statusCode, Status: status}
}

// NewTransportError creates an error for a request that never produced a response.
func NewTransportError(method, url, status string, cause error) *HTTPError {
	return &HTTPError{Method: method, URL: url, Status: status, cause: cause}
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Status)
}

// Unwrap exposes ErrUnauthorized for 401 responses and the transport cause otherwise.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return e.cause
}

// IsNotFound reports whether the error is a 404 response or ErrNotFound.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// PayloadError is a 2xx response whose body is an error envelope
// ({"type": "error", "error": {"message": "..."}}).
type PayloadError struct {
	Message string
}

func (e *PayloadError) Error() string {
	return e.Message
}
