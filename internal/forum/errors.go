package forum

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrTimeout marks an attempt that ran past the per-request timeout.
	ErrTimeout = errors.New("API timeout")
	// ErrUnexpectedPayload marks a response that was not a JSON envelope.
	ErrUnexpectedPayload = errors.New("unexpected payload")
	// ErrTransport marks a connection failure, including a body cut off mid-read.
	ErrTransport = errors.New("transport failure")
)

// APIError is the only error shape that crosses the client boundary for a
// failed upstream call.
type APIError struct {
	Status  int
	Code    int
	Reason  string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (status=%d reason=%s)", e.Message, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s (status=%d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// Unauthorized reports a 401 or 403 from upstream.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// AsAPIError is a shorthand for errors.As with *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// failoverStatus lists the HTTP statuses that mean "wrong endpoint" rather than
// "the request itself was rejected".
var failoverStatus = map[int]bool{
	http.StatusNotFound:           true,
	http.StatusMethodNotAllowed:   true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
}

// retryable reports whether a failed attempt may move on to the next endpoint
// candidate.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := AsAPIError(err); ok && apiErr.Err == nil {
		return failoverStatus[apiErr.Status]
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnexpectedPayload) || errors.Is(err, ErrTransport) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// finalize rewrites a terminal failure into the boundary shape: timeouts become
// a 504 APIError, everything else is returned unchanged.
func finalize(err error) error {
	if errors.Is(err, ErrTimeout) {
		return &APIError{Status: http.StatusGatewayTimeout, Message: ErrTimeout.Error(), Err: err}
	}
	return err
}

// ValidationError is a local precondition failure detected before any call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PermissionError means the caller is signed in but may not perform the action.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }
