package transport

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrStatus is returned when the backend answers with a non-2xx status.
	ErrStatus = errors.New("unsuccessful response status")

	// ErrUnavailable is returned when the backend could not be reached or
	// the response could not be read.
	ErrUnavailable = errors.New("backend unavailable")
)

// =============================================================================
// Structured Error Type
// =============================================================================

// Error describes a failed call. Body is kept so callers can inspect a
// rejection the backend reported through an error status.
type Error struct {
	// Endpoint is the path that was called, e.g. "customerCre".
	Endpoint string

	// Status is the HTTP status code, or 0 when no response arrived.
	Status int

	// Body is the raw response body, if any.
	Body []byte

	// Err is ErrStatus or ErrUnavailable, possibly wrapping the cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport %s (status %d): %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *Error) Unwrap() error {
	return e.Err
}

// ResponseBody returns the body that accompanied a non-success status.
func (e *Error) ResponseBody() []byte {
	return e.Body
}

// IsStatus reports whether err is a non-success response.
func IsStatus(err error) bool {
	return errors.Is(err, ErrStatus)
}

// IsUnavailable reports whether err is a connectivity failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
