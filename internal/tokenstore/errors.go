package tokenstore

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrNotFound is returned when a key holds no value.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidKey is returned for empty keys or keys that would escape
	// the store's namespace (e.g., "../token").
	ErrInvalidKey = errors.New("invalid key")
)

// =============================================================================
// Structured Error Type
// =============================================================================

// StoreError wraps store operation errors with additional context.
// It supports errors.Is() against the sentinel errors above.
type StoreError struct {
	// Op is the operation that failed (e.g., "Get", "Set", "Delete").
	Op string

	// Key is the key involved in the operation.
	Key string

	// Err is the underlying error that occurred.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("tokenstore %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("tokenstore %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
