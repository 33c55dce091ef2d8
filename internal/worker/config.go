package worker

import (
	"fmt"
	"time"
)

// Config holds the configuration for a task queue.
type Config struct {
	// Buffer is how many submitted tasks may wait before Submit blocks.
	// Default: 64
	Buffer int

	// ShutdownTimeout is how long Stop waits for queued tasks to drain.
	// After this timeout, Stop returns even if a task is still running.
	// Default: 5 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Buffer:          64,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any values are invalid.
func (c Config) Validate() error {
	if c.Buffer < 1 {
		return fmt.Errorf("buffer must be at least 1, got %d", c.Buffer)
	}
	if c.Buffer > 10000 {
		return fmt.Errorf("buffer too large (max 10000), got %d", c.Buffer)
	}
	if c.ShutdownTimeout < 10*time.Millisecond {
		return fmt.Errorf("shutdown timeout must be at least 10ms, got %v", c.ShutdownTimeout)
	}
	return nil
}
