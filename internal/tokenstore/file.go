package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// FileStore Implementation
// =============================================================================

// FileStore keeps each key in its own file under a base directory.
// Files are written with owner-only permissions since they hold
// credentials.
type FileStore struct {
	basePath string
	logger   *slog.Logger
}

// NewFileStore creates a FileStore rooted at dir.
//
// The directory is created if it doesn't exist.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	logger.Debug("initialized file token store", "base_path", absPath)

	return &FileStore{
		basePath: absPath,
		logger:   logger,
	}, nil
}

// Get reads the value at key.
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	filePath, err := s.resolvePath(key)
	if err != nil {
		return "", &StoreError{Op: "Get", Key: key, Err: err}
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &StoreError{Op: "Get", Key: key, Err: ErrNotFound}
		}
		return "", &StoreError{Op: "Get", Key: key, Err: fmt.Errorf("failed to read file: %w", err)}
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", &StoreError{Op: "Get", Key: key, Err: ErrNotFound}
	}
	return value, nil
}

// Set writes value at key. The write goes to a temporary file first and
// is renamed into place so readers never see a partial value.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	filePath, err := s.resolvePath(key)
	if err != nil {
		return &StoreError{Op: "Set", Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(s.basePath, "."+key+".*")
	if err != nil {
		return &StoreError{Op: "Set", Key: key, Err: fmt.Errorf("failed to create file: %w", err)}
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return &StoreError{Op: "Set", Key: key, Err: fmt.Errorf("failed to set permissions: %w", err)}
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return &StoreError{Op: "Set", Key: key, Err: fmt.Errorf("failed to write file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &StoreError{Op: "Set", Key: key, Err: fmt.Errorf("failed to close file: %w", err)}
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return &StoreError{Op: "Set", Key: key, Err: fmt.Errorf("failed to replace file: %w", err)}
	}

	s.logger.Debug("stored value", "key", key, "path", filePath)
	return nil
}

// Delete removes the file for key (idempotent).
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	filePath, err := s.resolvePath(key)
	if err != nil {
		return &StoreError{Op: "Delete", Key: key, Err: err}
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return &StoreError{Op: "Delete", Key: key, Err: fmt.Errorf("failed to delete file: %w", err)}
	}

	s.logger.Debug("deleted value", "key", key, "path", filePath)
	return nil
}

// resolvePath maps key to a file directly under the base directory.
func (s *FileStore) resolvePath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." || strings.HasPrefix(key, ".") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.basePath, key), nil
}
