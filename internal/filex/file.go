// Package filex contains small filesystem helpers for the ciphertext working
// directory and the scratch area holding ephemeral plaintext artifacts.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// EnsureDir creates the directory (and parents) if needed and returns its
// absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// ScratchPath returns a unique path inside dir for an ephemeral artifact.
// The file is not created; callers own its full lifecycle.
func ScratchPath(dir, suffix string) string {
	name := uuid.NewString()
	if suffix != "" {
		name += suffix
	}
	return filepath.Join(dir, name)
}

// RemoveQuietly deletes the file at path. A missing file is not an error;
// anything else is returned so the caller can log it.
func RemoveQuietly(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
