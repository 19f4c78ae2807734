// Package xos provides cross-platform atomic file operations.
// It uses atomic rename operations to prevent file corruption on crashes.
package xos

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BackupSuffix is appended to a file name by WriteFileWithBackup.
const BackupSuffix = ".bak"

// CreateDir creates a directory and all necessary parents.
func CreateDir(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteFileWithBackup writes data to a file, first copying any existing
// file to filename+BackupSuffix.
func WriteFileWithBackup(filename string, data []byte, perm os.FileMode) error {
	original, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return err
	default:
		if err := WriteFile(filename+BackupSuffix, original, perm); err != nil {
			return fmt.Errorf("backup %s: %w", filepath.Base(filename), err)
		}
	}

	return WriteFile(filename, data, perm)
}
