package fs

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// Real is the production [FS] implementation backed by the [os] package.
//
// Real is stateless and safe for concurrent use.
type Real struct{}

// NewReal creates a production filesystem.
func NewReal() *Real {
	return &Real{}
}

// OpenFile opens a file with the given flags and permissions.
func (*Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

// ReadFile reads the entire file at path.
func (*Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic writes data to path via a temp file + rename, then
// chmods the result to perm.
func (*Real) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	err := atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("atomic write %q: %w", path, err)
	}

	err = os.Chmod(path, perm)
	if err != nil {
		return fmt.Errorf("chmod %q: %w", path, err)
	}

	return nil
}

// ReadDir reads the directory at path.
func (*Real) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// Mkdir creates a single directory, failing if it already exists.
func (*Real) Mkdir(path string, perm os.FileMode) error {
	return os.Mkdir(path, perm)
}

// MkdirAll creates a directory and any missing parents.
func (*Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Stat returns file info for path.
func (*Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists reports whether path exists.
func (*Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// Remove deletes the file or empty directory at path.
func (*Real) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll deletes path and any children.
func (*Real) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Compile-time interface check.
var _ FS = (*Real)(nil)
