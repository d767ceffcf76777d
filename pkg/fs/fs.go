// Package fs provides the filesystem abstraction used by the document store.
//
// The main types are:
//   - [FS]: interface for the filesystem operations the store needs
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation wrapping the [os] package
//   - [Marker]: directory-based lock primitive
//
// The interface exists so tests can interpose wrappers that delay or fail
// individual operations without touching the production code paths.
package fs

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// Satisfied by [os.File] and usable with all standard library functions
// that accept [io.Reader], [io.Writer], or [io.Closer].
type File interface {
	// Embedded interfaces from [io].
	// These provide Read, Write, and Close methods.
	io.ReadWriteCloser

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error
}

// FS defines the filesystem operations for reading, writing, and managing
// documents and lock markers.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing.
type FS interface {
	// OpenFile opens a file with the given flags and permissions. See [os.OpenFile].
	//
	// Common flags: [os.O_RDONLY], [os.O_WRONLY], [os.O_CREATE],
	// [os.O_EXCL], [os.O_TRUNC]. O_CREATE|O_EXCL is the atomic
	// "create file, fail if exists" primitive.
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file + rename so readers never observe a partial write.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory and returns its entries sorted by name.
	// See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// Mkdir creates a single directory and fails if it already exists.
	// See [os.Mkdir]. This is the atomic "create if absent" primitive
	// that [Marker] builds on.
	Mkdir(path string, perm os.FileMode) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	// No error if the directory already exists.
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	// Returns an error satisfying [os.IsNotExist] if the path is absent.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// RemoveAll deletes a path and any children. See [os.RemoveAll].
	// No error if the path doesn't exist.
	RemoveAll(path string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
