package fs

import (
	"errors"
	"fmt"
	"os"
)

// ErrLockHeld is returned by [Marker.Acquire] when the marker already
// exists, meaning another caller (possibly in another process) holds the
// lock.
var ErrLockHeld = errors.New("lock held")

// Marker provides fail-fast mutual exclusion through marker directories.
//
// Acquire creates the marker with [FS.Mkdir], which the platform guarantees
// to be atomic "create if absent". Existence of the marker is the entire
// lock state: there is no wait queue, no retry, and no shared in-memory
// state, so independent processes sharing the same storage root observe
// contention through the filesystem alone.
//
// A crash while a marker is held leaks it; this primitive does not
// self-heal stale markers.
type Marker struct {
	fs FS
}

// NewMarker creates a Marker that uses the given filesystem.
// Panics if fs is nil.
func NewMarker(fs FS) *Marker {
	if fs == nil {
		panic("fs is nil")
	}

	return &Marker{fs: fs}
}

const markerDirPerm = 0o755

// Acquire attempts to create the marker directory at path.
//
// Returns an error satisfying [errors.Is] with [ErrLockHeld] if the marker
// already exists. There is no blocking and no retry; contenders fail
// immediately.
func (m *Marker) Acquire(path string) error {
	err := m.fs.Mkdir(path, markerDirPerm)
	if err == nil {
		return nil
	}

	if os.IsExist(err) {
		return fmt.Errorf("%w: %s", ErrLockHeld, path)
	}

	return fmt.Errorf("acquire %q: %w", path, err)
}

// Release removes the marker directory at path.
//
// Release is idempotent: releasing an already-released marker is not an
// error. Callers run Release on every exit path of a mutation so that no
// marker outlives its owning call; its error is reported but must never
// mask the primary operation's outcome.
func (m *Marker) Release(path string) error {
	err := m.fs.RemoveAll(path)
	if err != nil {
		return fmt.Errorf("release %q: %w", path, err)
	}

	return nil
}
