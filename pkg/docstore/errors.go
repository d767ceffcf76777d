package docstore

import (
	"errors"
	"strings"
)

// Sentinel errors returned by the public docstore APIs. Check with
// [errors.Is]; the kinds are never coerced into one another, so callers
// can discriminate retryable contention ([ErrLocked]) from permanent
// failures ([ErrNotFound], [ErrInvalidArgument]) and environment problems
// (anything else, surfaced verbatim from the filesystem).
var (
	// ErrInvalidArgument indicates a bad input: an empty collection name,
	// an invalid document id, or an identity field supplied on update.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the targeted document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrExists indicates a create collided with an existing document.
	ErrExists = errors.New("document already exists")

	// ErrLocked indicates lock contention: another mutation on the same
	// document id is in flight. Acquisition is fail-fast; callers wanting
	// retry-on-contention implement it themselves.
	ErrLocked = errors.New("document locked")

	// ErrInvalidData indicates stored document content failed to parse.
	ErrInvalidData = errors.New("invalid document data")

	// ErrClosed indicates an operation on a closed [Registry].
	ErrClosed = errors.New("docstore closed")
)

// Error is the uniform error type returned by the public docstore APIs.
//
// Provides structured document context (Collection, ID, Path) appended to
// the underlying error message:
//
//	mkdir /data/users/abc.lock: permission denied (collection=users doc_id=abc)
//
// Use [errors.As] to extract structured fields and [errors.Is] to check
// for the sentinel errors above.
type Error struct {
	// Collection is the collection name, when known.
	Collection string

	// ID is the document identifier. May be the requested id for lookups
	// that failed.
	ID string

	// Path is the document's path below the storage root, when known.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (collection=X doc_id=Y doc_path=Z)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	suffix := e.suffix()
	if suffix == "" {
		return cause
	}

	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func (e *Error) suffix() string {
	var parts []string

	if e.Collection != "" {
		parts = append(parts, "collection="+e.Collection)
	}

	if e.ID != "" {
		parts = append(parts, "doc_id="+e.ID)
	}

	if e.Path != "" {
		parts = append(parts, "doc_path="+e.Path)
	}

	if len(parts) == 0 {
		return ""
	}

	return "(" + strings.Join(parts, " ") + ")"
}

// withContext attaches document context at API boundaries and returns *Error.
// If err is already *Error, missing fields are filled in-place (existing
// values preserved).
func withContext(err error, collection, id, path string) error {
	if err == nil {
		return nil
	}

	existing := &Error{}
	if errors.As(err, &existing) {
		if existing.Collection == "" && collection != "" {
			existing.Collection = collection
		}

		if existing.ID == "" && id != "" {
			existing.ID = id
		}

		if existing.Path == "" && path != "" {
			existing.Path = path
		}

		return existing
	}

	return &Error{Collection: collection, ID: id, Path: path, Err: err}
}
