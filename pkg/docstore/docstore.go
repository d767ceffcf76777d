// Package docstore provides a concurrency-safe, file-backed document store.
//
// Each logical record is one JSON file inside a named collection
// (subdirectory) under a storage root, identified by a unique id that is
// the filename stem. The store offers create/read/update/delete, bulk
// listing, a declarative filter/sort/paginate query, and an optional
// bounded-size eviction policy per collection.
//
// # Concurrency
//
// Two synchronization mechanisms exist, and only two:
//
//   - Cross-process: an ephemeral marker directory "<id>.lock" next to
//     "<id>.json". Mutations acquire it with an atomic "create directory,
//     fail if exists"; contenders fail immediately with [ErrLocked].
//     There is no wait, no retry, and no fairness guarantee.
//   - In-process: one serialization queue per collection. Queued tasks
//     run strictly one at a time in submission order; independent
//     collections run concurrently. The queue makes the capped create's
//     "count, evict, insert" sequence atomic and funnels first-time
//     directory creation.
//
// Reads are lock-free by design. A read concurrent with an in-place
// update can observe a partially written file; this is accepted rather
// than mitigated so the read path stays cheap.
//
// # On-disk layout
//
// One file per document at <root>/<collection>/<id>.json holding the raw
// field map, plus a transient <id>.lock directory while a mutation is in
// flight. No index files, no manifest.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/calvinalkan/docstore/pkg/fs"
)

// Config configures a [Registry].
type Config struct {
	// Root is the storage root directory. Required. Created on Open if
	// missing.
	Root string

	// FS is the filesystem implementation. Defaults to [fs.NewReal].
	FS fs.FS
}

// Options configures a collection on first resolution. A collection's
// options are fixed for its lifetime; later resolutions of the same name
// return the existing handle and ignore the options passed.
type Options struct {
	// MaxDocuments caps the number of documents in the collection.
	// nil means unbounded. Zero is the degenerate no-op store: creates
	// succeed without writing anything.
	MaxDocuments *int
}

// Registry resolves collection names to ready collection handles.
//
// The registry is an explicit object: construct one at your entry point
// and pass it wherever a collection handle is needed. [Registry.Close]
// tears it down, which is also the test-isolation hook.
//
// Safe for concurrent use.
type Registry struct {
	root   string
	fs     fs.FS
	marker *fs.Marker

	mu          sync.Mutex
	collections map[string]*Collection
	closed      bool
}

// Open creates a registry over the given storage root, creating the root
// directory if needed.
func Open(cfg Config) (*Registry, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("open: %w: Config.Root is required", ErrInvalidArgument)
	}

	fsys := cfg.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	root := filepath.Clean(cfg.Root)

	err := fsys.MkdirAll(root, collectionDirPerm)
	if err != nil {
		return nil, fmt.Errorf("open: creating root %q: %w", root, err)
	}

	return &Registry{
		root:        root,
		fs:          fsys,
		marker:      fs.NewMarker(fsys),
		collections: make(map[string]*Collection),
	}, nil
}

// Root returns the storage root directory.
func (r *Registry) Root() string {
	return r.root
}

// Collection resolves name to a ready collection handle, creating the
// backing directory on first use.
//
// Resolving the same name repeatedly is idempotent and safe under
// concurrency: all callers receive the same handle and the directory is
// created exactly once, because the "check existence, else create" step
// runs on the collection's serialization queue instead of racing.
//
// Returns [ErrInvalidArgument] for an empty or path-escaping name, and
// [ErrClosed] after [Registry.Close]. Filesystem errors from directory
// creation propagate verbatim.
func (r *Registry) Collection(ctx context.Context, name string, opts Options) (*Collection, error) {
	if ctx == nil {
		return nil, errors.New("collection: context is nil")
	}

	err := validateCollectionName(name)
	if err != nil {
		return nil, fmt.Errorf("collection: %w", err)
	}

	if opts.MaxDocuments != nil && *opts.MaxDocuments < 0 {
		return nil, fmt.Errorf("collection %q: %w: MaxDocuments is negative", name, ErrInvalidArgument)
	}

	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()

		return nil, fmt.Errorf("collection %q: %w", name, ErrClosed)
	}

	coll, ok := r.collections[name]
	if !ok {
		coll = newCollection(r, name, opts)
		r.collections[name] = coll
	}

	r.mu.Unlock()

	err = coll.ensureReady(ctx)
	if err != nil {
		return nil, err
	}

	return coll, nil
}

// Close stops every collection's serialization queue after draining
// already-submitted tasks. Subsequent queued operations return
// [ErrClosed]. Safe on nil, idempotent.
func (r *Registry) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()

		return nil
	}

	r.closed = true

	collections := make([]*Collection, 0, len(r.collections))
	for _, coll := range r.collections {
		collections = append(collections, coll)
	}

	r.mu.Unlock()

	for _, coll := range collections {
		coll.queue.close()
	}

	return nil
}

func validateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidArgument)
	}

	err := validateID(name)
	if err != nil {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidArgument, name)
	}

	return nil
}
