package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/docstore/pkg/fs"
)

const (
	docSuffix  = ".json"
	lockSuffix = ".lock"

	collectionDirPerm = 0o755
	docFilePerm       = 0o644
)

// Collection is a handle to one named group of documents.
//
// Per document id the mutation state machine is UNLOCKED ⇄ LOCKED, and
// every mutating call returns in UNLOCKED: the lock marker is released on
// success and failure alike, so a marker never outlives its owning call
// under normal termination. A process crash inside the critical section
// is the one case that can leak a marker; the store does not auto-heal
// that.
//
// Safe for concurrent use.
type Collection struct {
	name   string
	dir    string
	fs     fs.FS
	marker *fs.Marker
	queue  *queue
	max    *int

	// ready is only touched by tasks running on the serialization queue.
	ready bool
}

func newCollection(r *Registry, name string, opts Options) *Collection {
	var max *int

	if opts.MaxDocuments != nil {
		m := *opts.MaxDocuments
		max = &m
	}

	return &Collection{
		name:   name,
		dir:    filepath.Join(r.root, name),
		fs:     r.fs,
		marker: r.marker,
		queue:  newQueue(),
		max:    max,
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Dir returns the collection's backing directory.
func (c *Collection) Dir() string {
	return c.dir
}

// MaxDocuments returns the configured size cap and whether one is set.
func (c *Collection) MaxDocuments() (int, bool) {
	if c.max == nil {
		return 0, false
	}

	return *c.max, true
}

// ensureReady creates the backing directory on first use. The existence
// check and recursive create run as one queued task, so concurrent
// first-time resolutions serialize instead of racing on mkdir.
func (c *Collection) ensureReady(ctx context.Context) error {
	_, err := enqueue(ctx, c.queue, func() (struct{}, error) {
		if c.ready {
			return struct{}{}, nil
		}

		exists, err := c.fs.Exists(c.dir)
		if err != nil {
			return struct{}{}, fmt.Errorf("checking collection dir: %w", err)
		}

		if !exists {
			err = c.fs.MkdirAll(c.dir, collectionDirPerm)
			if err != nil {
				return struct{}{}, fmt.Errorf("creating collection dir: %w", err)
			}
		}

		c.ready = true

		return struct{}{}, nil
	})

	return withContext(err, c.name, "", "")
}

func (c *Collection) docPath(id string) string {
	return filepath.Join(c.dir, id+docSuffix)
}

func (c *Collection) lockPath(id string) string {
	return filepath.Join(c.dir, id+lockSuffix)
}

// CreateResult reports the outcome of a create.
type CreateResult struct {
	// ID is the document's identity (explicit or generated).
	ID string

	// Path is the absolute path of the created file.
	Path string

	// Evicted lists documents deleted to keep the collection under its
	// size cap, oldest first. Empty for uncapped collections.
	Evicted []string

	// Skipped lists eviction victims whose deletion failed and was
	// skipped. Eviction is best-effort: a victim deleted concurrently or
	// locked by another writer does not block the insert, but the cap may
	// not be perfectly enforced when this list is non-empty.
	Skipped []string
}

// UpdateResult reports the outcome of an update.
type UpdateResult struct {
	ID   string
	Path string
}

// Create stores fields as a new document.
//
// The id comes from an explicit [IDField] entry in fields when present,
// otherwise a fresh collision-resistant id is generated. For capped
// collections the whole count/evict/insert sequence runs as one task on
// the collection's queue, so concurrent creates cannot push the
// post-insert count above the cap.
//
// Returns [ErrLocked] when another mutation holds the id's lock (no I/O
// is attempted), and [ErrExists] when a document file already exists for
// the id.
func (c *Collection) Create(ctx context.Context, fields Fields) (CreateResult, error) {
	if ctx == nil {
		return CreateResult{}, errors.New("create: context is nil")
	}

	if c.max != nil {
		return enqueue(ctx, c.queue, func() (CreateResult, error) {
			return c.createCapped(fields)
		})
	}

	return c.create(fields)
}

// resolveCreateID picks the document id for a create: the explicit
// identity field when present, else a generated id.
func (c *Collection) resolveCreateID(fields Fields) (string, error) {
	raw, ok := fields[IDField]
	if !ok {
		id, err := NewDocumentID()
		if err != nil {
			return "", withContext(err, c.name, "", "")
		}

		return id, nil
	}

	id, ok := raw.(string)
	if !ok {
		return "", withContext(
			fmt.Errorf("%w: identity field must be a string, got %T", ErrInvalidArgument, raw),
			c.name, "", "",
		)
	}

	err := validateID(id)
	if err != nil {
		return "", withContext(err, c.name, id, "")
	}

	return id, nil
}

func (c *Collection) create(fields Fields) (CreateResult, error) {
	id, err := c.resolveCreateID(fields)
	if err != nil {
		return CreateResult{}, err
	}

	err = c.withLock(id, "create", func() error {
		return c.writeNew(id, fields)
	})
	if err != nil {
		return CreateResult{}, err
	}

	return CreateResult{ID: id, Path: c.docPath(id)}, nil
}

// writeNew encodes fields and writes them with an exclusive create, so a
// colliding file surfaces as [ErrExists] instead of being clobbered.
func (c *Collection) writeNew(id string, fields Fields) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}

	path := c.docPath(id)

	file, err := c.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, docFilePerm)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrExists, id)
		}

		return fmt.Errorf("creating %q: %w", path, err)
	}

	_, writeErr := file.Write(data)
	closeErr := file.Close()

	if writeErr != nil {
		writeErr = fmt.Errorf("writing %q: %w", path, writeErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing %q: %w", path, closeErr)
	}

	return errors.Join(writeErr, closeErr)
}

// withLock runs fn while holding id's marker lock. The marker is released
// unconditionally; a release failure is reported but never masks fn's
// error.
func (c *Collection) withLock(id, op string, fn func() error) error {
	lockPath := c.lockPath(id)

	err := c.marker.Acquire(lockPath)
	if err != nil {
		if errors.Is(err, fs.ErrLockHeld) {
			err = fmt.Errorf("%s: %w", op, ErrLocked)
		} else {
			err = fmt.Errorf("%s: %w", op, err)
		}

		return withContext(err, c.name, id, "")
	}

	fnErr := fn()

	releaseErr := c.marker.Release(lockPath)
	if releaseErr != nil {
		releaseErr = fmt.Errorf("%s: releasing lock: %w", op, releaseErr)
	}

	if fnErr != nil {
		fnErr = fmt.Errorf("%s: %w", op, fnErr)
	}

	err = errors.Join(fnErr, releaseErr)
	if err != nil {
		return withContext(err, c.name, id, c.docPath(id))
	}

	return nil
}

// Read loads the document with the given id.
//
// Reads take no lock. Returns [ErrNotFound] if the document is absent and
// [ErrInvalidData] if its content cannot be parsed. The returned
// document's identity field is always the filename-derived id, overriding
// anything of the same name inside the stored content.
func (c *Collection) Read(ctx context.Context, id string) (Document, error) {
	if ctx == nil {
		return Document{}, errors.New("read: context is nil")
	}

	err := validateID(id)
	if err != nil {
		return Document{}, withContext(fmt.Errorf("read: %w", err), c.name, id, "")
	}

	path := c.docPath(id)

	info, err := c.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, withContext(fmt.Errorf("read: %w", ErrNotFound), c.name, id, "")
		}

		return Document{}, withContext(fmt.Errorf("read: %w", err), c.name, id, path)
	}

	if !info.Mode().IsRegular() {
		return Document{}, withContext(fmt.Errorf("read: not a regular file: %w", ErrNotFound), c.name, id, path)
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, withContext(fmt.Errorf("read: %w", ErrNotFound), c.name, id, "")
		}

		return Document{}, withContext(fmt.Errorf("read: %w", err), c.name, id, path)
	}

	doc, err := decodeDocument(id, path, data, info)
	if err != nil {
		return Document{}, withContext(fmt.Errorf("read: %w", err), c.name, id, path)
	}

	return doc, nil
}

// Update replaces the document's entire content. Never a merge.
//
// Identity is immutable: fields carrying [IDField] are rejected with
// [ErrInvalidArgument] before any I/O. Returns [ErrLocked] on lock
// contention and [ErrNotFound] if the document does not exist (with the
// lock released before returning).
//
// The write happens in place so the file keeps its creation time; a
// concurrent lock-free read can observe a partial write.
func (c *Collection) Update(ctx context.Context, id string, fields Fields) (UpdateResult, error) {
	if ctx == nil {
		return UpdateResult{}, errors.New("update: context is nil")
	}

	if _, ok := fields[IDField]; ok {
		return UpdateResult{}, withContext(
			fmt.Errorf("update: %w: identity is immutable, %q must not be supplied", ErrInvalidArgument, IDField),
			c.name, id, "",
		)
	}

	err := validateID(id)
	if err != nil {
		return UpdateResult{}, withContext(fmt.Errorf("update: %w", err), c.name, id, "")
	}

	err = c.withLock(id, "update", func() error {
		return c.overwrite(id, fields)
	})
	if err != nil {
		return UpdateResult{}, err
	}

	return UpdateResult{ID: id, Path: c.docPath(id)}, nil
}

func (c *Collection) overwrite(id string, fields Fields) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}

	path := c.docPath(id)

	exists, err := c.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("checking %q: %w", path, err)
	}

	if !exists {
		return ErrNotFound
	}

	file, err := c.fs.OpenFile(path, os.O_WRONLY|os.O_TRUNC, docFilePerm)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}

		return fmt.Errorf("opening %q: %w", path, err)
	}

	_, writeErr := file.Write(data)
	closeErr := file.Close()

	if writeErr != nil {
		writeErr = fmt.Errorf("writing %q: %w", path, writeErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing %q: %w", path, closeErr)
	}

	return errors.Join(writeErr, closeErr)
}

// Delete removes the document with the given id.
//
// Returns [ErrLocked] on lock contention and [ErrNotFound] if the
// document does not exist.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if ctx == nil {
		return errors.New("delete: context is nil")
	}

	err := validateID(id)
	if err != nil {
		return withContext(fmt.Errorf("delete: %w", err), c.name, id, "")
	}

	return c.delete(id)
}

// delete is Delete without the ctx plumbing; eviction calls it directly
// so each victim is independently locked and unlocked.
func (c *Collection) delete(id string) error {
	return c.withLock(id, "delete", func() error {
		path := c.docPath(id)

		exists, err := c.fs.Exists(path)
		if err != nil {
			return fmt.Errorf("checking %q: %w", path, err)
		}

		if !exists {
			return ErrNotFound
		}

		err = c.fs.Remove(path)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrNotFound
			}

			return fmt.Errorf("removing %q: %w", path, err)
		}

		return nil
	})
}

// All loads every document in the collection, in no particular order.
//
// Only regular files with the document suffix count; lock markers and
// anything else are excluded. Entries that vanish or fail to read or
// parse mid-scan are skipped: All fails only when the directory itself
// cannot be read.
func (c *Collection) All(ctx context.Context) ([]Document, error) {
	if ctx == nil {
		return nil, errors.New("all: context is nil")
	}

	entries, err := c.fs.ReadDir(c.dir)
	if err != nil {
		return nil, withContext(fmt.Errorf("all: reading collection dir: %w", err), c.name, "", c.dir)
	}

	docs := make([]Document, 0, len(entries))

	for _, entry := range entries {
		id, ok := docEntryID(entry.Name())
		if !ok || !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(c.dir, entry.Name())

		info, err := c.fs.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		data, err := c.fs.ReadFile(path)
		if err != nil {
			continue
		}

		doc, err := decodeDocument(id, path, data, info)
		if err != nil {
			continue
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// docEntryID returns the id encoded in a directory entry name, or false
// if the entry is not a document file.
func docEntryID(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, docSuffix)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}
