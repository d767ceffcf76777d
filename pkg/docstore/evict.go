package docstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/calvinalkan/docstore/pkg/fs"
)

// createCapped is the queued create for capped collections: count, evict,
// insert as one task. Because the whole sequence runs on the collection's
// serialization queue, each create's count check sees the effect of every
// prior create that already completed its queued step, so concurrent
// creates cannot push the post-insert count above the cap.
func (c *Collection) createCapped(fields Fields) (CreateResult, error) {
	max := *c.max

	if max == 0 {
		// Degenerate cap: an effective no-op store. Resolve the id the
		// way a normal create would and synthesize the result without
		// touching the filesystem.
		id, err := c.resolveCreateID(fields)
		if err != nil {
			return CreateResult{}, err
		}

		return CreateResult{ID: id, Path: c.docPath(id)}, nil
	}

	metas, err := c.scanMeta()
	if err != nil {
		return CreateResult{}, withContext(fmt.Errorf("create: %w", err), c.name, "", "")
	}

	var evicted, skipped []string

	if len(metas) >= max {
		victims := len(metas) - max + 1

		sortMetasByCreated(metas)

		// Victim deletion is best-effort by contract: a victim deleted
		// or locked concurrently is skipped rather than blocking the
		// insert. Skipped victims are reported in the result so callers
		// can observe an imperfectly enforced cap.
		for _, victim := range metas[:victims] {
			deleteErr := c.delete(victim.ID)
			if deleteErr != nil {
				skipped = append(skipped, victim.ID)

				continue
			}

			evicted = append(evicted, victim.ID)
		}
	}

	res, err := c.create(fields)
	if err != nil {
		return CreateResult{}, err
	}

	res.Evicted = evicted
	res.Skipped = skipped

	return res, nil
}

// Stats reports the document count and two metadata orderings, ascending
// by creation time and ascending by modification time. No content is
// parsed.
type Stats struct {
	Count            int
	CreatedAscending []Meta
	UpdatedAscending []Meta
}

// Stats scans the collection's metadata. Lock markers and non-document
// entries are excluded from the count, like [Collection.All].
func (c *Collection) Stats(ctx context.Context) (Stats, error) {
	if ctx == nil {
		return Stats{}, errors.New("stats: context is nil")
	}

	metas, err := c.scanMeta()
	if err != nil {
		return Stats{}, withContext(fmt.Errorf("stats: %w", err), c.name, "", "")
	}

	byCreated := make([]Meta, len(metas))
	copy(byCreated, metas)
	sortMetasByCreated(byCreated)

	byUpdated := make([]Meta, len(metas))
	copy(byUpdated, metas)
	sort.Slice(byUpdated, func(i, j int) bool {
		if byUpdated[i].UpdatedAt.Equal(byUpdated[j].UpdatedAt) {
			return byUpdated[i].ID < byUpdated[j].ID
		}

		return byUpdated[i].UpdatedAt.Before(byUpdated[j].UpdatedAt)
	})

	return Stats{
		Count:            len(metas),
		CreatedAscending: byCreated,
		UpdatedAscending: byUpdated,
	}, nil
}

// scanMeta lists document metadata with the same exclusion rule as All,
// without reading content. Entries that vanish mid-scan are skipped.
func (c *Collection) scanMeta() ([]Meta, error) {
	entries, err := c.fs.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading collection dir: %w", err)
	}

	metas := make([]Meta, 0, len(entries))

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

		created, modified := fs.FileTimes(path, info)

		metas = append(metas, Meta{ID: id, CreatedAt: created, UpdatedAt: modified})
	}

	return metas, nil
}

// sortMetasByCreated orders oldest first; ties break by id so eviction
// order is deterministic when timestamps collide.
func sortMetasByCreated(metas []Meta) {
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].ID < metas[j].ID
		}

		return metas[i].CreatedAt.Before(metas[j].CreatedAt)
	})
}
