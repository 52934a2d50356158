package reconcile

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader reads the durable copy of the snapshot.
type Loader func(ctx context.Context) (Snapshot, error)

// SnapshotCache holds the authoritative in-memory snapshot. The durable copy
// is read once, lazily, and afterwards only written to.
type SnapshotCache struct {
	mu     sync.RWMutex
	snap   Snapshot
	loaded bool
	load   Loader
	sf     singleflight.Group
}

// NewSnapshotCache creates a cache backed by the given loader.
func NewSnapshotCache(load Loader) *SnapshotCache {
	return &SnapshotCache{load: load}
}

// Get returns a copy of the cached snapshot, loading it on first use.
// Uses singleflight so concurrent first reads share one load.
func (c *SnapshotCache) Get(ctx context.Context) (Snapshot, error) {
	c.mu.RLock()
	if c.loaded {
		snap := c.snap.Clone()
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	_, err, _ := c.sf.Do("snapshot", func() (interface{}, error) {
		c.mu.RLock()
		loaded := c.loaded
		c.mu.RUnlock()
		if loaded {
			return nil, nil
		}

		snap, err := c.load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if !c.loaded {
			c.snap = snap
			c.loaded = true
		}
		c.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone(), nil
}

// Set replaces the cached snapshot.
func (c *SnapshotCache) Set(snap Snapshot) {
	c.mu.Lock()
	c.snap = snap.Clone()
	c.loaded = true
	c.mu.Unlock()
}

// Invalidate drops the cached copy so the next Get reloads it.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.loaded = false
	c.mu.Unlock()
}
