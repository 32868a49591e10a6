package cache

import (
	"sync"

	"github.com/velofit/engine/pkg/core"
)

// SnapshotCache keeps recently saved snapshots by name so a restore
// right after a save avoids a database round trip.
type SnapshotCache struct {
	mu    sync.RWMutex
	snaps map[string]core.Snapshot
}

// NewSnapshotCache creates a new SnapshotCache
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		snaps: make(map[string]core.Snapshot),
	}
}

// Get retrieves a snapshot by name
func (c *SnapshotCache) Get(name string) (core.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snaps[name]
	return snap, ok
}

// Set stores a snapshot by name
func (c *SnapshotCache) Set(snap core.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps[snap.Name] = snap
}

// Delete removes a snapshot by name
func (c *SnapshotCache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snaps, name)
}

// Reset clears all snapshots from the cache
func (c *SnapshotCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = make(map[string]core.Snapshot)
}
