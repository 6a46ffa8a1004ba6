// Package mirror holds a client-side snapshot of workspace collections.
// The stream protocol only signals "collection changed"; consumers refetch
// the full list and replace the snapshot here. The sequence number lets a
// UI cheaply detect that anything changed since it last rendered.
package mirror

import (
	"encoding/json"
	"sync"
)

type key struct {
	workspace  string
	collection string
}

// Cache is a concurrency-safe snapshot store. Replacement is whole-snapshot:
// there is no per-document merging, so a stale refetch simply loses to the
// next one (last write wins).
type Cache struct {
	mu   sync.RWMutex
	seq  uint64
	data map[key]json.RawMessage
}

func New() *Cache {
	return &Cache{data: make(map[key]json.RawMessage)}
}

// Apply replaces the snapshot for a workspace collection and returns the new
// sequence number. Re-applying an identical snapshot still bumps the
// sequence; callers treat it as "fresh data arrived", not "data differs".
func (c *Cache) Apply(workspace, collection string, snapshot json.RawMessage) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.data[key{workspace, collection}] = snapshot
	return c.seq
}

// Get returns the current snapshot for a workspace collection, or ok=false
// if none has been applied yet.
func (c *Cache) Get(workspace, collection string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	raw, ok := c.data[key{workspace, collection}]
	return raw, ok
}

// Seq returns the current sequence number; it increases on every Apply.
func (c *Cache) Seq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}

// Drop removes all snapshots for a workspace, e.g. after leaving it.
func (c *Cache) Drop(workspace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if k.workspace == workspace {
			delete(c.data, k)
		}
	}
	c.seq++
}
