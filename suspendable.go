package spillcache

import (
	"sync"

	"github.com/google/uuid"
)

// SuspendableCache buffers cache mutations for many objects, addressed by ID, while
// suspended. Outside a suspension it passes calls straight to its store.
//
// It is a Store, so it can be assigned to Cacheable objects: suspending it then
// defers the writes of every object sharing it, which is how bulk passes batch.
type SuspendableCache struct {
	store Store

	mu        sync.Mutex
	suspended bool
	bufs      map[uuid.UUID]*buffer
	order     []uuid.UUID // objects in first-buffered order
}

var (
	_ Store     = (*SuspendableCache)(nil)
	_ Suspender = (*SuspendableCache)(nil)
)

// NewSuspendableCache binds a cache to store. A nil store is allowed: everything
// buffers and each spill discards it.
func NewSuspendableCache(store Store) *SuspendableCache {
	return &SuspendableCache{store: store, bufs: make(map[uuid.UUID]*buffer)}
}

// SuspendCache makes every following call buffer until SpillCache.
func (c *SuspendableCache) SuspendCache() {
	c.mu.Lock()
	c.suspended = true
	c.mu.Unlock()
}

// SpillCache resets the suspension and replays buffered sets, dirty flags and
// removals into the store, object by object in the order they were first buffered.
// The buffers are cleared on every spill; with no store their contents are discarded.
func (c *SuspendableCache) SpillCache() {
	c.mu.Lock()
	c.suspended = false
	bufs, order := c.bufs, c.order
	c.bufs = make(map[uuid.UUID]*buffer)
	c.order = nil
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	for _, id := range order {
		bufs[id].replay(c.store, id)
	}
}

// Close spills pending mutations and closes the bound store.
func (c *SuspendableCache) Close() error {
	c.SpillCache()
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// bufferFor returns id's buffer, creating it. Caller holds mu.
func (c *SuspendableCache) bufferFor(id uuid.UUID) *buffer {
	b, ok := c.bufs[id]
	if !ok {
		b = newBuffer()
		c.bufs[id] = b
		c.order = append(c.order, id)
	}
	return b
}

func (c *SuspendableCache) direct() bool {
	return c.store != nil && !c.suspended
}

// Set writes through, or buffers while suspended. A write-through drops any
// pending state for the key.
func (c *SuspendableCache) Set(id uuid.UUID, key string, value any, dirty bool) {
	c.mu.Lock()
	if c.direct() {
		if b, ok := c.bufs[id]; ok {
			b.forget(key)
		}
		c.mu.Unlock()
		c.store.Set(id, key, value, dirty)
		return
	}
	c.bufferFor(id).set(key, value, dirty)
	c.mu.Unlock()
}

// Get reads the buffer first, then the store. A key pending removal reads as def.
func (c *SuspendableCache) Get(id uuid.UUID, key string, def any) any {
	c.mu.Lock()
	var (
		v              any
		found, removed bool
	)
	if b, ok := c.bufs[id]; ok {
		v, found, removed = b.lookup(key)
	}
	c.mu.Unlock()
	switch {
	case found:
		return v
	case removed || c.store == nil:
		return def
	}
	return c.store.Get(id, key, def)
}

// Remove drops key. Outside a suspension the store is updated immediately; the
// removal is buffered either way so a spill in flight cannot bring the key back.
func (c *SuspendableCache) Remove(id uuid.UUID, key string) {
	c.mu.Lock()
	direct := c.direct()
	c.mu.Unlock()
	if direct {
		c.store.Remove(id, key)
	}
	c.mu.Lock()
	c.bufferFor(id).remove(key)
	c.mu.Unlock()
}

// IsDirty reads the buffer first, then the store. Unknown keys are dirty.
func (c *SuspendableCache) IsDirty(id uuid.UUID, key string) bool {
	c.mu.Lock()
	var d, found, removed bool
	if b, ok := c.bufs[id]; ok {
		d, found, removed = b.dirtyOf(key)
	}
	c.mu.Unlock()
	switch {
	case found:
		return d
	case removed || c.store == nil:
		return true
	}
	return c.store.IsDirty(id, key)
}

// SetDirty flags key without touching its value, through or into the buffer.
func (c *SuspendableCache) SetDirty(id uuid.UUID, key string, dirty bool) {
	c.mu.Lock()
	if c.direct() {
		c.mu.Unlock()
		c.store.SetDirty(id, key, dirty)
		return
	}
	c.bufferFor(id).setDirty(key, dirty)
	c.mu.Unlock()
}
