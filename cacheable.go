package spillcache

import (
	"sync"

	"github.com/google/uuid"
)

// Cacheable gives an entity its own cache. Embed a *Cacheable created with
// NewCacheable and assign a Store with SetStorageCache.
//
// Without a Store, or while suspended, mutations are buffered locally and the
// buffer always wins on reads. The lock guards the buffer only; it is never held
// across Store calls.
type Cacheable struct {
	id uuid.UUID

	mu        sync.Mutex
	store     Store
	suspended bool
	buf       *buffer
	onChanged func(Store)
}

// NewCacheable returns a cache for the object identified by id, buffering until a
// Store is assigned.
func NewCacheable(id uuid.UUID) *Cacheable {
	return &Cacheable{id: id, buf: newBuffer()}
}

// CacheID is the stable ID entries of this object are stored under.
func (c *Cacheable) CacheID() uuid.UUID { return c.id }

// StorageCache returns the assigned store, or nil.
func (c *Cacheable) StorageCache() Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// OnStorageCacheChanged registers fn to run whenever SetStorageCache assigns a
// store, before the local buffer is spilled into it. Owners use it to cascade the
// store to their sub-objects.
func (c *Cacheable) OnStorageCacheChanged(fn func(Store)) {
	c.mu.Lock()
	c.onChanged = fn
	c.mu.Unlock()
}

// SetStorageCache assigns s, fires the changed hook, then spills the local buffer into s.
func (c *Cacheable) SetStorageCache(s Store) {
	c.mu.Lock()
	c.store = s
	fn := c.onChanged
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
	c.SpillCache()
}

// SuspendCache opens a transaction: mutations buffer locally until SpillCache.
func (c *Cacheable) SuspendCache() {
	c.mu.Lock()
	c.suspended = true
	c.mu.Unlock()
}

// SpillCache ends the transaction and moves the buffer into the assigned store.
// The buffer is cleared on every spill; with no store assigned its contents are
// discarded.
func (c *Cacheable) SpillCache() {
	c.mu.Lock()
	c.suspended = false
	if c.buf.empty() {
		c.mu.Unlock()
		return
	}
	s := c.store
	b := c.buf
	c.buf = newBuffer()
	c.mu.Unlock()

	if s != nil {
		b.replay(s, c.id)
	}
}

// active returns the store to write through to, or nil when mutations must buffer.
func (c *Cacheable) active() Store {
	if c.suspended {
		return nil
	}
	return c.store
}

// SetCachedValue records value for key. Setting a value usually means it is no
// longer dirty; pass dirty=true to keep a best-effort value flagged stale.
func (c *Cacheable) SetCachedValue(key string, value any, dirty bool) {
	c.mu.Lock()
	s := c.active()
	if s != nil {
		c.buf.forget(key)
		c.mu.Unlock()
		s.Set(c.id, key, value, dirty)
		return
	}
	c.buf.set(key, value, dirty)
	c.mu.Unlock()
}

// GetCachedValue returns the latest value for key, dirty or not, or def.
func (c *Cacheable) GetCachedValue(key string, def any) any {
	c.mu.Lock()
	v, found, removed := c.buf.lookup(key)
	s := c.store
	c.mu.Unlock()
	switch {
	case found:
		return v
	case removed || s == nil:
		return def
	}
	return s.Get(c.id, key, def)
}

// RemoveCachedValue drops key. Outside a transaction the store is updated
// immediately. The key is recorded as removed either way, so a spill already
// replaying an older value for key is undone by the next spill.
func (c *Cacheable) RemoveCachedValue(key string) {
	c.mu.Lock()
	s := c.active()
	c.mu.Unlock()
	if s != nil {
		s.Remove(c.id, key)
	}
	c.mu.Lock()
	c.buf.remove(key)
	c.mu.Unlock()
}

// IsCachedValueDirty reports whether key needs recomputing. Unknown keys are dirty.
func (c *Cacheable) IsCachedValueDirty(key string) bool {
	c.mu.Lock()
	d, found, removed := c.buf.dirtyOf(key)
	s := c.store
	c.mu.Unlock()
	switch {
	case found:
		return d
	case removed || s == nil:
		return true
	}
	return s.IsDirty(c.id, key)
}

// SetCachedValueDirty flags key stale (or fresh) without touching its value.
func (c *Cacheable) SetCachedValueDirty(key string, dirty bool) {
	c.mu.Lock()
	s := c.active()
	if s != nil {
		c.mu.Unlock()
		s.SetDirty(c.id, key, dirty)
		return
	}
	c.buf.setDirty(key, dirty)
	c.mu.Unlock()
}
