package spillcache

import "github.com/google/uuid"

// Store is the backing store capability consumed by Cacheable and SuspendableCache.
// Implementations must be safe for concurrent use. Unknown entries resolve to def
// (Get) or true (IsDirty); they are never errors.
type Store interface {
	Set(id uuid.UUID, key string, value any, dirty bool)
	Get(id uuid.UUID, key string, def any) any
	Remove(id uuid.UUID, key string)
	IsDirty(id uuid.UUID, key string) bool
	SetDirty(id uuid.UUID, key string, dirty bool)
	Close() error
}

// Suspender is implemented by caches with a transaction scope.
// SuspendCache starts buffering; SpillCache flushes the buffer and ends the scope.
type Suspender interface {
	SuspendCache()
	SpillCache()
}

// NewID mints a stable object ID. Durable stores persist it as text, so it must be
// minted once per entity and kept with the entity's persisted state.
func NewID() uuid.UUID { return uuid.New() }
