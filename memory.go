package spillcache

import (
	"maps"
	"sync"

	"github.com/google/uuid"
)

type memEntries struct {
	values map[string]any
	dirty  map[string]bool
}

// MemoryStore is the volatile Store: a map from object ID to values and dirty flags.
// Every Set stores the value as freshly computed (dirty=false), whatever the
// caller passes.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[uuid.UUID]*memEntries
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[uuid.UUID]*memEntries)}
}

// entries returns id's tables, creating them. Caller holds the write lock.
func (s *MemoryStore) entries(id uuid.UUID) *memEntries {
	e, ok := s.objects[id]
	if !ok {
		e = &memEntries{values: make(map[string]any), dirty: make(map[string]bool)}
		s.objects[id] = e
	}
	return e
}

func (s *MemoryStore) Set(id uuid.UUID, key string, value any, _ bool) {
	s.mu.Lock()
	e := s.entries(id)
	e.values[key] = value
	e.dirty[key] = false
	s.mu.Unlock()
}

func (s *MemoryStore) Get(id uuid.UUID, key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.objects[id]; ok {
		if v, ok := e.values[key]; ok {
			return v
		}
	}
	return def
}

func (s *MemoryStore) Remove(id uuid.UUID, key string) {
	s.mu.Lock()
	if e, ok := s.objects[id]; ok {
		delete(e.values, key)
		delete(e.dirty, key)
		if len(e.values) == 0 && len(e.dirty) == 0 {
			delete(s.objects, id)
		}
	}
	s.mu.Unlock()
}

func (s *MemoryStore) IsDirty(id uuid.UUID, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.objects[id]; ok {
		if d, ok := e.dirty[key]; ok {
			return d
		}
	}
	return true
}

func (s *MemoryStore) SetDirty(id uuid.UUID, key string, dirty bool) {
	s.mu.Lock()
	s.entries(id).dirty[key] = dirty
	s.mu.Unlock()
}

// Values returns a copy of the values recorded for id.
func (s *MemoryStore) Values(id uuid.UUID) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objects[id]
	if !ok {
		return map[string]any{}
	}
	return maps.Clone(e.values)
}

func (s *MemoryStore) Close() error { return nil }
