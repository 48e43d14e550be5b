package spillcache

import "github.com/google/uuid"

// buffer holds one object's pending cache mutations.
// Keys in removed never appear in values: set cancels a pending removal and
// remove drops the pending value.
type buffer struct {
	values  map[string]any
	order   []string // value keys in first-set order
	dirty   map[string]bool
	removed []string
}

func newBuffer() *buffer {
	return &buffer{
		values: make(map[string]any),
		dirty:  make(map[string]bool),
	}
}

func (b *buffer) empty() bool {
	return len(b.values) == 0 && len(b.dirty) == 0 && len(b.removed) == 0
}

func (b *buffer) set(key string, value any, dirty bool) {
	if _, ok := b.values[key]; !ok {
		b.order = append(b.order, key)
	}
	b.values[key] = value
	b.dirty[key] = dirty
	b.unremove(key)
}

func (b *buffer) setDirty(key string, dirty bool) {
	b.dirty[key] = dirty
}

func (b *buffer) remove(key string) {
	if _, ok := b.values[key]; ok {
		delete(b.values, key)
		b.order = dropKey(b.order, key)
	}
	delete(b.dirty, key)
	for _, k := range b.removed {
		if k == key {
			return
		}
	}
	b.removed = append(b.removed, key)
}

// forget drops every trace of key; used after a write-through made the
// buffered state for key obsolete.
func (b *buffer) forget(key string) {
	if _, ok := b.values[key]; ok {
		delete(b.values, key)
		b.order = dropKey(b.order, key)
	}
	delete(b.dirty, key)
	b.unremove(key)
}

func (b *buffer) unremove(key string) {
	b.removed = dropKey(b.removed, key)
}

// lookup reports the buffered value for key, and whether key is pending removal.
func (b *buffer) lookup(key string) (v any, found, removed bool) {
	if v, ok := b.values[key]; ok {
		return v, true, false
	}
	for _, k := range b.removed {
		if k == key {
			return nil, false, true
		}
	}
	return nil, false, false
}

func (b *buffer) dirtyOf(key string) (dirty, found, removed bool) {
	if d, ok := b.dirty[key]; ok {
		return d, true, false
	}
	for _, k := range b.removed {
		if k == key {
			return true, false, true
		}
	}
	return false, false, false
}

// replay applies the buffer to s: values with their dirty flag (false when
// unrecorded), then dirty flags recorded without a value, then removals.
func (b *buffer) replay(s Store, id uuid.UUID) {
	for _, key := range b.order {
		s.Set(id, key, b.values[key], b.dirty[key])
	}
	for key, d := range b.dirty {
		if _, ok := b.values[key]; !ok {
			s.SetDirty(id, key, d)
		}
	}
	for _, key := range b.removed {
		s.Remove(id, key)
	}
}

func dropKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
