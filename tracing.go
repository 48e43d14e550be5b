package spillcache

import "github.com/google/uuid"

// TracingStore logs every call to the wrapped Store, with its result, at debug level.
type TracingStore struct {
	inner Store
	log   Logger
}

var (
	_ Store     = (*TracingStore)(nil)
	_ Suspender = (*TracingStore)(nil)
)

// NewTracingStore wraps inner. A nil logger disables the tracing output.
func NewTracingStore(inner Store, log Logger) *TracingStore {
	return &TracingStore{inner: inner, log: coalesce[Logger](log, NopLogger{})}
}

// SuspendCache forwards to the wrapped store when it has a transaction scope.
func (t *TracingStore) SuspendCache() {
	t.log.Debug("suspend_cache", nil)
	if s, ok := t.inner.(Suspender); ok {
		s.SuspendCache()
	}
}

func (t *TracingStore) SpillCache() {
	t.log.Debug("spill_cache", nil)
	if s, ok := t.inner.(Suspender); ok {
		s.SpillCache()
	}
}

func (t *TracingStore) Set(id uuid.UUID, key string, value any, dirty bool) {
	t.log.Debug("set_cached_value", Fields{"id": id.String(), "key": key, "value": value, "dirty": dirty})
	t.inner.Set(id, key, value, dirty)
}

func (t *TracingStore) Get(id uuid.UUID, key string, def any) any {
	v := t.inner.Get(id, key, def)
	t.log.Debug("get_cached_value", Fields{"id": id.String(), "key": key, "default": def, "result": v})
	return v
}

func (t *TracingStore) Remove(id uuid.UUID, key string) {
	t.log.Debug("remove_cached_value", Fields{"id": id.String(), "key": key})
	t.inner.Remove(id, key)
}

func (t *TracingStore) IsDirty(id uuid.UUID, key string) bool {
	d := t.inner.IsDirty(id, key)
	t.log.Debug("is_cached_value_dirty", Fields{"id": id.String(), "key": key, "result": d})
	return d
}

func (t *TracingStore) SetDirty(id uuid.UUID, key string, dirty bool) {
	t.log.Debug("set_cached_value_dirty", Fields{"id": id.String(), "key": key, "dirty": dirty})
	t.inner.SetDirty(id, key, dirty)
}

func (t *TracingStore) Close() error {
	t.log.Debug("close", nil)
	return t.inner.Close()
}
