package spillcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	pr "github.com/unkn0wn-root/spillcache/provider"
)

type call struct {
	op    string
	id    uuid.UUID
	key   string
	value any
	dirty bool
}

type entryKey struct {
	id  uuid.UUID
	key string
}

// fakeStore keeps dirty flags as given (unlike MemoryStore) and records calls.
type fakeStore struct {
	mu     sync.Mutex
	values map[entryKey]any
	dirty  map[entryKey]bool
	calls  []call
	closed bool
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[entryKey]any), dirty: make(map[entryKey]bool)}
}

func (s *fakeStore) record(c call) {
	s.calls = append(s.calls, c)
}

func (s *fakeStore) Set(id uuid.UUID, key string, value any, dirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(call{op: "set", id: id, key: key, value: value, dirty: dirty})
	s.values[entryKey{id, key}] = value
	s.dirty[entryKey{id, key}] = dirty
}

func (s *fakeStore) Get(id uuid.UUID, key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[entryKey{id, key}]; ok {
		return v
	}
	return def
}

func (s *fakeStore) Remove(id uuid.UUID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(call{op: "remove", id: id, key: key})
	delete(s.values, entryKey{id, key})
	delete(s.dirty, entryKey{id, key})
}

func (s *fakeStore) IsDirty(id uuid.UUID, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.dirty[entryKey{id, key}]; ok {
		return d
	}
	return true
}

func (s *fakeStore) SetDirty(id uuid.UUID, key string, dirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(call{op: "set_dirty", id: id, key: key, dirty: dirty})
	if _, ok := s.values[entryKey{id, key}]; ok {
		s.dirty[entryKey{id, key}] = dirty
	}
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) has(id uuid.UUID, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[entryKey{id, key}]
	return ok
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeStore) recorded() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu     sync.Mutex
	m      map[string]memEntry
	reject bool  // Set returns ok=false
	err    error // returned by every call when set
	closed bool
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, false, p.err
	}
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return false, p.err
	}
	if p.reject {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("memProvider: already closed")
	}
	p.closed = true
	return nil
}

func (p *memProvider) put(key string, raw []byte) {
	p.mu.Lock()
	p.m[key] = memEntry{v: raw}
	p.mu.Unlock()
}

func (p *memProvider) present(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

type recordingHooks struct {
	NopHooks
	mu        sync.Mutex
	faults    []error
	selfHeals []string
	rejected  []string
	closed    []string
}

func (h *recordingHooks) WorkerFault(_ string, err error) {
	h.mu.Lock()
	h.faults = append(h.faults, err)
	h.mu.Unlock()
}

func (h *recordingHooks) SelfHeal(_, reason string) {
	h.mu.Lock()
	h.selfHeals = append(h.selfHeals, reason)
	h.mu.Unlock()
}

func (h *recordingHooks) ProviderSetRejected(k string) {
	h.mu.Lock()
	h.rejected = append(h.rejected, k)
	h.mu.Unlock()
}

func (h *recordingHooks) StoreClosed(op string) {
	h.mu.Lock()
	h.closed = append(h.closed, op)
	h.mu.Unlock()
}

type logLine struct {
	level string
	msg   string
	f     Fields
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) add(level, msg string, f Fields) {
	l.mu.Lock()
	l.lines = append(l.lines, logLine{level, msg, f})
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(msg string, f Fields) { l.add("debug", msg, f) }
func (l *recordingLogger) Info(msg string, f Fields)  { l.add("info", msg, f) }
func (l *recordingLogger) Warn(msg string, f Fields)  { l.add("warn", msg, f) }
func (l *recordingLogger) Error(msg string, f Fields) { l.add("error", msg, f) }
