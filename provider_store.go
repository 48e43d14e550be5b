package spillcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	c "github.com/unkn0wn-root/spillcache/codec"
	"github.com/unkn0wn-root/spillcache/internal/util"
	"github.com/unkn0wn-root/spillcache/internal/wire"
	pr "github.com/unkn0wn-root/spillcache/provider"
)

// ProviderStoreOptions configure a Store over a byte provider.
// Only Namespace and Provider are required; others have sensible defaults.
type ProviderStoreOptions struct {
	// Required
	Namespace string // logical namespace to avoid collisions. e.g. "thumbnails"
	Provider  pr.Provider

	Codec  c.Codec[any]  // nil => codec.Default() (Typed msgpack)
	Logger Logger        // nil => NopLogger
	Hooks  Hooks         // nil => NopHooks
	TTL    time.Duration // 0 => no expiry (subject to the provider's own eviction)
}

// ProviderStore is a Store over a provider.Provider. Each entry is one provider key
// holding the dirty flag and the encoded value in a single frame.
//
// Provider errors and undecodable entries are contained: reads fall back to the
// default (or dirty=true), corrupt entries are deleted, and Hooks are told.
type ProviderStore struct {
	ns       string
	provider pr.Provider
	codec    c.Codec[any]
	log      Logger
	hooks    Hooks
	ttl      time.Duration

	// dirtyMu serializes the read-modify-write of SetDirty against Set/Remove.
	dirtyMu sync.Mutex

	closeMu sync.RWMutex
	closed  bool
}

var _ Store = (*ProviderStore)(nil)

func NewProviderStore(opts ProviderStoreOptions) (*ProviderStore, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("spillcache: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("spillcache: namespace is required")
	}
	s := &ProviderStore{
		ns:       opts.Namespace,
		provider: opts.Provider,
		ttl:      opts.TTL,
	}
	s.codec = coalesce[c.Codec[any]](opts.Codec, c.Default())
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return s, nil
}

func (s *ProviderStore) entryKey(id uuid.UUID, key string) string {
	return util.EntryKey("entry:"+s.ns, id, key)
}

// open reports whether the store still accepts calls; the caller must call
// s.closeMu.RUnlock when it returns true.
func (s *ProviderStore) open(op string) bool {
	s.closeMu.RLock()
	if s.closed {
		s.closeMu.RUnlock()
		s.hooks.StoreClosed(op)
		s.log.Warn("call on closed store dropped", Fields{"op": op})
		return false
	}
	return true
}

func (s *ProviderStore) fault(op string, id uuid.UUID, key string, err error) {
	oe := &OpError{Op: op, ID: id, Key: key, Err: err}
	s.hooks.WorkerFault(op, oe)
	s.log.Error("provider store operation failed", Fields{"op": op, "id": id.String(), "key": key, "err": err})
}

func (s *ProviderStore) Set(id uuid.UUID, key string, value any, dirty bool) {
	if !s.open("set") {
		return
	}
	defer s.closeMu.RUnlock()

	payload, err := s.codec.Encode(value)
	if err != nil {
		s.fault("set", id, key, err)
		return
	}
	k := s.entryKey(id, key)
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	ok, err := s.provider.Set(context.Background(), k, wire.EncodeEntry(dirty, payload), 1, s.ttl)
	if err != nil {
		s.fault("set", id, key, err)
		return
	}
	if !ok {
		s.hooks.ProviderSetRejected(k)
		s.log.Debug("set rejected by provider (pressure)", Fields{"key": k})
	}
}

// load returns the decoded frame for k, deleting it when corrupt.
func (s *ProviderStore) load(op string, id uuid.UUID, key string) (dirty bool, payload []byte, ok bool) {
	k := s.entryKey(id, key)
	raw, hit, err := s.provider.Get(context.Background(), k)
	if err != nil {
		s.fault(op, id, key, err)
		return false, nil, false
	}
	if !hit {
		return false, nil, false
	}
	dirty, payload, err = wire.DecodeEntry(raw)
	if err != nil {
		_ = s.provider.Del(context.Background(), k) // self-heal corrupt
		s.hooks.SelfHeal(k, "corrupt")
		return false, nil, false
	}
	return dirty, payload, true
}

func (s *ProviderStore) Get(id uuid.UUID, key string, def any) any {
	if !s.open("get") {
		return def
	}
	defer s.closeMu.RUnlock()

	_, payload, ok := s.load("get", id, key)
	if !ok {
		return def
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		k := s.entryKey(id, key)
		_ = s.provider.Del(context.Background(), k) // self-heal
		s.hooks.SelfHeal(k, "value_decode")
		s.log.Warn("cached value could not be decoded", Fields{"key": k, "err": err})
		return def
	}
	return v
}

func (s *ProviderStore) Remove(id uuid.UUID, key string) {
	if !s.open("remove") {
		return
	}
	defer s.closeMu.RUnlock()

	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	if err := s.provider.Del(context.Background(), s.entryKey(id, key)); err != nil {
		s.fault("remove", id, key, err)
	}
}

func (s *ProviderStore) IsDirty(id uuid.UUID, key string) bool {
	if !s.open("is_dirty") {
		return true
	}
	defer s.closeMu.RUnlock()

	dirty, _, ok := s.load("is_dirty", id, key)
	if !ok {
		return true
	}
	return dirty
}

// SetDirty updates the flag of an existing entry; missing entries stay missing.
func (s *ProviderStore) SetDirty(id uuid.UUID, key string, dirty bool) {
	if !s.open("set_dirty") {
		return
	}
	defer s.closeMu.RUnlock()

	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	k := s.entryKey(id, key)
	raw, hit, err := s.provider.Get(context.Background(), k)
	if err != nil {
		s.fault("set_dirty", id, key, err)
		return
	}
	if !hit {
		return
	}
	updated, err := wire.WithDirty(raw, dirty)
	if err != nil {
		_ = s.provider.Del(context.Background(), k) // self-heal corrupt
		s.hooks.SelfHeal(k, "corrupt")
		return
	}
	ok, err := s.provider.Set(context.Background(), k, updated, 1, s.ttl)
	if err != nil {
		s.fault("set_dirty", id, key, err)
		return
	}
	if !ok {
		s.hooks.ProviderSetRejected(k)
	}
}

func (s *ProviderStore) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.closeMu.Unlock()
	return s.provider.Close(context.Background())
}
