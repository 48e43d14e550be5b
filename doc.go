// Package spillcache implements a transactional cache for derived values attached
// to persisted objects. Values are keyed by (object ID, key) and carry a dirty flag
// that marks them possibly stale without discarding them.
//
// Components:
//   - Store: backing store capability. MemoryStore (volatile), ProviderStore
//     (byte providers: Ristretto, BigCache, Redis) and sqlitestore.Store (durable,
//     single worker goroutine owning the connection).
//   - Cacheable: per-object capability. Embed it in an entity; it writes through
//     to its assigned Store or buffers locally while suspended.
//   - SuspendableCache: the same buffering addressed by explicit object ID, for
//     bulk passes touching many objects. It is itself a Store.
//
// Transaction pattern:
//
//	sc := spillcache.NewSuspendableCache(store)
//	sc.SuspendCache()                    // buffer everything locally
//	sc.Set(id, "histogram", h, false)    // read-your-writes via sc.Get
//	sc.SpillCache()                      // replay sets then removals into store
//
// Unknown entries are dirty: IsDirty returns true for anything never recorded.
package spillcache
