package sqlitestore

import (
	"testing"

	"github.com/unkn0wn-root/spillcache"
)

func TestCacheableSpillsIntoDurableStore(t *testing.T) {
	path := tempPath(t)
	s := openTestStore(t, path, nil)

	item := spillcache.NewCacheable(spillcache.NewID())
	item.SetStorageCache(s)

	item.SetCachedValue("stats", "v1", false)
	item.SuspendCache()
	item.SetCachedValue("stats", "v2", false)
	item.SetCachedValueDirty("stats", true)
	item.RemoveCachedValue("histogram")

	if got := s.Get(item.CacheID(), "stats", nil); got != "v1" {
		t.Fatalf("suspended write leaked: %v", got)
	}
	if got := item.GetCachedValue("stats", nil); got != "v2" {
		t.Fatalf("read-your-writes: %v", got)
	}
	item.SpillCache()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s2 := openTestStore(t, path, nil)
	t.Cleanup(func() { _ = s2.Close() })

	if got := s2.Get(item.CacheID(), "stats", nil); got != "v2" {
		t.Fatalf("after reopen: %v", got)
	}
	if !s2.IsDirty(item.CacheID(), "stats") {
		t.Fatalf("dirty flag lost")
	}
}

func TestBulkPassThroughSuspendableCache(t *testing.T) {
	s := openTestStore(t, tempPath(t), nil)
	t.Cleanup(func() { _ = s.Close() })

	shared := spillcache.NewSuspendableCache(s)
	items := make([]*spillcache.Cacheable, 20)
	for i := range items {
		items[i] = spillcache.NewCacheable(spillcache.NewID())
		items[i].SetStorageCache(shared)
	}

	shared.SuspendCache()
	for i, it := range items {
		it.SetCachedValue("index", i, false)
	}
	for _, it := range items {
		if got := s.Get(it.CacheID(), "index", "absent"); got != "absent" {
			t.Fatalf("write reached disk during bulk pass: %v", got)
		}
	}
	shared.SpillCache()

	for i, it := range items {
		if got := s.Get(it.CacheID(), "index", nil); got != i {
			t.Fatalf("item %d: %#v", i, got)
		}
	}
}
