package bigcache

import (
	"context"
	"testing"
	"time"
)

func TestProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, Shards: 16, MaxEntriesInWindow: 100, MaxEntrySize: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	if _, hit, err := p.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("miss expected, hit=%v err=%v", hit, err)
	}
	ok, err := p.Set(ctx, "k", []byte("v"), 1, 0)
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	b, hit, err := p.Get(ctx, "k")
	if err != nil || !hit || string(b) != "v" {
		t.Fatalf("Get: %q hit=%v err=%v", b, hit, err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del of missing key: %v", err)
	}
}

func TestNewRejectsBadShardCount(t *testing.T) {
	if _, err := New(context.Background(), Config{LifeWindow: time.Minute, Shards: 3}); err == nil {
		t.Fatalf("expected error for non power-of-two shards")
	}
}
