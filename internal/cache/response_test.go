package cache_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/emsdir/searchd/internal/cache"
	"github.com/emsdir/searchd/internal/cache/redisstore"
)

func newResponseCache(t *testing.T) *cache.ResponseCache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	client, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewResponseCache(client, time.Minute, 250*time.Millisecond, nil)
}

func TestResponseCache_StoreAndLookup(t *testing.T) {
	rc := newResponseCache(t)
	ctx := context.Background()

	key := cache.Key("/search", "state=TX", "", 9)
	if got := rc.Lookup(ctx, key); got != nil {
		t.Fatalf("cold lookup=%q want miss", got)
	}

	rc.Store(ctx, key, []byte(`{"filteredCount":3}`))
	got := rc.Lookup(ctx, key)
	if string(got) != `{"filteredCount":3}` {
		t.Fatalf("lookup=%q want stored body", got)
	}
}

func TestResponseCache_PurgeAll(t *testing.T) {
	rc := newResponseCache(t)
	ctx := context.Background()

	k1 := cache.Key("/search", "state=TX", "", 9)
	k2 := cache.Key("/search", "state=CA", "", 9)
	rc.Store(ctx, k1, []byte("a"))
	rc.Store(ctx, k2, []byte("b"))

	n, err := rc.PurgeAll(ctx)
	if err != nil {
		t.Fatalf("PurgeAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged=%d want 2", n)
	}
	if rc.Lookup(ctx, k1) != nil || rc.Lookup(ctx, k2) != nil {
		t.Fatal("keys survived purge")
	}
}

func TestResponseCache_NilIsSafe(t *testing.T) {
	var rc *cache.ResponseCache
	ctx := context.Background()
	if got := rc.Lookup(ctx, "k"); got != nil {
		t.Fatalf("nil cache lookup=%q want nil", got)
	}
	rc.Store(ctx, "k", []byte("v"))
	if n, err := rc.PurgeAll(ctx); n != 0 || err != nil {
		t.Fatalf("nil purge=(%d,%v) want (0,nil)", n, err)
	}
}
