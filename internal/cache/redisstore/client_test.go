package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// creates a client connected to miniredis for testing
func newMini(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestGetSetDel(t *testing.T) {
	rc, _ := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, ok, err := rc.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing)=%v ok=%v want miss", err, ok)
	}

	if err := rc.Set(ctx, "k1", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := rc.Get(ctx, "k1")
	if err != nil || !ok || string(val) != "v1" {
		t.Fatalf("Get=%q ok=%v err=%v want v1", val, ok, err)
	}

	if err := rc.Del(ctx, "k1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := rc.Get(ctx, "k1"); ok {
		t.Fatal("key survived Del")
	}
}

func TestSet_TTL(t *testing.T) {
	rc, mr := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.Set(ctx, "k1", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := rc.Get(ctx, "k1"); ok {
		t.Fatal("key survived TTL")
	}
}

func TestDelPrefix(t *testing.T) {
	rc, _ := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, k := range []string{"search:a", "search:b", "other:c"} {
		if err := rc.Set(ctx, k, []byte("x"), time.Minute); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}

	n, err := rc.DelPrefix(ctx, "search:")
	if err != nil {
		t.Fatalf("DelPrefix: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted=%d want 2", n)
	}
	if _, ok, _ := rc.Get(ctx, "other:c"); !ok {
		t.Fatal("unrelated key deleted")
	}
}
