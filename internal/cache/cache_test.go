package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func makeTestRegistry(t *testing.T) (*KeyRegistry, *miniredis.Miniredis) {
	// spin up in-memory Redis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	// point the real client at it
	rdb := redis.NewClient(&redis.Options{
		Addr:     mr.Addr(),
		Password: "",
		DB:       0,
	})
	return &KeyRegistry{client: rdb}, mr
}

func TestRegisterVerifyForget(t *testing.T) {
	c, mr := makeTestRegistry(t)
	ctx := context.Background()
	keys := []string{"uploads/o/b/1", "uploads/o/b/2"}

	// 1) Unknown keys
	ok, err := c.Verify(ctx, "alice", keys)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("unregistered keys must not verify")
	}

	// 2) Register
	if err := c.Register(ctx, "alice", keys, time.Hour); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got, _ := mr.Get("issued:uploads/o/b/1"); got != "alice" {
		t.Errorf("stored owner = %q", got)
	}
	if ttl := mr.TTL("issued:uploads/o/b/2"); ttl != time.Hour {
		t.Errorf("ttl = %v; want 1h", ttl)
	}

	// 3) Verify for owner and stranger
	if ok, _ := c.Verify(ctx, "alice", keys); !ok {
		t.Error("registered keys must verify for their owner")
	}
	if ok, _ := c.Verify(ctx, "mallory", keys); ok {
		t.Error("keys must not verify for another caller")
	}
	if ok, _ := c.Verify(ctx, "alice", append(keys, "uploads/o/b/3")); ok {
		t.Error("one unknown key must fail the whole set")
	}

	// 4) Forget
	if err := c.Forget(ctx, keys[:1]); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if mr.Exists("issued:uploads/o/b/1") {
		t.Error("forgotten key still present")
	}
	if ok, _ := c.Verify(ctx, "alice", keys); ok {
		t.Error("forgotten keys must not verify")
	}
}

func TestVerify_Expired(t *testing.T) {
	c, mr := makeTestRegistry(t)
	ctx := context.Background()

	if err := c.Register(ctx, "alice", []string{"k"}, time.Minute); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if ok, _ := c.Verify(ctx, "alice", []string{"k"}); ok {
		t.Error("expired keys must not verify")
	}
}

func TestRedisError(t *testing.T) {
	c, mr := makeTestRegistry(t)
	mr.Close()

	if err := c.Register(context.Background(), "alice", []string{"k"}, time.Minute); err == nil {
		t.Error("expected register error")
	}
	if _, err := c.Verify(context.Background(), "alice", []string{"k"}); err == nil {
		t.Error("expected verify error")
	}
}

func TestNoop(t *testing.T) {
	n := NewNoop()
	ctx := context.Background()
	if err := n.Register(ctx, "a", []string{"k"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if ok, err := n.Verify(ctx, "b", []string{"k"}); !ok || err != nil {
		t.Errorf("noop verify = %v, %v", ok, err)
	}
	if err := n.Forget(ctx, []string{"k"}); err != nil {
		t.Fatal(err)
	}
}
