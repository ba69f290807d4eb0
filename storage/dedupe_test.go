package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T, ttl time.Duration) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisDeduper(client, ttl), mr
}

func TestDeduperAdd(t *testing.T) {
	d, _ := newTestDeduper(t, time.Hour)
	ctx := context.Background()

	added, err := d.Add(ctx, "user-1", "req-1")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !added {
		t.Fatal("first add must report new")
	}

	added, err = d.Add(ctx, "user-1", "req-1")
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if added {
		t.Fatal("second add must report duplicate")
	}

	// The same key under another user is independent.
	added, err = d.Add(ctx, "user-2", "req-1")
	if err != nil {
		t.Fatalf("add for user-2 failed: %v", err)
	}
	if !added {
		t.Fatal("keys must be scoped per user")
	}
}

func TestDeduperRemoveAllowsRetry(t *testing.T) {
	d, _ := newTestDeduper(t, time.Hour)
	ctx := context.Background()

	if _, err := d.Add(ctx, "user-1", "req-1"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := d.Remove(ctx, "user-1", "req-1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	added, err := d.Add(ctx, "user-1", "req-1")
	if err != nil {
		t.Fatalf("re-add failed: %v", err)
	}
	if !added {
		t.Fatal("removed key must be addable again")
	}
}

func TestDeduperTTLExpires(t *testing.T) {
	d, mr := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if _, err := d.Add(ctx, "user-1", "req-1"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	added, err := d.Add(ctx, "user-1", "req-1")
	if err != nil {
		t.Fatalf("add after expiry failed: %v", err)
	}
	if !added {
		t.Fatal("expired key must be addable again")
	}
}
