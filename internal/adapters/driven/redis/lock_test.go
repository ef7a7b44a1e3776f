package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestConnect(t *testing.T) {
	mr, _ := setupTestRedis(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.Close()

	if _, err := Connect(context.Background(), "not-a-url"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestLock_OwnerID_Unique(t *testing.T) {
	_, client := setupTestRedis(t)

	if NewLock(client).OwnerID() == NewLock(client).OwnerID() {
		t.Error("expected unique owner IDs")
	}
}

func TestLock_AcquireRelease(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()
	first, second := NewLock(client), NewLock(client)

	ok, err := first.Acquire(ctx, "ingest:doc-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got %v %v", ok, err)
	}

	ok, err = second.Acquire(ctx, "ingest:doc-1", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail, got %v %v", ok, err)
	}

	// Not the owner: release is a no-op
	if err := second.Release(ctx, "ingest:doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := second.Acquire(ctx, "ingest:doc-1", time.Minute); ok {
		t.Fatal("expected lock to survive foreign release")
	}

	if err := first.Release(ctx, "ingest:doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := second.Acquire(ctx, "ingest:doc-1", time.Minute); !ok {
		t.Error("expected acquire after release to succeed")
	}
}

func TestLock_Expires(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	lock := NewLock(client)

	if ok, _ := lock.Acquire(ctx, "job", 10*time.Second); !ok {
		t.Fatal("expected acquire to succeed")
	}
	mr.FastForward(11 * time.Second)

	if ok, _ := NewLock(client).Acquire(ctx, "job", 10*time.Second); !ok {
		t.Error("expected expired lock to be acquirable")
	}
}

func TestLock_Extend(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	lock := NewLock(client)

	if err := lock.Extend(ctx, "job", time.Minute); err == nil {
		t.Error("expected error extending a lock that is not held")
	}

	lock.Acquire(ctx, "job", 10*time.Second)
	if err := lock.Extend(ctx, "job", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := mr.TTL(lockPrefix + "job"); ttl <= 10*time.Second {
		t.Errorf("expected extended TTL, got %v", ttl)
	}
}

func TestLock_Ping(t *testing.T) {
	_, client := setupTestRedis(t)
	if err := NewLock(client).Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
