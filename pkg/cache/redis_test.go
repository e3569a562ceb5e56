package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheFromClient(client, "cratedeps:")
	t.Cleanup(func() { c.Close() })
	return mr, c
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("empty Get = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("cratedeps:k") {
		t.Error("key should be stored with prefix")
	}

	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	if err := c.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired key should miss")
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(ctx, RedisOptions{Addr: addr})
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if !IsRetryable(err) {
		t.Errorf("connection failure should be retryable: %v", err)
	}
}

func TestRedisCacheClear(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	mr.Set("other:key", "keep")

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d keys, want 3", n)
	}
	if !mr.Exists("other:key") {
		t.Error("Clear must not touch keys outside the prefix")
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("cleared key should miss")
	}
}

func TestRedisCacheClearNeedsPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	defer c.Close()
	if _, err := c.Clear(context.Background()); err == nil {
		t.Error("Clear without prefix should fail")
	}
}
