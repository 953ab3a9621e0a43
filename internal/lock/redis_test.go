package lock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisLockExcludes(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	l := NewRedis(client)
	client.Del(ctx, redisKeyPrefix+"test-key")

	unlock, err := l.Lock(ctx, "test-key")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(waitCtx, "test-key"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second Lock to time out, got %v", err)
	}

	unlock()

	unlock2, err := l.Lock(ctx, "test-key")
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	unlock2()
}

func TestRedisUnlockKeepsForeignLock(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	l := NewRedis(client)
	key := redisKeyPrefix + "test-foreign"
	client.Del(ctx, key)

	unlock, err := l.Lock(ctx, "test-foreign")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	// Simulate expiry and takeover by another holder.
	client.Set(ctx, key, "someone-else", time.Minute)
	unlock()

	got, _ := client.Get(ctx, key).Result()
	if got != "someone-else" {
		t.Errorf("expected foreign lock to survive, got %q", got)
	}
	client.Del(ctx, key)
}
