package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "skladisca:lock:"
	defaultTTL        = 30 * time.Second
	defaultRetryDelay = 20 * time.Millisecond
)

// Deletes the key only if it still holds our token, so an expired lock
// taken over by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis server.
// Locks expire after TTL so a crashed holder cannot block a key forever.
type Redis struct {
	client     *redis.Client
	TTL        time.Duration
	RetryDelay time.Duration
}

// NewRedis returns a locker backed by client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, TTL: defaultTTL, RetryDelay: defaultRetryDelay}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	key = redisKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.RetryDelay):
		}
	}

	return func() {
		// The caller's ctx may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			slog.Warn("releasing lock", "key", key, "error", err)
		}
	}, nil
}
