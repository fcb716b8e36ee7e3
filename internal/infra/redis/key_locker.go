package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"interview-scoring-service/internal/domain"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// KeyLocker is a per-key lock shared by every instance using the same Redis.
// Locks are held as: SET lock:{key} {token} NX PX {ttl}
type KeyLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewKeyLocker builds a locker whose locks expire after ttl; Lock gives up
// after wait (0 means only the caller's context bounds it).
func NewKeyLocker(client *redis.Client, ttl, wait time.Duration) *KeyLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &KeyLocker{client: client, ttl: ttl, wait: wait, poll: 10 * time.Millisecond}
}

func (l *KeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	lockKey := "lock:" + key
	token := uuid.NewString()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.Background(), l.client, []string{lockKey}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}
