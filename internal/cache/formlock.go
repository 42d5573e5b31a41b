package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	formLockPrefix = "formlock:"

	// DefaultFormLockTTL bounds how long a crashed request can hold a form.
	DefaultFormLockTTL = 30 * time.Second
)

// releaseScript deletes the lock only if it still carries our token, so a
// request that outlived its TTL cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// FormLock admits one in-flight submission per form instance across every
// server replica, using SET NX PX on formlock:{user}:{form}.
type FormLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFormLock creates a FormLock. A zero ttl uses DefaultFormLockTTL.
func NewFormLock(client *redis.Client, ttl time.Duration) *FormLock {
	if ttl == 0 {
		ttl = DefaultFormLockTTL
	}
	return &FormLock{client: client, ttl: ttl}
}

// Acquire takes the lock for key. ok is false when another submission holds
// it.
func (l *FormLock) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	full := formLockPrefix + key

	ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("form lock acquire: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{full}, token).Err(); err != nil {
			slog.Warn("form lock release error", "key", key, "error", err)
		}
	}
	return release, true, nil
}
