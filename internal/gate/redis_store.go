package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	countKeyPrefix = "gate:count:"
	lockKeyPrefix  = "gate:lock:"

	// countTTL bounds how long an idle failure streak is remembered.
	countTTL = 24 * time.Hour
)

// RedisStore implements Store on Redis so lockout state is shared across
// service instances and survives restarts. Counting relies on INCR, which is
// atomic per key, so concurrent failures from one identity never under-count.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed attempt store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (rs *RedisStore) Fail(ctx context.Context, identity string, maxAttempts int, lockFor time.Duration) (State, error) {
	countKey := countKeyPrefix + identity

	pipe := rs.client.TxPipeline()
	incr := pipe.Incr(ctx, countKey)
	pipe.Expire(ctx, countKey, countTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}

	st := State{Count: int(incr.Val())}
	if st.Count >= maxAttempts {
		st.LockedUntil = rs.now().Add(lockFor)
		if err := rs.client.Set(ctx, lockKeyPrefix+identity, 1, lockFor).Err(); err != nil {
			return State{}, errors.Join(ErrStoreUnavailable, err)
		}
	}
	return st, nil
}

func (rs *RedisStore) Status(ctx context.Context, identity string) (State, error) {
	count, err := rs.client.Get(ctx, countKeyPrefix+identity).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}

	st := State{Count: count}

	ttl, err := rs.client.PTTL(ctx, lockKeyPrefix+identity).Result()
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}
	if ttl > 0 {
		st.LockedUntil = rs.now().Add(ttl)
	}
	return st, nil
}

func (rs *RedisStore) Reset(ctx context.Context, identity string) error {
	if err := rs.client.Del(ctx, countKeyPrefix+identity, lockKeyPrefix+identity).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
