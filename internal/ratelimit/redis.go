package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Limiter shared across server instances.
type Redis struct {
	client redis.UniversalClient
	max    int
	window time.Duration
	prefix string
}

// NewRedis allows max failures per key within window, counting in client.
func NewRedis(client redis.UniversalClient, max int, window time.Duration) *Redis {
	return &Redis{client: client, max: max, window: window, prefix: "bloglist:login:"}
}

func (r *Redis) Check(ctx context.Context, key string) error {
	count, err := r.client.Get(ctx, r.prefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if count >= int64(r.max) {
		return ErrRateLimited
	}
	return nil
}

func (r *Redis) Fail(ctx context.Context, key string) error {
	k := r.prefix + key
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	// Fixed window: the TTL is set by the first failure only.
	if count == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}
	return nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
