package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "aoe:ratelimit:"

// RedisWindow shares the quota between instances through INCR + PEXPIRE
type RedisWindow struct {
	client *redis.Client
	window time.Duration
	max    int
}

// NewRedisWindow connects to the redis instance at url (redis://...)
func NewRedisWindow(url string, window time.Duration, max int) (*RedisWindow, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisWindowWithClient(redis.NewClient(opts), window, max), nil
}

// NewRedisWindowWithClient wraps an existing client
func NewRedisWindowWithClient(client *redis.Client, window time.Duration, max int) *RedisWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMaxRequests
	}
	return &RedisWindow{client: client, window: window, max: max}
}

// Ping verifies the connection
func (r *RedisWindow) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Check counts one request against key
func (r *RedisWindow) Check(ctx context.Context, key string) (Result, error) {
	k := keyPrefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := int(incr.Val())
	remainingTTL := ttl.Val()
	// first hit of the window, or a key that lost its expiry
	if count == 1 || remainingTTL < 0 {
		if err := r.client.PExpire(ctx, k, r.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire failed: %w", err)
		}
		remainingTTL = r.window
	}

	res := Result{
		Allowed:   count <= r.max,
		Remaining: r.max - count,
		ResetAt:   time.Now().Add(remainingTTL),
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	return res, nil
}

// Close releases the client
func (r *RedisWindow) Close() error {
	return r.client.Close()
}
