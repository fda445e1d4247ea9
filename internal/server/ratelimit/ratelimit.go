// Package ratelimit counts requests per key in a sliding window stored in
// Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter keeps one sorted set per key, scored by request time in
// nanoseconds.
type RedisLimiter struct {
	redis     redis.Cmdable
	limit     int
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		redis:     client,
		limit:     limit,
		window:    window,
		keyPrefix: "fintrack:ratelimit:",
		now:       time.Now,
	}
}

// NewRedisClient connects and pings. The caller owns the returned client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// Allow reports whether the request fits in the window and records it only
// when it does, so a client that keeps retrying is locked out for at most one
// window. On a Redis error the decision allows the request and the error is
// returned so the caller can log it.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	windowStart := now.Add(-l.window)
	k := l.keyPrefix + key

	pipe := l.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, k, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	zcard := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return l.open(now), fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(zcard.Val())
	if count >= l.limit {
		resetAt := now.Add(l.window)
		oldest, err := l.redis.ZRangeWithScores(ctx, k, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			resetAt = time.Unix(0, int64(oldest[0].Score)).Add(l.window)
		}
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, ResetAt: resetAt}, nil
	}

	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return l.open(now), err
	}

	pipe = l.redis.Pipeline()
	pipe.ZAdd(ctx, k, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10) + "-" + suffix,
	})
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return l.open(now), fmt.Errorf("rate limit %s: %w", key, err)
	}

	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - count - 1,
		ResetAt:   now.Add(l.window),
	}, nil
}

func (l *RedisLimiter) open(now time.Time) Decision {
	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit, ResetAt: now.Add(l.window)}
}

// Unlimited allows everything. Used when Redis is not configured.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true, Limit: -1, Remaining: -1}, nil
}
