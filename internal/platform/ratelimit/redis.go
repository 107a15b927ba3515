// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	redisstore "github.com/taibuivan/rentwise/internal/platform/redis"
)

// windowPrefix is the Redis key taxonomy for sliding windows.
const windowPrefix = "ratelimit:"

// RedisWindow is a [Window] backed by one sorted set per key.
//
// Members are unique event IDs scored by their Unix-millisecond timestamp.
// Trim, add, count and expire run in a single MULTI/EXEC so concurrent
// replicas never observe a half-applied hit.
type RedisWindow struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisWindow creates a Redis-backed window.
func NewRedisWindow(client redis.UniversalClient) *RedisWindow {
	return &RedisWindow{client: client, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (limiter *RedisWindow) WithClock(now func() time.Time) *RedisWindow {
	limiter.now = now
	return limiter
}

// Hit implements [Window].
func (limiter *RedisWindow) Hit(context context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := limiter.now()
	redisKey := redisstore.Key(windowPrefix, key)
	cutoff := now.Add(-window).UnixMilli()

	var members *redis.ZSliceCmd
	_, err := limiter.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(context, redisKey, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(context, redisKey, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		members = pipe.ZRangeWithScores(context, redisKey, 0, -1)
		pipe.PExpire(context, redisKey, window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("redis_ratelimit_hit_failed: %w", err)
	}

	scored := members.Val()
	events := make([]time.Time, 0, len(scored))
	for _, member := range scored {
		events = append(events, time.UnixMilli(int64(member.Score)))
	}

	return evaluate(events, limit, window, now), nil
}

// Reset implements [Window].
func (limiter *RedisWindow) Reset(context context.Context, key string) error {
	if err := limiter.client.Del(context, redisstore.Key(windowPrefix, key)).Err(); err != nil {
		return fmt.Errorf("redis_ratelimit_reset_failed: %w", err)
	}
	return nil
}
