package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a sliding window limiter backed by one sorted set per key, shared by
// every instance pointing at the same server.
type Redis struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedis creates a Redis limiter. Keys are stored under prefix.
func NewRedis(client redis.Cmdable, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// NewRedisClient connects to the server described by a redis:// or rediss:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Allow records a call for key and reports whether it is within the limit.
// A rejected call is removed again so it does not count against the window.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	setKey := l.prefix + key
	member := strconv.FormatInt(now.UnixMicro(), 10) + "-" + uuid.NewString()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, setKey, "-inf", strconv.FormatInt(now.Add(-l.window).UnixMicro(), 10))
	pipe.ZAdd(ctx, setKey, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	card := pipe.ZCard(ctx, setKey)
	pipe.PExpire(ctx, setKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis rate limit %s: %w", key, err)
	}

	if card.Val() > int64(l.limit) {
		if err := l.client.ZRem(ctx, setKey, member).Err(); err != nil {
			return false, fmt.Errorf("redis rate limit %s: %w", key, err)
		}
		return false, nil
	}
	return true, nil
}
