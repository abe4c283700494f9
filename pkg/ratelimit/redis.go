package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript prunes, counts and conditionally records in one round trip.
// KEYS[1] = key, ARGV = now ms, window ms, limit, member.
// Returns {allowed, count, oldest ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
	local oldest = 0
	local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if first[2] then
		oldest = tonumber(first[2])
	end
	if count > 0 then
		redis.call('PEXPIRE', key, window)
	end
	return {0, count, oldest}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// RedisWindow runs the sliding-window algorithm on a Redis sorted set per key,
// so every instance sharing the Redis sees the same quota.
// Idle keys expire after one window.
type RedisWindow struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisWindow connects to Redis and verifies it answers a PING.
func NewRedisWindow(ctx context.Context, opts RedisOptions, limit int, window time.Duration) (*RedisWindow, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "askme:ratelimit:"
	}
	return &RedisWindow{client: client, prefix: prefix, limit: limit, window: max(window, time.Millisecond)}, nil
}

// CheckAndRecord executes the window script atomically on the server.
func (r *RedisWindow) CheckAndRecord(ctx context.Context, key string, now time.Time) (Decision, error) {
	nowMs := now.UnixMilli()
	windowMs := r.window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, r.client, []string{r.prefix + key},
		nowMs, windowMs, r.limit, member).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis sliding window: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("redis sliding window: unexpected reply %v", res)
	}

	d := Decision{Allowed: res[0] == 1, Count: int(res[1]), Limit: r.limit}
	if !d.Allowed && d.Count > 0 {
		d.RetryAfter = retryAfterSeconds(res[2], windowMs, nowMs)
	}
	return d, nil
}

// Peek counts live members without pruning or recording.
func (r *RedisWindow) Peek(ctx context.Context, key string, now time.Time) (Usage, error) {
	lower := "(" + strconv.FormatInt(now.UnixMilli()-r.window.Milliseconds(), 10)
	n, err := r.client.ZCount(ctx, r.prefix+key, lower, "+inf").Result()
	if err != nil {
		return Usage{}, fmt.Errorf("redis peek: %w", err)
	}
	return Usage{Count: int(n), Limit: r.limit}, nil
}

// Close releases the Redis connection pool.
func (r *RedisWindow) Close() error {
	return r.client.Close()
}
