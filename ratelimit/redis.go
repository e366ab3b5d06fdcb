package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// bucketTTLSeconds keeps idle buckets from accumulating in Redis. Two
// full refill windows is enough for any bucket to read as full again.
const bucketTTLSeconds = 120

// takeBucketLua refills and takes one token in a single round trip so
// concurrent consumers across processes see one consistent bucket.
// Returns {allowed, remaining whole tokens}.
var takeBucketLua = redis.NewScript(`
local tokens, ts = unpack(redis.call('HMGET', KEYS[1], 'tokens', 'ts'))
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

if tokens == false then
  tokens = capacity
  ts = now
else
  tokens = tonumber(tokens)
  ts = tonumber(ts)
end

local delta = now - ts
if delta > 0 then
  tokens = math.min(capacity, tokens + delta * refill)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call('HMSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', KEYS[1], ttl)

return {allowed, math.floor(tokens)}
`)

// RedisLimiter is a shared token bucket stored in Redis. Buckets
// refill continuously at capacity tokens per minute.
type RedisLimiter struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisLimiter creates a limiter on the given client. Bucket keys
// are stored under prefix.
func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "bucket"
	}
	return &RedisLimiter{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow takes one token from the shared bucket for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, capacity int) (Decision, error) {
	capacity = clampCapacity(capacity)
	now := l.now().Unix()
	refill := float64(capacity) / 60.0

	res, err := takeBucketLua.Run(ctx, l.redis, []string{l.prefix + ":" + key},
		capacity,
		strconv.FormatFloat(refill, 'f', -1, 64),
		now,
		bucketTTLSeconds,
	).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply", ErrBackendUnavailable)
	}

	allowed, ok1 := res[0].(int64)
	remaining, ok2 := res[1].(int64)
	if !ok1 || !ok2 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply", ErrBackendUnavailable)
	}

	return Decision{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		Reset:     now + 60,
	}, nil
}
