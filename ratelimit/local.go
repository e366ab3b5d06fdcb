package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// localSweepThreshold bounds how large the bucket map grows before
// idle entries are evicted.
const localSweepThreshold = 4096

// localIdleAfter matches the Redis bucket TTL so both backends forget
// a key on the same schedule.
const localIdleAfter = bucketTTLSeconds * time.Second

type localBucket struct {
	tokens float64
	last   time.Time
}

// LocalLimiter is an in-process token bucket keyed by string. It keeps
// the same refill semantics as RedisLimiter but shares nothing across
// processes, so it only bounds the local instance's throughput.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	now     func() time.Time
}

// NewLocalLimiter creates an empty in-process limiter.
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*localBucket),
		now:     time.Now,
	}
}

// Allow takes one token from the local bucket for key. It never
// returns a non-nil error.
func (l *LocalLimiter) Allow(_ context.Context, key string, capacity int) (Decision, error) {
	capacity = clampCapacity(capacity)
	now := l.now()
	refill := float64(capacity) / 60.0

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= localSweepThreshold {
			l.sweep(now)
		}
		b = &localBucket{tokens: float64(capacity), last: now}
		l.buckets[key] = b
	}

	if delta := now.Sub(b.last).Seconds(); delta > 0 {
		b.tokens = math.Min(float64(capacity), b.tokens+delta*refill)
	}
	b.last = now

	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}

	return Decision{
		Allowed:   allowed,
		Remaining: int(math.Floor(b.tokens)),
		Reset:     now.Unix() + 60,
	}, nil
}

// sweep drops buckets idle past the TTL. Caller holds mu.
func (l *LocalLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > localIdleAfter {
			delete(l.buckets, key)
		}
	}
}
