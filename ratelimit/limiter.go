package ratelimit

import (
	"context"
	"errors"
)

// ErrBackendUnavailable wraps transport failures from the shared
// limiter backend.
var ErrBackendUnavailable = errors.New("rate limit backend unavailable")

// Decision is the outcome of a single bucket take.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Remaining is the whole number of tokens left after this take.
	Remaining int
	// Reset is the unix second at which a drained bucket is full again.
	Reset int64
}

// Limiter admits or rejects one request against the bucket named by
// key. Capacity is the bucket size in requests per minute; values
// below one are clamped to one.
type Limiter interface {
	Allow(ctx context.Context, key string, capacity int) (Decision, error)
}

func clampCapacity(capacity int) int {
	if capacity < 1 {
		return 1
	}
	return capacity
}
