package ratelimit

import (
	"context"
	"time"
)

// Fallback prefers the shared limiter and degrades to the local one
// when the shared backend errors or exceeds the timeout. Rate limiting
// is availability-biased: a broken backend must never take the API
// down with it.
type Fallback struct {
	shared  Limiter
	local   Limiter
	timeout time.Duration

	// OnFallback, when set, is called once per degraded decision.
	OnFallback func(err error)
}

// NewFallback wires a shared limiter with a local stand-in. A zero
// timeout disables the deadline on shared calls.
func NewFallback(shared, local Limiter, timeout time.Duration) *Fallback {
	return &Fallback{
		shared:  shared,
		local:   local,
		timeout: timeout,
	}
}

// Allow consults the shared bucket, falling back to the local bucket
// on any backend failure. The error return is always nil when a local
// limiter is configured.
func (f *Fallback) Allow(ctx context.Context, key string, capacity int) (Decision, error) {
	if f.shared != nil {
		callCtx := ctx
		if f.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, f.timeout)
			defer cancel()
		}

		d, err := f.shared.Allow(callCtx, key, capacity)
		if err == nil {
			return d, nil
		}
		if f.OnFallback != nil {
			f.OnFallback(err)
		}
		if f.local == nil {
			return Decision{}, err
		}
	}

	if f.local == nil {
		return Decision{}, ErrBackendUnavailable
	}
	return f.local.Allow(ctx, key, capacity)
}
