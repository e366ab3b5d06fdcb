package authcore

import (
	"context"
	"sync"
	"time"

	internalaudit "github.com/appshots/authcore/internal/audit"
	"github.com/appshots/authcore/password"
	"github.com/appshots/authcore/ratelimit"
	"github.com/appshots/authcore/token"
)

// Engine is the identity and access core: login with lockout and MFA,
// refresh-session rotation, API key resolution with per-credential
// rate limiting, and one-time security tokens. Construct via Builder.
// All methods are safe for concurrent use.
type Engine struct {
	config  Config
	store   Store
	limiter ratelimit.Limiter
	tokens  *token.Manager
	hasher  *password.Hasher
	totp    *totpVerifier
	audit   *internalaudit.Dispatcher
	metrics *Metrics

	touch     chan touchRequest
	touchDone chan struct{}
	touchWG   sync.WaitGroup
	closeOnce sync.Once

	now func() time.Time
}

// Close stops the background touch worker and drains the audit
// dispatcher. Idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.touchDone != nil {
			close(e.touchDone)
			e.touchWG.Wait()
		}
		e.audit.Close()
	})
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e != nil {
		e.metrics.Inc(id)
	}
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e != nil {
		e.metrics.Observe(id, d)
	}
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	event.Timestamp = e.now()
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}

// mintAccess signs an access token for the principal bound to sessionID.
func (e *Engine) mintAccess(p Principal, sessionID string) (string, error) {
	return e.tokens.Mint(p.ID, string(p.Role), string(p.Tier), sessionID)
}
