package metrics

import (
	"sync/atomic"
	"time"
)

// ID identifies a single counter or histogram slot.
type ID uint16

const (
	IDLoginSuccess ID = iota
	IDLoginFailure
	IDLoginLocked
	IDMFARequired
	IDMFASuccess
	IDMFAFailure
	IDRegisterSuccess
	IDRegisterDuplicate
	IDRefreshSuccess
	IDRefreshFailure
	IDSessionCreated
	IDSessionRevoked
	IDAPIKeyIssued
	IDAPIKeyResolved
	IDAPIKeyRejected
	IDRateLimitHit
	IDRateLimitFallback
	IDTokenIssued
	IDTokenConsumed
	IDTokenRejected
	IDPasswordResetRequest
	IDEmailVerified
	IDResolveLatency
	IDCount
)

const (
	bucketCount   = 8
	cacheLineSize = 64
)

// Config controls which recording paths are live. A zero Config
// produces a collector whose writes are no-ops.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

type histogram struct {
	buckets [bucketCount]uint64
}

// Metrics is a fixed-slot, allocation-free collector. Counters live in
// cache-line-padded uint64 slots updated with atomic adds; the single
// latency histogram uses 8 fixed buckets (<=5ms through +Inf).
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [IDCount]paddedCounter
	histograms    [IDCount]histogram
}

// Snapshot is a point-in-time deep copy of every slot. Maps are always
// non-nil so callers can range without guarding.
type Snapshot struct {
	Counters   map[ID]uint64
	Histograms map[ID][]uint64
}

// MetricID is the identifier type re-exported through the root package.
type MetricID = ID

// MetricIDCount is the number of defined metric slots.
const MetricIDCount = IDCount

// New builds a collector. When cfg.Enabled is false every write is a
// no-op and snapshots come back empty.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Enabled reports whether counter writes are live. Safe on nil.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histogram writes are live. Safe on nil.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc atomically increments a counter. Out-of-range IDs and nil or
// disabled receivers are ignored.
func (m *Metrics) Inc(id ID) {
	if m == nil || !m.enabled || id >= IDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the resolve histogram.
func (m *Metrics) Observe(id ID, d time.Duration) {
	if m == nil || !m.enableLatency || id != IDResolveLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value loads a single counter. Safe on nil.
func (m *Metrics) Value(id ID) uint64 {
	if m == nil || id >= IDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all live slots into fresh maps.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Counters:   map[ID]uint64{},
		Histograms: map[ID][]uint64{},
	}
	if m == nil || !m.enabled {
		return s
	}

	for id := ID(0); id < IDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, bucketCount)
		var samples uint64
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[IDResolveLatency].buckets[i])
			samples += buckets[i]
		}
		// A histogram that never saw a sample is omitted entirely.
		if samples > 0 {
			s.Histograms[IDResolveLatency] = buckets
		}
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
