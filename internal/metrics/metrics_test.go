package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledCollectorIsNoOp(t *testing.T) {
	m := New(Config{})

	m.Inc(IDLoginSuccess)
	m.Observe(IDResolveLatency, 3*time.Millisecond)

	if got := m.Value(IDLoginSuccess); got != 0 {
		t.Fatalf("disabled counter = %d, want 0", got)
	}
	s := m.Snapshot()
	if len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("disabled snapshot not empty: %+v", s)
	}
	if s.Counters == nil || s.Histograms == nil {
		t.Fatal("snapshot maps must be non-nil")
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	m.Inc(IDLoginSuccess)
	m.Observe(IDResolveLatency, time.Millisecond)

	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil collector reported enabled")
	}
	if got := m.Value(IDLoginSuccess); got != 0 {
		t.Fatalf("nil Value = %d, want 0", got)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})

	const workers = 16
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(IDAPIKeyResolved)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(IDAPIKeyResolved); got != workers*perWorker {
		t.Fatalf("counter = %d, want %d", got, workers*perWorker)
	}
}

func TestObserveBucketPlacement(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	samples := []struct {
		d      time.Duration
		bucket int
	}{
		{3 * time.Millisecond, 0},
		{9 * time.Millisecond, 1},
		{20 * time.Millisecond, 2},
		{40 * time.Millisecond, 3},
		{90 * time.Millisecond, 4},
		{200 * time.Millisecond, 5},
		{400 * time.Millisecond, 6},
		{2 * time.Second, 7},
	}
	for _, s := range samples {
		m.Observe(IDResolveLatency, s.d)
	}

	got := m.Snapshot().Histograms[IDResolveLatency]
	if len(got) != bucketCount {
		t.Fatalf("histogram length = %d, want %d", len(got), bucketCount)
	}
	for _, s := range samples {
		if got[s.bucket] != 1 {
			t.Fatalf("bucket %d for %v = %d, want 1", s.bucket, s.d, got[s.bucket])
		}
	}
}

func TestSnapshotOmitsEmptyHistogram(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	if got := m.Snapshot().Histograms; len(got) != 0 {
		t.Fatalf("unobserved histogram present in snapshot: %v", got)
	}

	m.Observe(IDResolveLatency, time.Millisecond)
	if got := m.Snapshot().Histograms[IDResolveLatency]; len(got) != bucketCount {
		t.Fatalf("observed histogram missing: %v", got)
	}
}

func TestObserveIgnoresCounterIDs(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	m.Observe(IDLoginSuccess, time.Millisecond)

	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("counter ID produced histogram samples")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Inc(IDLoginSuccess)
	m.Observe(IDResolveLatency, time.Millisecond)

	s := m.Snapshot()
	m.Inc(IDLoginSuccess)
	m.Observe(IDResolveLatency, time.Millisecond)

	if s.Counters[IDLoginSuccess] != 1 {
		t.Fatalf("snapshot counter mutated: %d", s.Counters[IDLoginSuccess])
	}
	if s.Histograms[IDResolveLatency][0] != 1 {
		t.Fatalf("snapshot histogram mutated: %d", s.Histograms[IDResolveLatency][0])
	}
}
