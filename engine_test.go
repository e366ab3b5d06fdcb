package authcore

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move engine time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	// Low argon2 cost keeps the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, mutate ...func(*Config)) (*Engine, *testStore, *fakeClock) {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	store := newTestStore()
	engine, err := New().WithConfig(cfg).WithStore(store).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	clock := newFakeClock()
	engine.now = clock.Now

	return engine, store, clock
}

const (
	testEmail    = "dev@example.com"
	testPassword = "correct horse battery"
)

// registerVerified creates an account and completes email verification.
func registerVerified(t *testing.T, engine *Engine) Principal {
	t.Helper()

	res, err := engine.Register(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := engine.VerifyEmail(context.Background(), res.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	return res.Principal
}

func TestBuilderRequiresStore(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("Build without store succeeded")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.PrivateKey = nil

	if _, err := New().WithConfig(cfg).WithStore(newTestStore()).Build(); err == nil {
		t.Fatal("Build without signing key succeeded")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithStore(newTestStore())
	engine, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("second Build on same builder succeeded")
	}
}

func TestEngineCloseIsIdempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	engine.Close()
	engine.Close()
}
