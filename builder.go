package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/appshots/authcore/internal/audit"
	"github.com/appshots/authcore/password"
	"github.com/appshots/authcore/ratelimit"
	"github.com/appshots/authcore/token"
)

// Builder assembles an Engine. Storage is required; Redis is optional
// and only powers the distributed rate limiter, so an engine without it
// still works with process-local limiting.
type Builder struct {
	config    Config
	store     Store
	redis     redis.UniversalClient
	limiter   ratelimit.Limiter
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with production defaults.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the record store backing principals, credentials,
// sessions, and security tokens.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithRedis sets the Redis client used for the shared rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLimiter overrides the rate limiter entirely; WithRedis is then
// ignored.
func (b *Builder) WithLimiter(l ratelimit.Limiter) *Builder {
	b.limiter = l
	return b
}

// WithAuditSink enables auditing and routes events to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histogram recording.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every component, and starts
// the engine's background workers. A builder can build only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("store required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Params{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: token.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		store:   b.store,
		tokens:  tokens,
		hasher:  hasher,
		totp:    newTOTPVerifier(cfg.TOTP),
		metrics: NewMetrics(cfg.Metrics),
		now:     time.Now,
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	engine.limiter = b.limiter
	if engine.limiter == nil {
		local := ratelimit.NewLocalLimiter()
		if b.redis != nil {
			shared := ratelimit.NewRedisLimiter(b.redis, cfg.RateLimit.RedisPrefix)
			fb := ratelimit.NewFallback(shared, local, cfg.RateLimit.BackendTimeout)
			fb.OnFallback = func(error) { engine.metricInc(MetricRateLimitFallback) }
			engine.limiter = fb
		} else {
			engine.limiter = local
		}
	}

	engine.startTouchWorker(cfg.APIKey.TouchBuffer)

	b.built = true
	return engine, nil
}
