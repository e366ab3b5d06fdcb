package authcore

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Instances are treated as
// immutable after Build.
type Config struct {
	JWT           JWTConfig
	Session       SessionConfig
	Login         LoginConfig
	RateLimit     RateLimitConfig
	TOTP          TOTPConfig
	Password      PasswordConfig
	APIKey        APIKeyConfig
	SecurityToken SecurityTokenConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

// JWTConfig controls access-token minting and verification.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

// SessionConfig controls refresh-session lifetime.
type SessionConfig struct {
	RefreshTTL time.Duration
}

// LoginConfig controls lockout and verification policy for the login guard.
type LoginConfig struct {
	MaxAttempts              int
	LockDuration             time.Duration
	RequireEmailVerification bool
	MinPasswordLength        int
}

// RateLimitConfig holds the tier ceiling table and distributed-backend
// tuning. DefaultPerMinute doubles as the free-tier ceiling.
type RateLimitConfig struct {
	DefaultPerMinute    int
	ProPerMinute        int
	EnterprisePerMinute int
	BackendTimeout      time.Duration
	RedisPrefix         string
}

// TOTPConfig controls the MFA engine.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string
	Skew      int
}

// PasswordConfig holds PHC-encoded argon2id parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// APIKeyConfig controls credential issuance.
type APIKeyConfig struct {
	Prefix      string
	DefaultTTL  time.Duration // zero means keys do not expire
	RenewBy     time.Duration
	TouchBuffer int
}

// SecurityTokenConfig sets one-time token lifetimes.
type SecurityTokenConfig struct {
	VerifyTTL time.Duration // email verification
	ResetTTL  time.Duration // password reset
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults. Callers typically
// take this, set JWT.PrivateKey, and hand it to Builder.WithConfig.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "hs256",
			Issuer:        "authcore",
		},
		Session: SessionConfig{
			RefreshTTL: 30 * 24 * time.Hour,
		},
		Login: LoginConfig{
			MaxAttempts:              8,
			LockDuration:             15 * time.Minute,
			RequireEmailVerification: true,
			MinPasswordLength:        10,
		},
		RateLimit: RateLimitConfig{
			DefaultPerMinute:    60,
			ProPerMinute:        600,
			EnterprisePerMinute: 6000,
			BackendTimeout:      time.Second,
			RedisPrefix:         "bucket",
		},
		TOTP: TOTPConfig{
			Issuer:    "authcore",
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
			Skew:      1,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		APIKey: APIKeyConfig{
			Prefix:      "ak_live",
			RenewBy:     30 * 24 * time.Hour,
			TouchBuffer: 256,
		},
		SecurityToken: SecurityTokenConfig{
			VerifyTTL: 24 * time.Hour,
			ResetTTL:  30 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT.AccessTTL must be positive")
	}
	if len(c.JWT.PrivateKey) == 0 {
		return errors.New("JWT.PrivateKey required")
	}
	if c.Session.RefreshTTL <= 0 {
		return errors.New("Session.RefreshTTL must be positive")
	}
	if c.Login.MaxAttempts < 1 {
		return errors.New("Login.MaxAttempts must be >= 1")
	}
	if c.Login.LockDuration <= 0 {
		return errors.New("Login.LockDuration must be positive")
	}
	if c.RateLimit.DefaultPerMinute < 1 ||
		c.RateLimit.ProPerMinute < 1 ||
		c.RateLimit.EnterprisePerMinute < 1 {
		return errors.New("RateLimit tier values must be >= 1")
	}
	if c.RateLimit.BackendTimeout <= 0 {
		return errors.New("RateLimit.BackendTimeout must be positive")
	}
	if c.TOTP.Digits < 6 || c.TOTP.Digits > 8 {
		return errors.New("TOTP.Digits must be 6..8")
	}
	if c.TOTP.Period < 15 {
		return errors.New("TOTP.Period must be >= 15 seconds")
	}
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 2 {
		return errors.New("TOTP.Skew must be 0..2")
	}
	if c.APIKey.Prefix == "" {
		return errors.New("APIKey.Prefix required")
	}
	if c.SecurityToken.VerifyTTL <= 0 || c.SecurityToken.ResetTTL <= 0 {
		return errors.New("SecurityToken TTLs must be positive")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// tierLimit returns the per-minute ceiling for a subscription tier.
func (c *Config) tierLimit(tier Tier) int {
	switch tier {
	case TierEnterprise:
		return c.RateLimit.EnterprisePerMinute
	case TierPro:
		return c.RateLimit.ProPerMinute
	default:
		return c.RateLimit.DefaultPerMinute
	}
}
