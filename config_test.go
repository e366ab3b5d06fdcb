package authcore

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing signing key", func(c *Config) { c.JWT.PrivateKey = nil }, "PrivateKey"},
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }, "AccessTTL"},
		{"zero refresh ttl", func(c *Config) { c.Session.RefreshTTL = 0 }, "RefreshTTL"},
		{"zero max attempts", func(c *Config) { c.Login.MaxAttempts = 0 }, "MaxAttempts"},
		{"zero lock duration", func(c *Config) { c.Login.LockDuration = 0 }, "LockDuration"},
		{"zero tier limit", func(c *Config) { c.RateLimit.ProPerMinute = 0 }, "tier"},
		{"zero backend timeout", func(c *Config) { c.RateLimit.BackendTimeout = 0 }, "BackendTimeout"},
		{"totp digits too small", func(c *Config) { c.TOTP.Digits = 4 }, "Digits"},
		{"totp digits too large", func(c *Config) { c.TOTP.Digits = 10 }, "Digits"},
		{"totp period too short", func(c *Config) { c.TOTP.Period = 5 }, "Period"},
		{"totp skew out of range", func(c *Config) { c.TOTP.Skew = 5 }, "Skew"},
		{"empty key prefix", func(c *Config) { c.APIKey.Prefix = "" }, "Prefix"},
		{"zero verify ttl", func(c *Config) { c.SecurityToken.VerifyTTL = 0 }, "TTL"},
		{"zero reset ttl", func(c *Config) { c.SecurityToken.ResetTTL = 0 }, "TTL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted a broken config")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestTierLimits(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.tierLimit(TierFree); got != 60 {
		t.Errorf("free = %d", got)
	}
	if got := cfg.tierLimit(TierPro); got != 600 {
		t.Errorf("pro = %d", got)
	}
	if got := cfg.tierLimit(TierEnterprise); got != 6000 {
		t.Errorf("enterprise = %d", got)
	}
	// Unknown tiers fall back to the free ceiling.
	if got := cfg.tierLimit(Tier("mystery")); got != 60 {
		t.Errorf("unknown = %d", got)
	}
}

func TestCloneConfigDetachesKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Session.RefreshTTL = 7 * 24 * time.Hour

	out := cloneConfig(cfg)
	out.JWT.PrivateKey[0] = 'x'
	if cfg.JWT.PrivateKey[0] == 'x' {
		t.Fatal("clone shares key storage with the original")
	}
	if out.Session.RefreshTTL != cfg.Session.RefreshTTL {
		t.Error("value fields not copied")
	}
}
