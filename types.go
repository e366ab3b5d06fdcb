package authcore

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/appshots/authcore/internal/audit"
	internalmetrics "github.com/appshots/authcore/internal/metrics"
)

// Role is the coarse authorization role carried on a principal.
type Role string

const (
	// RoleUser is the default role for self-registered accounts.
	RoleUser Role = "user"
	// RoleAdmin marks operator accounts.
	RoleAdmin Role = "admin"
)

// Tier is the subscription tier that bounds a principal's rate limits.
type Tier string

const (
	// TierFree is the default tier.
	TierFree Tier = "free"
	// TierPro raises the per-key limit ceiling to 600 rpm.
	TierPro Tier = "pro"
	// TierEnterprise raises the per-key limit ceiling to 6000 rpm.
	TierEnterprise Tier = "enterprise"
)

// TokenKind distinguishes the two one-time security token families.
type TokenKind string

const (
	// TokenEmailVerification marks tokens consumed by VerifyEmail.
	TokenEmailVerification TokenKind = "email_verification"
	// TokenPasswordReset marks tokens consumed by ResetPassword.
	TokenPasswordReset TokenKind = "password_reset"
)

// Principal is the immutable identity snapshot resolved for one request.
// It never carries credential material.
type Principal struct {
	ID            string
	Email         string
	Role          Role
	Tier          Tier
	EmailVerified bool
}

// PrincipalRecord is the full account row owned by the credential store.
// Login attempt state (FailedLoginAttempts, LockedUntil) lives here so a
// single Update persists counter and lockout together.
type PrincipalRecord struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          Role
	Tier          Tier
	EmailVerified bool

	MFAEnabled bool
	TOTPSecret string

	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time

	CreatedAt time.Time
}

// Snapshot returns the read-only principal view for request handling.
func (r *PrincipalRecord) Snapshot() Principal {
	return Principal{
		ID:            r.ID,
		Email:         r.Email,
		Role:          r.Role,
		Tier:          r.Tier,
		EmailVerified: r.EmailVerified,
	}
}

// CredentialRecord is a long-lived API key. Only the sha256 hash of the
// secret is ever persisted or compared; Last4 exists for display. Revocation
// is soft: rows are never deleted.
type CredentialRecord struct {
	ID          string
	PrincipalID string
	SecretHash  string
	Name        string
	Last4       string
	Permissions []string
	RateLimit   int // requests per minute
	ExpiresAt   *time.Time
	RevokedAt   *time.Time
	LastUsedAt  *time.Time
	CreatedAt   time.Time
}

// SessionRecord backs one refresh token. At most one active session exists
// per refresh hash; rotation revokes the old row and creates a new one.
type SessionRecord struct {
	ID                string
	PrincipalID       string
	RefreshHash       string
	ExpiresAt         time.Time
	RevokedAt         *time.Time
	IP                string
	UserAgent         string
	DeviceFingerprint string
	CreatedAt         time.Time
}

// SecurityTokenRecord is a single-use verification or reset token. Once
// UsedAt is set the token is permanently inert regardless of expiry.
type SecurityTokenRecord struct {
	ID          string
	PrincipalID string
	TokenHash   string
	Kind        TokenKind
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

// PrincipalStore is the account persistence interface the engine consumes.
// Implementations return ErrRecordNotFound for misses and wrap transport
// failures in ErrStoreUnavailable. Updates are last-writer-wins.
type PrincipalStore interface {
	GetPrincipalByID(ctx context.Context, id string) (*PrincipalRecord, error)
	GetPrincipalByEmail(ctx context.Context, email string) (*PrincipalRecord, error)
	CreatePrincipal(ctx context.Context, record *PrincipalRecord) error
	UpdatePrincipal(ctx context.Context, record *PrincipalRecord) error
}

// CredentialStore persists API keys, looked up by secret hash on the hot path.
type CredentialStore interface {
	GetCredentialByHash(ctx context.Context, hash string) (*CredentialRecord, error)
	GetCredentialByID(ctx context.Context, id string) (*CredentialRecord, error)
	CreateCredential(ctx context.Context, record *CredentialRecord) error
	UpdateCredential(ctx context.Context, record *CredentialRecord) error
}

// SessionStore persists refresh sessions, looked up by refresh hash.
type SessionStore interface {
	GetSessionByHash(ctx context.Context, hash string) (*SessionRecord, error)
	CreateSession(ctx context.Context, record *SessionRecord) error
	UpdateSession(ctx context.Context, record *SessionRecord) error
}

// SecurityTokenStore persists one-time verification and reset tokens.
type SecurityTokenStore interface {
	GetSecurityTokenByHash(ctx context.Context, hash string) (*SecurityTokenRecord, error)
	CreateSecurityToken(ctx context.Context, record *SecurityTokenRecord) error
	UpdateSecurityToken(ctx context.Context, record *SecurityTokenRecord) error
}

// Store aggregates the four record stores. The engine is the only writer of
// security-sensitive fields and never caches mutable state across requests.
type Store interface {
	PrincipalStore
	CredentialStore
	SessionStore
	SecurityTokenStore
}

// LoginResult is returned by a fully successful Login.
type LoginResult struct {
	Principal    Principal
	AccessToken  string
	RefreshToken string
}

// RegisterResult carries the new principal and the raw email verification
// token. The token is returned exactly once; delivery is the caller's job.
// No tokens are minted at registration: the account logs in normally once
// verified.
type RegisterResult struct {
	Principal         Principal
	VerificationToken string
}

// APIKeyIssue carries a freshly minted credential and its raw secret,
// shown exactly once.
type APIKeyIssue struct {
	Credential CredentialRecord
	Secret     string
}

// RateLimitInfo is the header-facing rate limit metadata attached to every
// API-key resolution, admitted or denied.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     int64 // epoch seconds
}

// RetryAfter returns the Retry-After header value in seconds, floored at zero.
func (i RateLimitInfo) RetryAfter(now time.Time) int64 {
	d := i.Reset - now.Unix()
	if d < 0 {
		return 0
	}
	return d
}

// APIKeyAuth is the outcome of resolving an API key: the authenticated
// principal, the credential it rode in on, and rate-limit metadata for
// header propagation.
type APIKeyAuth struct {
	Principal  Principal
	Credential CredentialRecord
	RateLimit  RateLimitInfo
}

// MFASetup holds the base32 secret and otpauth:// provisioning URI returned
// by SetupMFA. Both are secret-bearing and must not be logged.
type MFASetup struct {
	Secret string
	URI    string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives AuditEvent values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an AuditSink that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based AuditSink.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes JSON-encoded audit events to an io.Writer.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Metrics holds the engine's atomic counters and latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// MetricID identifies a counter or histogram in the metrics system.
type MetricID = internalmetrics.MetricID

// NewMetrics creates a Metrics instance; when cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
