// Package internaldefs maps engine metric IDs to stable wire names
// shared by the Prometheus and OpenTelemetry exporters.
package internaldefs

import (
	authcore "github.com/appshots/authcore"
)

// CounterDef binds one counter ID to its exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds one histogram ID to its exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginLocked, Name: "authcore_login_locked_total", Help: "Logins rejected or locked by the lockout guard."},
	{ID: authcore.MetricMFARequired, Name: "authcore_mfa_required_total", Help: "Logins that required an MFA code."},
	{ID: authcore.MetricMFASuccess, Name: "authcore_mfa_success_total", Help: "Successful MFA verifications."},
	{ID: authcore.MetricMFAFailure, Name: "authcore_mfa_failure_total", Help: "Failed MFA verifications."},
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Created accounts."},
	{ID: authcore.MetricRegisterDuplicate, Name: "authcore_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Created sessions."},
	{ID: authcore.MetricSessionRevoked, Name: "authcore_session_revoked_total", Help: "Revoked sessions."},
	{ID: authcore.MetricAPIKeyIssued, Name: "authcore_apikey_issued_total", Help: "Issued API keys, including rotations."},
	{ID: authcore.MetricAPIKeyResolved, Name: "authcore_apikey_resolved_total", Help: "API key resolutions admitted."},
	{ID: authcore.MetricAPIKeyRejected, Name: "authcore_apikey_rejected_total", Help: "API key resolutions rejected before rate limiting."},
	{ID: authcore.MetricRateLimitHit, Name: "authcore_rate_limit_hit_total", Help: "Requests denied by the token bucket."},
	{ID: authcore.MetricRateLimitFallback, Name: "authcore_rate_limit_fallback_total", Help: "Rate limit decisions served by the local fallback."},
	{ID: authcore.MetricTokenIssued, Name: "authcore_security_token_issued_total", Help: "Issued one-time security tokens."},
	{ID: authcore.MetricTokenConsumed, Name: "authcore_security_token_consumed_total", Help: "Consumed one-time security tokens."},
	{ID: authcore.MetricTokenRejected, Name: "authcore_security_token_rejected_total", Help: "Rejected one-time security tokens."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset requests for known accounts."},
	{ID: authcore.MetricEmailVerified, Name: "authcore_email_verified_total", Help: "Completed email verifications."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricResolveLatency, Name: "authcore_resolve_latency_seconds", Help: "API key resolution latency."},
}

// HistogramBounds are the upper bounds of the engine's fixed buckets,
// as Prometheus le label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the same bounds as metric-name-safe suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies a snapshot slice into the fixed bucket array,
// tolerating missing histograms.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// both export formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
