package authcore

import (
	internalmetrics "github.com/appshots/authcore/internal/metrics"
)

// Metric identifiers for every counter and histogram the engine
// records. Exporters under metrics/export/ map these to wire names.
const (
	MetricLoginSuccess         = internalmetrics.IDLoginSuccess
	MetricLoginFailure         = internalmetrics.IDLoginFailure
	MetricLoginLocked          = internalmetrics.IDLoginLocked
	MetricMFARequired          = internalmetrics.IDMFARequired
	MetricMFASuccess           = internalmetrics.IDMFASuccess
	MetricMFAFailure           = internalmetrics.IDMFAFailure
	MetricRegisterSuccess      = internalmetrics.IDRegisterSuccess
	MetricRegisterDuplicate    = internalmetrics.IDRegisterDuplicate
	MetricRefreshSuccess       = internalmetrics.IDRefreshSuccess
	MetricRefreshFailure       = internalmetrics.IDRefreshFailure
	MetricSessionCreated       = internalmetrics.IDSessionCreated
	MetricSessionRevoked       = internalmetrics.IDSessionRevoked
	MetricAPIKeyIssued         = internalmetrics.IDAPIKeyIssued
	MetricAPIKeyResolved       = internalmetrics.IDAPIKeyResolved
	MetricAPIKeyRejected       = internalmetrics.IDAPIKeyRejected
	MetricRateLimitHit         = internalmetrics.IDRateLimitHit
	MetricRateLimitFallback    = internalmetrics.IDRateLimitFallback
	MetricTokenIssued          = internalmetrics.IDTokenIssued
	MetricTokenConsumed        = internalmetrics.IDTokenConsumed
	MetricTokenRejected        = internalmetrics.IDTokenRejected
	MetricPasswordResetRequest = internalmetrics.IDPasswordResetRequest
	MetricEmailVerified        = internalmetrics.IDEmailVerified
	MetricResolveLatency       = internalmetrics.IDResolveLatency

	// MetricIDCount is one past the highest defined MetricID.
	MetricIDCount = internalmetrics.MetricIDCount
)
