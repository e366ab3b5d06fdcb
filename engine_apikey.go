package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/appshots/authcore/internal"
	"github.com/google/uuid"
)

// IssueAPIKey mints a credential for the principal. rateLimit is the
// requested per-minute ceiling; zero or anything above the tier ceiling
// falls back to the tier's value. The raw secret is returned exactly
// once and never persisted.
func (e *Engine) IssueAPIKey(ctx context.Context, principalID, name string, permissions []string, rateLimit int) (*APIKeyIssue, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.store.GetPrincipalByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	ceiling := e.config.tierLimit(record.Tier)
	if rateLimit <= 0 || rateLimit > ceiling {
		rateLimit = ceiling
	}

	secret, err := internal.NewAPIKeySecret(e.config.APIKey.Prefix)
	if err != nil {
		return nil, err
	}

	now := e.now()
	credential := &CredentialRecord{
		ID:          uuid.NewString(),
		PrincipalID: record.ID,
		SecretHash:  internal.HashSecret(secret),
		Name:        name,
		Last4:       internal.Last4(secret),
		Permissions: append([]string(nil), permissions...),
		RateLimit:   rateLimit,
		CreatedAt:   now,
	}
	if ttl := e.config.APIKey.DefaultTTL; ttl > 0 {
		expires := now.Add(ttl)
		credential.ExpiresAt = &expires
	}

	if err := e.store.CreateCredential(ctx, credential); err != nil {
		return nil, err
	}

	e.metricInc(MetricAPIKeyIssued)
	e.emitAudit(ctx, AuditEvent{
		EventType:    "apikey_issue",
		PrincipalID:  record.ID,
		CredentialID: credential.ID,
		Success:      true,
	})

	return &APIKeyIssue{Credential: *credential, Secret: secret}, nil
}

// RevokeAPIKey soft-deletes a credential. Revocation is permanent and
// idempotent; the row stays behind for audit.
func (e *Engine) RevokeAPIKey(ctx context.Context, credentialID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	credential, err := e.store.GetCredentialByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrAPIKeyNotFound
		}
		return err
	}
	if credential.RevokedAt != nil {
		return nil
	}

	now := e.now()
	credential.RevokedAt = &now
	if err := e.store.UpdateCredential(ctx, credential); err != nil {
		return err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:    "apikey_revoke",
		PrincipalID:  credential.PrincipalID,
		CredentialID: credential.ID,
		Success:      true,
	})

	return nil
}

// RotateAPIKey revokes a credential and reissues it under a fresh
// secret, preserving name, permissions, rate limit, and expiry. The old
// secret stops working the moment rotation succeeds.
func (e *Engine) RotateAPIKey(ctx context.Context, credentialID string) (*APIKeyIssue, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	old, err := e.store.GetCredentialByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	if old.RevokedAt != nil {
		return nil, ErrAPIKeyRevoked
	}

	now := e.now()
	old.RevokedAt = &now
	if err := e.store.UpdateCredential(ctx, old); err != nil {
		return nil, err
	}

	secret, err := internal.NewAPIKeySecret(e.config.APIKey.Prefix)
	if err != nil {
		return nil, err
	}

	next := &CredentialRecord{
		ID:          uuid.NewString(),
		PrincipalID: old.PrincipalID,
		SecretHash:  internal.HashSecret(secret),
		Name:        old.Name,
		Last4:       internal.Last4(secret),
		Permissions: append([]string(nil), old.Permissions...),
		RateLimit:   old.RateLimit,
		ExpiresAt:   old.ExpiresAt,
		CreatedAt:   now,
	}
	if err := e.store.CreateCredential(ctx, next); err != nil {
		return nil, err
	}

	e.metricInc(MetricAPIKeyIssued)
	e.emitAudit(ctx, AuditEvent{
		EventType:    "apikey_rotate",
		PrincipalID:  old.PrincipalID,
		CredentialID: next.ID,
		Success:      true,
		Metadata:     map[string]string{"replaces": old.ID},
	})

	return &APIKeyIssue{Credential: *next, Secret: secret}, nil
}

// RenewAPIKey pushes a credential's expiry out by the configured renewal
// window, measured from now.
func (e *Engine) RenewAPIKey(ctx context.Context, credentialID string) (*CredentialRecord, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	credential, err := e.store.GetCredentialByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	if credential.RevokedAt != nil {
		return nil, ErrAPIKeyRevoked
	}

	expires := e.now().Add(e.config.APIKey.RenewBy)
	credential.ExpiresAt = &expires
	if err := e.store.UpdateCredential(ctx, credential); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:    "apikey_renew",
		PrincipalID:  credential.PrincipalID,
		CredentialID: credential.ID,
		Success:      true,
	})

	out := *credential
	return &out, nil
}

// ResolveAPIKey authenticates a raw API key and charges one request
// against its bucket. Credential validity is decided before the bucket
// is consulted, so a revoked or expired key is rejected identically
// whether or not its limit is exhausted. On ErrRateLimited the returned
// APIKeyAuth is still populated so callers can set response headers.
func (e *Engine) ResolveAPIKey(ctx context.Context, rawKey string) (*APIKeyAuth, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	start := e.now()

	credential, err := e.store.GetCredentialByHash(ctx, internal.HashSecret(rawKey))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			e.metricInc(MetricAPIKeyRejected)
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}

	if credential.RevokedAt != nil {
		e.metricInc(MetricAPIKeyRejected)
		e.emitAudit(ctx, AuditEvent{
			EventType:    "apikey_resolve",
			PrincipalID:  credential.PrincipalID,
			CredentialID: credential.ID,
			Error:        "revoked",
		})
		return nil, ErrAPIKeyRevoked
	}
	if credential.ExpiresAt != nil && !credential.ExpiresAt.After(start) {
		e.metricInc(MetricAPIKeyRejected)
		e.emitAudit(ctx, AuditEvent{
			EventType:    "apikey_resolve",
			PrincipalID:  credential.PrincipalID,
			CredentialID: credential.ID,
			Error:        "expired",
		})
		return nil, ErrAPIKeyExpired
	}

	record, err := e.store.GetPrincipalByID(ctx, credential.PrincipalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			e.metricInc(MetricAPIKeyRejected)
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	limit := e.effectiveLimit(credential, record.Tier)
	decision, err := e.limiter.Allow(ctx, credential.ID, limit)
	if err != nil {
		// Availability-biased: with no limiter answer the request is
		// admitted rather than failed.
		e.metricInc(MetricRateLimitFallback)
		decision.Allowed = true
		decision.Remaining = limit - 1
		decision.Reset = start.Unix() + 60
	}

	auth := &APIKeyAuth{
		Principal:  record.Snapshot(),
		Credential: *credential,
		RateLimit: RateLimitInfo{
			Limit:     limit,
			Remaining: decision.Remaining,
			Reset:     decision.Reset,
		},
	}

	if !decision.Allowed {
		e.metricInc(MetricRateLimitHit)
		e.emitAudit(ctx, AuditEvent{
			EventType:    "apikey_resolve",
			PrincipalID:  record.ID,
			CredentialID: credential.ID,
			Error:        "rate limited",
		})
		return auth, ErrRateLimited
	}

	e.metricInc(MetricAPIKeyResolved)
	e.metricObserve(MetricResolveLatency, e.now().Sub(start))
	e.touchCredential(credential.ID, start)

	return auth, nil
}

// effectiveLimit is the per-minute ceiling actually enforced: the
// credential's own limit capped by its owner's tier, so a downgrade
// takes effect without touching issued keys.
func (e *Engine) effectiveLimit(credential *CredentialRecord, tier Tier) int {
	limit := e.config.tierLimit(tier)
	if credential.RateLimit > 0 && credential.RateLimit < limit {
		limit = credential.RateLimit
	}
	return limit
}

type touchRequest struct {
	credentialID string
	at           time.Time
}

// touchCredential enqueues a last-used update. Delivery is best-effort:
// a full buffer drops the touch rather than stalling key resolution.
func (e *Engine) touchCredential(credentialID string, at time.Time) {
	if e.touch == nil {
		return
	}
	select {
	case e.touch <- touchRequest{credentialID: credentialID, at: at}:
	default:
	}
}

func (e *Engine) startTouchWorker(buffer int) {
	if buffer <= 0 {
		buffer = 1
	}
	e.touch = make(chan touchRequest, buffer)
	e.touchDone = make(chan struct{})

	e.touchWG.Add(1)
	go func() {
		defer e.touchWG.Done()
		for {
			select {
			case req := <-e.touch:
				e.applyTouch(req)
			case <-e.touchDone:
				for {
					select {
					case req := <-e.touch:
						e.applyTouch(req)
					default:
						return
					}
				}
			}
		}
	}()
}

func (e *Engine) applyTouch(req touchRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	credential, err := e.store.GetCredentialByID(ctx, req.credentialID)
	if err != nil {
		return
	}
	if credential.LastUsedAt != nil && credential.LastUsedAt.After(req.at) {
		return
	}
	at := req.at
	credential.LastUsedAt = &at
	_ = e.store.UpdateCredential(ctx, credential)
}
