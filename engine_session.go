package authcore

import (
	"context"
	"errors"

	"github.com/appshots/authcore/internal"
	"github.com/google/uuid"
)

// Refresh rotates a refresh token: the presented session is revoked and
// a new one minted in its place, inheriting the old session's client
// metadata. A token can therefore be exchanged at most once; replaying
// it afterwards fails, which surfaces stolen-token reuse.
//
// Device binding is strict only when both sides carry a fingerprint:
// a session created with one rejects refresh under a different caller
// fingerprint, while absence on either side skips the check.
//
// Single-use is enforced through the store's read-then-update, which is
// last-writer-wins: two concurrent refreshes of the same token can both
// succeed and mint separate sessions. Callers that need exactly-once
// rotation must serialize refreshes per session, or back the engine
// with a Store whose UpdateSession compares revocation state.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	session, err := e.store.GetSessionByHash(ctx, internal.HashSecret(refreshToken))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, e.failRefresh(ctx, "", "unknown token")
		}
		return nil, err
	}

	now := e.now()
	switch {
	case session.RevokedAt != nil:
		return nil, e.failRefresh(ctx, session.PrincipalID, "token already used")
	case !session.ExpiresAt.After(now):
		return nil, e.failRefresh(ctx, session.PrincipalID, "token expired")
	}

	if caller := fingerprintFromContext(ctx); caller != "" && session.DeviceFingerprint != "" &&
		caller != session.DeviceFingerprint {
		return nil, e.failRefresh(ctx, session.PrincipalID, "fingerprint mismatch")
	}

	record, err := e.store.GetPrincipalByID(ctx, session.PrincipalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, e.failRefresh(ctx, session.PrincipalID, "principal gone")
		}
		return nil, err
	}

	// Revoke before minting the replacement: a crash between the two
	// steps costs the user a re-login, never a live duplicate token.
	session.RevokedAt = &now
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	e.metricInc(MetricSessionRevoked)

	refresh, next, err := e.newSession(ctx, session.PrincipalID,
		session.IP, session.UserAgent, session.DeviceFingerprint)
	if err != nil {
		return nil, err
	}

	principal := record.Snapshot()
	access, err := e.mintAccess(principal, next.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "refresh",
		PrincipalID: record.ID,
		SessionID:   next.ID,
		Success:     true,
	})

	return &LoginResult{
		Principal:    principal,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Logout revokes the session behind a refresh token. Unknown and
// already-revoked tokens succeed silently so clients can always log out.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	session, err := e.store.GetSessionByHash(ctx, internal.HashSecret(refreshToken))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if session.RevokedAt != nil {
		return nil
	}

	now := e.now()
	session.RevokedAt = &now
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return err
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "logout",
		PrincipalID: session.PrincipalID,
		SessionID:   session.ID,
		Success:     true,
	})

	return nil
}

// createSession starts a session using client metadata from ctx.
func (e *Engine) createSession(ctx context.Context, principalID string) (string, *SessionRecord, error) {
	return e.newSession(ctx, principalID,
		clientIPFromContext(ctx), userAgentFromContext(ctx), fingerprintFromContext(ctx))
}

func (e *Engine) newSession(ctx context.Context, principalID, ip, userAgent, fingerprint string) (string, *SessionRecord, error) {
	raw, err := internal.NewOpaqueToken()
	if err != nil {
		return "", nil, err
	}

	now := e.now()
	session := &SessionRecord{
		ID:                uuid.NewString(),
		PrincipalID:       principalID,
		RefreshHash:       internal.HashSecret(raw),
		ExpiresAt:         now.Add(e.config.Session.RefreshTTL),
		IP:                ip,
		UserAgent:         userAgent,
		DeviceFingerprint: fingerprint,
		CreatedAt:         now,
	}
	if err := e.store.CreateSession(ctx, session); err != nil {
		return "", nil, err
	}

	e.metricInc(MetricSessionCreated)
	return raw, session, nil
}

func (e *Engine) failRefresh(ctx context.Context, principalID, reason string) error {
	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "refresh",
		PrincipalID: principalID,
		Error:       reason,
	})
	return ErrRefreshInvalid
}
