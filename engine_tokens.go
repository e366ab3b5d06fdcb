package authcore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/appshots/authcore/internal"
	"github.com/google/uuid"
)

// RequestEmailVerification issues a fresh verification token for the
// principal. Earlier tokens stay valid until they expire or get used.
func (e *Engine) RequestEmailVerification(ctx context.Context, principalID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	record, err := e.store.GetPrincipalByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return "", ErrPrincipalNotFound
		}
		return "", err
	}

	return e.issueSecurityToken(ctx, record.ID, TokenEmailVerification, e.config.SecurityToken.VerifyTTL)
}

// RequestPasswordReset issues a reset token for the account behind
// email. Unknown addresses return an empty token and no error, so the
// response never discloses whether an account exists.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))
	record, err := e.store.GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			e.emitAudit(ctx, AuditEvent{EventType: "password_reset_request", Error: "unknown account"})
			return "", nil
		}
		return "", err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "password_reset_request",
		PrincipalID: record.ID,
		Success:     true,
	})

	return e.issueSecurityToken(ctx, record.ID, TokenPasswordReset, e.config.SecurityToken.ResetTTL)
}

// VerifyEmail consumes a verification token and marks the account's
// email verified. Verifying an already-verified account is a no-op as
// long as the token itself is fresh.
func (e *Engine) VerifyEmail(ctx context.Context, rawToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	consumed, err := e.consumeSecurityToken(ctx, rawToken, TokenEmailVerification)
	if err != nil {
		return err
	}

	record, err := e.store.GetPrincipalByID(ctx, consumed.PrincipalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrSecurityTokenInvalid
		}
		return err
	}

	record.EmailVerified = true
	if err := e.store.UpdatePrincipal(ctx, record); err != nil {
		return err
	}

	e.metricInc(MetricEmailVerified)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "email_verify",
		PrincipalID: record.ID,
		Success:     true,
	})

	return nil
}

// ResetPassword consumes a reset token and replaces the account's
// password. A successful reset also clears the lockout state, since the
// lock exists to stop guessing against the old password.
func (e *Engine) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if len(newPassword) < e.config.Login.MinPasswordLength {
		return ErrPasswordPolicy
	}

	consumed, err := e.consumeSecurityToken(ctx, rawToken, TokenPasswordReset)
	if err != nil {
		return err
	}

	record, err := e.store.GetPrincipalByID(ctx, consumed.PrincipalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrSecurityTokenInvalid
		}
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	record.PasswordHash = hash
	record.FailedLoginAttempts = 0
	record.LockedUntil = nil
	if err := e.store.UpdatePrincipal(ctx, record); err != nil {
		return err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:   "password_reset",
		PrincipalID: record.ID,
		Success:     true,
	})

	return nil
}

func (e *Engine) issueSecurityToken(ctx context.Context, principalID string, kind TokenKind, ttl time.Duration) (string, error) {
	raw, err := internal.NewOpaqueToken()
	if err != nil {
		return "", err
	}

	now := e.now()
	record := &SecurityTokenRecord{
		ID:          uuid.NewString(),
		PrincipalID: principalID,
		TokenHash:   internal.HashSecret(raw),
		Kind:        kind,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
	if err := e.store.CreateSecurityToken(ctx, record); err != nil {
		return "", err
	}

	e.metricInc(MetricTokenIssued)
	return raw, nil
}

// consumeSecurityToken validates and permanently spends a one-time
// token. UsedAt is persisted before the caller applies any dependent
// state change, so a crash mid-flow leaves the token spent rather than
// replayable. Every rejection collapses into ErrSecurityTokenInvalid.
func (e *Engine) consumeSecurityToken(ctx context.Context, rawToken string, kind TokenKind) (*SecurityTokenRecord, error) {
	record, err := e.store.GetSecurityTokenByHash(ctx, internal.HashSecret(rawToken))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			e.metricInc(MetricTokenRejected)
			return nil, ErrSecurityTokenInvalid
		}
		return nil, err
	}

	now := e.now()
	if record.Kind != kind || record.UsedAt != nil || !record.ExpiresAt.After(now) {
		e.metricInc(MetricTokenRejected)
		e.emitAudit(ctx, AuditEvent{
			EventType:   "token_consume",
			PrincipalID: record.PrincipalID,
			Error:       "invalid token",
			Metadata:    map[string]string{"kind": string(kind)},
		})
		return nil, ErrSecurityTokenInvalid
	}

	record.UsedAt = &now
	if err := e.store.UpdateSecurityToken(ctx, record); err != nil {
		return nil, err
	}

	e.metricInc(MetricTokenConsumed)
	return record, nil
}
