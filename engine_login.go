package authcore

import (
	"context"
	"errors"
	"strings"
)

// Login authenticates an email/password pair and returns fresh access
// and refresh tokens. mfaCode is the TOTP code for MFA-enabled
// accounts; pass "" when the caller has not collected one yet, which
// yields ErrMFARequired for such accounts.
//
// Failure ordering is fixed: unknown account, lockout, password, email
// verification, MFA. A lockout therefore answers before the password
// is even checked, and both unknown-account and wrong-password collapse
// into ErrInvalidCredentials so responses do not reveal which it was.
func (e *Engine) Login(ctx context.Context, email, plaintext, mfaCode string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))

	record, err := e.store.GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, AuditEvent{EventType: "login", Error: "unknown account"})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := e.now()
	if record.LockedUntil != nil && record.LockedUntil.After(now) {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, AuditEvent{
			EventType:   "login",
			PrincipalID: record.ID,
			Error:       "account locked",
		})
		return nil, ErrAccountLocked
	}

	ok, err := e.hasher.Verify(plaintext, record.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.recordFailedLogin(ctx, record)
	}

	if e.config.Login.RequireEmailVerification && !record.EmailVerified {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType:   "login",
			PrincipalID: record.ID,
			Error:       "email not verified",
		})
		return nil, ErrEmailNotVerified
	}

	if record.MFAEnabled {
		if mfaCode == "" {
			e.metricInc(MetricMFARequired)
			return nil, ErrMFARequired
		}
		ok, err := e.totp.Verify(record.TOTPSecret, mfaCode, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			e.metricInc(MetricMFAFailure)
			e.emitAudit(ctx, AuditEvent{
				EventType:   "login",
				PrincipalID: record.ID,
				Error:       "invalid mfa code",
			})
			return nil, ErrMFAInvalid
		}
		e.metricInc(MetricMFASuccess)
	}

	record.FailedLoginAttempts = 0
	record.LockedUntil = nil
	record.LastLoginAt = &now
	if err := e.store.UpdatePrincipal(ctx, record); err != nil {
		return nil, err
	}

	refresh, session, err := e.createSession(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	principal := record.Snapshot()
	access, err := e.mintAccess(principal, session.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "login",
		PrincipalID: record.ID,
		SessionID:   session.ID,
		Success:     true,
	})

	return &LoginResult{
		Principal:    principal,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// recordFailedLogin bumps the attempt counter and applies the lockout
// in a single principal update so counter and lock cannot diverge.
func (e *Engine) recordFailedLogin(ctx context.Context, record *PrincipalRecord) error {
	record.FailedLoginAttempts++
	locked := record.FailedLoginAttempts >= e.config.Login.MaxAttempts
	if locked {
		until := e.now().Add(e.config.Login.LockDuration)
		record.LockedUntil = &until
	}

	if err := e.store.UpdatePrincipal(ctx, record); err != nil {
		return err
	}

	e.metricInc(MetricLoginFailure)
	event := AuditEvent{
		EventType:   "login",
		PrincipalID: record.ID,
		Error:       "invalid password",
	}
	if locked {
		e.metricInc(MetricLoginLocked)
		event.Metadata = map[string]string{"locked": "true"}
	}
	e.emitAudit(ctx, event)

	return ErrInvalidCredentials
}
