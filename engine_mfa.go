package authcore

import (
	"context"
	"errors"
)

// SetupMFA generates and stores a fresh TOTP secret for the principal
// and returns it with its provisioning URI. MFA stays off until the
// user proves possession via EnableMFA; calling SetupMFA again before
// then simply replaces the pending secret. Once MFA is armed, SetupMFA
// refuses: the armed secret can only be removed through DisableMFA,
// which demands a live code. Neither the secret nor the URI may be
// logged.
func (e *Engine) SetupMFA(ctx context.Context, principalID string) (*MFASetup, error) {
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

	if record.MFAEnabled {
		e.emitAudit(ctx, AuditEvent{
			EventType:   "mfa_setup",
			PrincipalID: record.ID,
			Error:       "already enabled",
		})
		return nil, ErrMFAAlreadyEnabled
	}

	secret, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	record.TOTPSecret = secret
	record.MFAEnabled = false
	if err := e.store.UpdatePrincipal(ctx, record); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:   "mfa_setup",
		PrincipalID: record.ID,
		Success:     true,
	})

	return &MFASetup{
		Secret: secret,
		URI:    e.totp.ProvisionURI(secret, record.Email),
	}, nil
}

// EnableMFA turns MFA on after the user submits a valid code for the
// pending secret, proving their authenticator is actually enrolled.
func (e *Engine) EnableMFA(ctx context.Context, principalID, code string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	record, err := e.store.GetPrincipalByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrPrincipalNotFound
		}
		return err
	}
	if record.TOTPSecret == "" {
		return ErrMFANotInitialized
	}

	ok, err := e.totp.Verify(record.TOTPSecret, code, e.now())
	if err != nil {
		return err
	}
	if !ok {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType:   "mfa_enable",
			PrincipalID: record.ID,
			Error:       "invalid code",
		})
		return ErrMFAInvalid
	}

	record.MFAEnabled = true
	if err := e.store.UpdatePrincipal(ctx, record); err != nil {
		return err
	}

	e.metricInc(MetricMFASuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "mfa_enable",
		PrincipalID: record.ID,
		Success:     true,
	})

	return nil
}

// DisableMFA turns MFA off. A valid current code is required so a
// hijacked session cannot silently strip the second factor.
func (e *Engine) DisableMFA(ctx context.Context, principalID, code string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	record, err := e.store.GetPrincipalByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrPrincipalNotFound
		}
		return err
	}
	if !record.MFAEnabled || record.TOTPSecret == "" {
		return ErrMFANotInitialized
	}

	ok, err := e.totp.Verify(record.TOTPSecret, code, e.now())
	if err != nil {
		return err
	}
	if !ok {
		e.metricInc(MetricMFAFailure)
		return ErrMFAInvalid
	}

	record.MFAEnabled = false
	record.TOTPSecret = ""
	if err := e.store.UpdatePrincipal(ctx, record); err != nil {
		return err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:   "mfa_disable",
		PrincipalID: record.ID,
		Success:     true,
	})

	return nil
}
