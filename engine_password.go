package authcore

import (
	"context"
	"errors"
)

// ChangePassword replaces an authenticated account's password after
// verifying the current one. Unlike ResetPassword it does not touch
// lockout state, and existing refresh sessions remain live until they
// expire or are rotated.
func (e *Engine) ChangePassword(ctx context.Context, principalID, current, next string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if len(next) < e.config.Login.MinPasswordLength {
		return ErrPasswordPolicy
	}

	record, err := e.store.GetPrincipalByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrPrincipalNotFound
		}
		return err
	}

	ok, err := e.hasher.Verify(current, record.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		e.emitAudit(ctx, AuditEvent{
			EventType:   "password_change",
			PrincipalID: record.ID,
			Error:       "current password mismatch",
		})
		return ErrInvalidCredentials
	}

	hash, err := e.hasher.Hash(next)
	if err != nil {
		return err
	}
	record.PasswordHash = hash
	if err := e.store.UpdatePrincipal(ctx, record); err != nil {
		return err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:   "password_change",
		PrincipalID: record.ID,
		Success:     true,
	})
	return nil
}
