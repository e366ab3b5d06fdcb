package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Register creates a principal with role "user" on the free tier and
// issues its email verification token. The raw token is returned once;
// delivering it to the user is the caller's responsibility.
func (e *Engine) Register(ctx context.Context, email, plaintext string) (*RegisterResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidCredentials
	}
	if len(plaintext) < e.config.Login.MinPasswordLength {
		return nil, ErrPasswordPolicy
	}

	_, err := e.store.GetPrincipalByEmail(ctx, email)
	if err == nil {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, AuditEvent{EventType: "register", Error: "email exists"})
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	record := &PrincipalRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		Tier:         TierFree,
		CreatedAt:    e.now(),
	}
	if err := e.store.CreatePrincipal(ctx, record); err != nil {
		return nil, err
	}

	verification, err := e.issueSecurityToken(ctx, record.ID, TokenEmailVerification, e.config.SecurityToken.VerifyTTL)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "register",
		PrincipalID: record.ID,
		Success:     true,
	})

	return &RegisterResult{
		Principal:         record.Snapshot(),
		VerificationToken: verification,
	}, nil
}
