package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVerifyEmailFlow(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := engine.Register(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.VerificationToken == "" {
		t.Fatal("no verification token issued")
	}

	// Login is refused until the address is confirmed.
	if _, err := engine.Login(ctx, testEmail, testPassword, ""); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("pre-verification login err = %v", err)
	}

	if err := engine.VerifyEmail(ctx, res.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	record, err := store.GetPrincipalByID(ctx, res.Principal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !record.EmailVerified {
		t.Fatal("EmailVerified not set")
	}
	if _, err := engine.Login(ctx, testEmail, testPassword, ""); err != nil {
		t.Fatalf("post-verification login: %v", err)
	}
}

func TestVerifyEmailTokenSingleUse(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := engine.Register(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.VerifyEmail(ctx, res.VerificationToken); err != nil {
		t.Fatal(err)
	}
	if err := engine.VerifyEmail(ctx, res.VerificationToken); !errors.Is(err, ErrSecurityTokenInvalid) {
		t.Fatalf("replay err = %v, want ErrSecurityTokenInvalid", err)
	}
}

func TestVerifyEmailTokenExpiry(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	res, err := engine.Register(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(engine.config.SecurityToken.VerifyTTL + time.Minute)
	if err := engine.VerifyEmail(ctx, res.VerificationToken); !errors.Is(err, ErrSecurityTokenInvalid) {
		t.Fatalf("expired token err = %v", err)
	}
}

func TestRequestEmailVerificationReissues(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := engine.Register(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatal(err)
	}

	fresh, err := engine.RequestEmailVerification(ctx, res.Principal.ID)
	if err != nil {
		t.Fatalf("RequestEmailVerification: %v", err)
	}
	if fresh == res.VerificationToken {
		t.Fatal("reissue returned the original token")
	}
	if err := engine.VerifyEmail(ctx, fresh); err != nil {
		t.Fatalf("VerifyEmail with reissued token: %v", err)
	}
}

func TestResetPasswordFlow(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	registerVerified(t, engine)
	ctx := context.Background()

	token, err := engine.RequestPasswordReset(ctx, testEmail)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token == "" {
		t.Fatal("no reset token for known account")
	}

	const newPassword = "staple gun overdrive"
	if err := engine.ResetPassword(ctx, token, newPassword); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	// Old password is dead, new one works.
	if _, err := engine.Login(ctx, testEmail, testPassword, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password err = %v", err)
	}
	if _, err := engine.Login(ctx, testEmail, newPassword, ""); err != nil {
		t.Fatalf("new password login: %v", err)
	}
}

func TestResetPasswordClearsLockout(t *testing.T) {
	engine, store, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Login.MaxAttempts = 2
	})
	principal := registerVerified(t, engine)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		engine.Login(ctx, testEmail, "wrong", "")
	}
	record, _ := store.GetPrincipalByID(ctx, principal.ID)
	if record.LockedUntil == nil {
		t.Fatal("account not locked after repeated failures")
	}

	token, err := engine.RequestPasswordReset(ctx, testEmail)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.ResetPassword(ctx, token, "fresh start please"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	record, _ = store.GetPrincipalByID(ctx, principal.ID)
	if record.LockedUntil != nil || record.FailedLoginAttempts != 0 {
		t.Errorf("lockout state survived reset: attempts=%d locked=%v",
			record.FailedLoginAttempts, record.LockedUntil)
	}
	if _, err := engine.Login(ctx, testEmail, "fresh start please", ""); err != nil {
		t.Fatalf("login after reset: %v", err)
	}
}

func TestResetPasswordPolicyCheckedBeforeConsuming(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	registerVerified(t, engine)
	ctx := context.Background()

	token, err := engine.RequestPasswordReset(ctx, testEmail)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.ResetPassword(ctx, token, "short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("weak password err = %v", err)
	}
	// The rejected attempt did not burn the token.
	if err := engine.ResetPassword(ctx, token, "long enough now truly"); err != nil {
		t.Fatalf("ResetPassword after policy rejection: %v", err)
	}
}

func TestRequestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	token, err := engine.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("err = %v, want nil for unknown address", err)
	}
	if token != "" {
		t.Fatal("token minted for unknown address")
	}
}

func TestSecurityTokenKindIsolation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := engine.Register(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatal(err)
	}

	// A verification token cannot reset a password, and vice versa.
	if err := engine.ResetPassword(ctx, res.VerificationToken, "completely new password"); !errors.Is(err, ErrSecurityTokenInvalid) {
		t.Fatalf("cross-kind reset err = %v", err)
	}
	if err := engine.VerifyEmail(ctx, res.VerificationToken); err != nil {
		t.Fatalf("token burned by cross-kind attempt: %v", err)
	}

	reset, err := engine.RequestPasswordReset(ctx, testEmail)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.VerifyEmail(ctx, reset); !errors.Is(err, ErrSecurityTokenInvalid) {
		t.Fatalf("cross-kind verify err = %v", err)
	}
}
