package authcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/appshots/authcore/internal"
)

func loginSession(t *testing.T, engine *Engine, ctx context.Context) *LoginResult {
	t.Helper()

	res, err := engine.Login(ctx, testEmail, testPassword, "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res
}

func TestRefreshRotation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	registerVerified(t, engine)
	ctx := context.Background()

	first := loginSession(t, engine, ctx)

	second, err := engine.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation returned the same refresh token")
	}

	// The spent token is dead; the replacement still works.
	if _, err := engine.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("replayed token err = %v, want ErrRefreshInvalid", err)
	}
	third, err := engine.Refresh(ctx, second.RefreshToken)
	if err != nil {
		t.Fatalf("refresh of rotated token: %v", err)
	}
	if third.AccessToken == "" {
		t.Fatal("no access token from second rotation")
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if _, err := engine.Refresh(context.Background(), "fabricated"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("err = %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	registerVerified(t, engine)
	ctx := context.Background()

	res := loginSession(t, engine, ctx)
	clock.Advance(engine.config.Session.RefreshTTL + time.Hour)

	if _, err := engine.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expired refresh err = %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshInheritsClientMetadata(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	registerVerified(t, engine)

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	ctx = WithUserAgent(ctx, "shot-agent/2.1")
	ctx = WithDeviceFingerprint(ctx, "fp-alpha")

	res := loginSession(t, engine, ctx)

	// Refresh from a bare context: the new session keeps the metadata
	// captured at login.
	next, err := engine.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}

	session, err := store.GetSessionByHash(context.Background(), internal.HashSecret(next.RefreshToken))
	if err != nil {
		t.Fatal(err)
	}
	if session.IP != "203.0.113.9" || session.UserAgent != "shot-agent/2.1" || session.DeviceFingerprint != "fp-alpha" {
		t.Errorf("metadata not inherited: %+v", session)
	}
}

func TestRefreshFingerprintBinding(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	registerVerified(t, engine)

	boundCtx := WithDeviceFingerprint(context.Background(), "fp-alpha")
	res := loginSession(t, engine, boundCtx)

	// Different fingerprint: strict rejection.
	otherCtx := WithDeviceFingerprint(context.Background(), "fp-beta")
	if _, err := engine.Refresh(otherCtx, res.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("mismatched fingerprint err = %v, want ErrRefreshInvalid", err)
	}

	// No caller fingerprint: the check is skipped.
	next, err := engine.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh without fingerprint: %v", err)
	}

	// Session without a fingerprint accepts any caller fingerprint.
	last, err := engine.Refresh(otherCtx, next.RefreshToken)
	if err == nil {
		// next inherited fp-alpha, so this must actually have failed.
		t.Fatalf("inherited fingerprint not enforced, got session %v", last.Principal.ID)
	}

	plain := loginSession(t, engine, context.Background())
	if _, err := engine.Refresh(otherCtx, plain.RefreshToken); err != nil {
		t.Fatalf("unbound session rejected fingerprinted caller: %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	registerVerified(t, engine)
	ctx := context.Background()

	res := loginSession(t, engine, ctx)

	if err := engine.Logout(ctx, res.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := engine.Logout(ctx, res.RefreshToken); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if err := engine.Logout(ctx, "never-existed"); err != nil {
		t.Fatalf("Logout of unknown token: %v", err)
	}

	if _, err := engine.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("refresh after logout err = %v, want ErrRefreshInvalid", err)
	}
}

func TestAccessTokenCarriesIdentity(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	principal := registerVerified(t, engine)
	ctx := context.Background()

	res := loginSession(t, engine, ctx)

	claims, err := engine.tokens.Parse(res.AccessToken)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != principal.ID {
		t.Errorf("sub = %q, want %q", claims.Subject, principal.ID)
	}
	if claims.Role != string(RoleUser) || claims.Tier != string(TierFree) {
		t.Errorf("role/tier = %q/%q", claims.Role, claims.Tier)
	}
	if claims.SessionID == "" {
		t.Error("sid missing")
	}
}
