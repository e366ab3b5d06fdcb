// Package authcore is the embeddable identity and access engine behind the
// GetAppShots API platform. It covers account registration and login with
// lockout, TOTP multi-factor auth, refresh-session rotation with device
// binding, signed access tokens, one-time email verification and password
// reset tokens, and API-key resolution gated by a per-credential token
// bucket.
//
// The engine is storage-agnostic: callers supply a Store implementation
// (memstore ships an in-memory one) and optionally a Redis client for
// fleet-wide rate limiting. Construction goes through the Builder:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithStore(store).
//		WithRedis(rdb).
//		Build()
//
// All secrets (passwords aside, which are argon2id-hashed) are stored only
// as sha256 digests; raw API keys, refresh tokens, and security tokens are
// shown to the caller exactly once at mint time.
//
// Rate limiting is availability-biased: when the shared Redis backend
// cannot answer, requests fall back to a per-process limiter rather than
// being refused. Everything durable (principals, credentials, sessions)
// fails closed.
package authcore
