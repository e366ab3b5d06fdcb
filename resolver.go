package authcore

import (
	"context"
	"errors"
)

// ResolutionSource says how a principal's identity was established.
type ResolutionSource string

const (
	// FromRequestState means a prior stage (the API-key middleware)
	// already resolved the principal and stashed it on the context.
	FromRequestState ResolutionSource = "request_state"
	// FromBearerToken means the principal came from a verified access token.
	FromBearerToken ResolutionSource = "bearer_token"
)

// ResolvePrincipal establishes the caller's identity for one request.
// A principal already on the context wins outright; otherwise the
// bearer token is verified and its subject loaded fresh from the store,
// so role or tier changes apply no later than the next request.
func (e *Engine) ResolvePrincipal(ctx context.Context, bearer string) (Principal, ResolutionSource, error) {
	if e == nil {
		return Principal{}, "", ErrEngineNotReady
	}

	if p, ok := PrincipalFromContext(ctx); ok {
		return p, FromRequestState, nil
	}

	if bearer == "" {
		return Principal{}, "", ErrUnauthenticated
	}

	claims, err := e.tokens.Parse(bearer)
	if err != nil {
		return Principal{}, "", ErrTokenInvalid
	}

	record, err := e.store.GetPrincipalByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Principal{}, "", ErrPrincipalNotFound
		}
		return Principal{}, "", err
	}

	return record.Snapshot(), FromBearerToken, nil
}
