package authcore

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists is returned by Register when the email is taken.
	ErrEmailExists = errors.New("email already registered")
	// ErrAccountLocked is returned while a temporary login lockout is active.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrEmailNotVerified is returned when verification is required by policy.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrMFARequired is returned by Login when MFA is enabled and no code was supplied.
	ErrMFARequired = errors.New("mfa required")
	// ErrMFAInvalid is returned when a TOTP code fails validation.
	ErrMFAInvalid = errors.New("invalid mfa code")
	// ErrMFANotInitialized is returned when no TOTP secret has been provisioned.
	ErrMFANotInitialized = errors.New("mfa not initialized")
	// ErrMFAAlreadyEnabled is returned by SetupMFA while MFA is armed;
	// re-enrollment requires DisableMFA with a valid code first.
	ErrMFAAlreadyEnabled = errors.New("mfa already enabled")
	// ErrRefreshInvalid covers every refresh rejection: unknown, revoked,
	// expired, and device-fingerprint mismatch.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrTokenInvalid covers every access-token rejection: malformed, bad
	// signature, expired, missing subject.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSecurityTokenInvalid is returned when a one-time token is unknown,
	// already used, or past expiry.
	ErrSecurityTokenInvalid = errors.New("invalid or expired token")
	// ErrRateLimited is returned when the token bucket for a credential is empty.
	ErrRateLimited = errors.New("rate limited")
	// ErrAPIKeyNotFound is returned when no credential matches the secret hash.
	ErrAPIKeyNotFound = errors.New("api key not found")
	// ErrAPIKeyRevoked is returned for a soft-revoked credential.
	ErrAPIKeyRevoked = errors.New("api key revoked")
	// ErrAPIKeyExpired is returned for a credential past its expiry.
	ErrAPIKeyExpired = errors.New("api key expired")
	// ErrPrincipalNotFound is returned when a referenced principal is absent.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrUnauthenticated is returned by ResolvePrincipal when neither request
	// state nor a bearer token is present.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPasswordPolicy is returned when a password fails the minimum length check.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRecordNotFound is the miss indicator store implementations must return.
	ErrRecordNotFound = errors.New("record not found")
	// ErrStoreUnavailable wraps transport failures from the credential store.
	// Credential, session, and token checks fail closed on it.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is returned from operations on a nil engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// HTTPStatus maps an engine error to the status code an HTTP boundary
// should surface. Unknown errors map to 500 without detail leakage.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrMFARequired),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrAPIKeyNotFound),
		errors.Is(err, ErrAPIKeyRevoked),
		errors.Is(err, ErrAPIKeyExpired),
		errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, ErrEmailExists), errors.Is(err, ErrMFAAlreadyEnabled):
		return http.StatusConflict
	case errors.Is(err, ErrAccountLocked), errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrMFAInvalid),
		errors.Is(err, ErrMFANotInitialized),
		errors.Is(err, ErrSecurityTokenInvalid),
		errors.Is(err, ErrPasswordPolicy):
		return http.StatusBadRequest
	case errors.Is(err, ErrPrincipalNotFound), errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
