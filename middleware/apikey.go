package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	authcore "github.com/appshots/authcore"
)

// APIKeyHeader carries the raw credential secret.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey authenticates every request with ResolveAPIKey. The
// X-RateLimit-Limit, X-RateLimit-Remaining, and X-RateLimit-Reset
// headers are set on admitted and throttled responses alike; a
// throttled request additionally gets Retry-After and a 429. Handlers
// downstream read the principal via authcore.PrincipalFromContext.
func RequireAPIKey(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			rawKey := r.Header.Get(APIKeyHeader)
			if rawKey == "" {
				http.Error(w, "missing api key", http.StatusUnauthorized)
				return
			}

			ctx := authcore.WithClientIP(r.Context(), clientIP(r))
			ctx = authcore.WithUserAgent(ctx, r.UserAgent())

			auth, err := engine.ResolveAPIKey(ctx, rawKey)
			if auth != nil {
				h := w.Header()
				h.Set("X-RateLimit-Limit", strconv.Itoa(auth.RateLimit.Limit))
				h.Set("X-RateLimit-Remaining", strconv.Itoa(auth.RateLimit.Remaining))
				h.Set("X-RateLimit-Reset", strconv.FormatInt(auth.RateLimit.Reset, 10))
			}
			if err != nil {
				status := authcore.HTTPStatus(err)
				if status == http.StatusTooManyRequests && auth != nil {
					w.Header().Set("Retry-After",
						strconv.FormatInt(auth.RateLimit.RetryAfter(timeNow()), 10))
				}
				http.Error(w, http.StatusText(status), status)
				return
			}

			ctx = authcore.WithPrincipal(ctx, auth.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP strips the port from RemoteAddr, falling back to the raw
// value for non host:port forms.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
