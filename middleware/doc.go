// Package middleware adapts the engine to net/http. RequireAPIKey
// authenticates X-API-Key requests and stamps rate-limit headers;
// RequireBearer authenticates Authorization: Bearer requests. Both
// inject the resolved principal into the request context and delegate
// every decision to the engine.
package middleware
