// Package token mints and parses the signed access tokens that carry a
// principal's identity between requests. HS256 with a shared secret is
// the default; Ed25519 key pairs are supported for deployments that
// verify tokens outside the issuing service.
package token
