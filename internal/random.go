// Package internal holds secret generation and one-way hashing helpers
// shared by the engine. Raw secrets exist only in transit; every persisted
// or compared form is a sha256 digest.
package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const (
	apiKeyRandomBytes = 32
	opaqueTokenBytes  = 32
)

// NewOpaqueToken returns a high-entropy random string suitable for refresh
// secrets and one-time security tokens. base64url, no padding.
func NewOpaqueToken() (string, error) {
	var raw [opaqueTokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NewAPIKeySecret returns a printable API key secret: the configured prefix,
// an underscore, and 32 bytes of randomness.
func NewAPIKeySecret(prefix string) (string, error) {
	var raw [apiKeyRandomBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return prefix + "_" + base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashSecret returns the hex-encoded sha256 digest of a raw secret. This is
// the only form a secret is ever stored or looked up in.
func HashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Last4 returns the display fragment of a secret: its final four characters.
func Last4(raw string) string {
	if len(raw) < 4 {
		return raw
	}
	return raw[len(raw)-4:]
}
