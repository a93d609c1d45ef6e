// Package apikey generates opaque bearer tokens for tenant authentication.
package apikey

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes yields a 43-character URL-safe token, matching the entropy
// of a 32-byte secret.
const tokenBytes = 32

// New returns a cryptographically random, URL-safe API key.
func New() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; treat it as fatal.
		panic("apikey: rand.Read failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
