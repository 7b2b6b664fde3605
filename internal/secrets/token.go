package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// tokenBytes is the entropy of a generated secret. 32 bytes encode to a
// 43-character URL-safe token.
const tokenBytes = 32

// hashChars is the truncated length of state hashes. The hash exists to
// detect drift between a persisted secret and its state entry, not to be
// reversible or collision-proof.
const hashChars = 8

// NewToken returns a high-entropy URL-safe token.
func NewToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("secrets: reading random bytes: " + err.Error())
	}

	return base64.RawURLEncoding.EncodeToString(buf)
}

// ShortHash returns the truncated SHA-256 hex digest recorded in the state
// side-table for a generated secret.
func ShortHash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])[:hashChars]
}

// Sha256Hex returns the full SHA-256 hex digest, used by DERIVE directives.
func Sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
