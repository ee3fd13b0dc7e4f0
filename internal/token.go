package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

const actionTokenRawSize = 32

// NewActionToken generates an opaque verification/reset token and its storage
// digest. The token is 32 bytes from crypto/rand, base64url without padding;
// only the SHA-256 hex digest is ever persisted.
func NewActionToken() (token string, digest string, err error) {
	var raw [actionTokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", "", err
	}
	token = base64.RawURLEncoding.EncodeToString(raw[:])
	return token, HashActionToken(token), nil
}

// HashActionToken maps a presented token onto its storage digest.
func HashActionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DigestsEqual compares two storage digests in constant time.
func DigestsEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
