// Package token generates and encodes password reset tokens. The plaintext
// token is the base64url form of a 32-byte random secret; only the SHA-256
// of the secret is ever persisted.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

const secretSize = 32

// NewResetSecret returns 32 bytes of cryptographic randomness.
func NewResetSecret() ([secretSize]byte, error) {
	var secret [secretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

// Hash returns the value stored and indexed in place of the secret.
func Hash(secret [secretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

// Encode renders the secret as the plaintext token handed to the account
// owner. base64url, no padding, compact.
func Encode(secret [secretSize]byte) string {
	return base64.RawURLEncoding.EncodeToString(secret[:])
}

// Decode parses a plaintext token back into its secret. Any malformed input
// is an error; callers collapse it into their invalid-token result.
func Decode(token string) ([secretSize]byte, error) {
	var secret [secretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return secret, err
	}
	if len(raw) != secretSize {
		return secret, errors.New("invalid reset token size")
	}

	copy(secret[:], raw)
	return secret, nil
}
