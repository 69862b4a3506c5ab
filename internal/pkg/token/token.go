// Package token generates opaque bearer credentials. Tokens carry no claims;
// identity is resolved by looking up the stored digest, so revocation is a
// plain row delete.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// PlainLength is the byte length of entropy behind each token.
const PlainLength = 32

// New generates a new plaintext bearer token.
func New() (string, error) {
	buf := make([]byte, PlainLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
