// Package keys derives purpose-bound keys from configured secrets and seals
// provider tokens before they are stored.
package keys

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Purposes bind a derived key to one use, so one configured secret never
// signs two kinds of token with the same key.
const (
	PurposeState         = "listing-server/state-token"
	PurposeSession       = "listing-server/session-credential"
	PurposeAccountTokens = "listing-server/account-tokens"
)

// KeySize is the length of every derived key.
const KeySize = 32

// Derive expands secret into a KeySize key for purpose using HKDF-SHA256.
func Derive(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret is required to derive %q key", purpose)
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("derive %q key: %w", purpose, err)
	}
	return key, nil
}
