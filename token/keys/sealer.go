package keys

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "enc:v1:"

// ErrUnsealFailed is returned when a sealed value cannot be authenticated.
var ErrUnsealFailed = errors.New("sealed value failed authentication")

// Sealer encrypts short strings with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a sealer from a KeySize key.
func NewSealer(key []byte) (*Sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create sealer: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromSecret derives the account-token key from secret.
func NewSealerFromSecret(secret string) (*Sealer, error) {
	key, err := Derive(secret, PurposeAccountTokens)
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

// Seal encrypts plaintext. The empty string stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix
// were written before encryption was enabled and are returned unchanged.
func (s *Sealer) Open(value string) (string, error) {
	encoded, ok := strings.CutPrefix(value, sealedPrefix)
	if !ok {
		return value, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsealFailed, err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", ErrUnsealFailed
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsealFailed, err)
	}
	return string(plaintext), nil
}
