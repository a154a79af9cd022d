// Package secrets encrypts merchant credentials before they are stored.
package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// versionPrefix marks values sealed by this package
	versionPrefix = "v1:"

	minKeyLength = 16
	hkdfInfo     = "kvikk-shopify settings v1"
)

var (
	ErrKeyTooShort      = errors.New("secrets: encryption key is too short")
	ErrMalformedValue   = errors.New("secrets: malformed ciphertext")
	ErrDecryptionFailed = errors.New("secrets: decryption failed")
)

// Cipher seals short strings with XChaCha20-Poly1305. The AEAD key is
// derived from the configured passphrase with HKDF-SHA256.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the AEAD key from passphrase
func NewCipher(passphrase string) (*Cipher, error) {
	if len(passphrase) < minKeyLength {
		return nil, ErrKeyTooShort
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("secrets: derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secrets: init cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext bound to context (the shop domain), so a value
// copied to another shop's row does not decrypt. Empty input stays empty.
func (c *Cipher) Encrypt(plaintext, context string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+chacha20poly1305.Overhead)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secrets: nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(context))
	return versionPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt with the same context
func (c *Cipher) Decrypt(value, context string) (string, error) {
	if value == "" {
		return "", nil
	}
	if !strings.HasPrefix(value, versionPrefix) {
		return "", ErrMalformedValue
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, versionPrefix))
	if err != nil || len(raw) < c.aead.NonceSize()+chacha20poly1305.Overhead {
		return "", ErrMalformedValue
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, []byte(context))
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
