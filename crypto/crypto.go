// Package crypto provides the symmetric primitives of the reporting core:
// PBKDF2 key stretching, the authenticated report cipher, and salt generation.
// All functions are pure computations over their inputs; derived keys are
// never cached or persisted.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the length of a stretched key and of the pepper secret.
	KeySize = 32

	// NonceSize is the width of the random nonce prepended to every blob.
	NonceSize = 24
)

// ErrDecryptionFailed indicates a wrong key, a wrong salt, or a tampered
// blob. The authentication check makes these cases indistinguishable, which
// is what lets trial decryption double as an equality test.
var ErrDecryptionFailed = errors.New("decryption failed")

const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewSalt generates a random alphanumeric salt of the given length. Salts are
// not secret; they are stored in plaintext and only defeat precomputation.
func NewSalt(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("salt length must be positive, got %d", length)
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	for i, b := range buf {
		buf[i] = saltAlphabet[int(b)%len(saltAlphabet)]
	}
	return string(buf), nil
}

// Stretch derives a 32-byte key from a low-entropy secret and a salt using
// PBKDF2-HMAC-SHA256. Deterministic: identical inputs always yield the
// identical key, so a reporter can re-derive their key to decrypt later.
func Stretch(secret, salt string, iterations int) []byte {
	return pbkdf2.Key([]byte(secret), []byte(salt), iterations, KeySize, sha256.New)
}

// Encrypt seals plaintext under key with a fresh random nonce and returns the
// nonce followed by the authenticated ciphertext.
func Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}

	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	var boxKey [KeySize]byte
	copy(boxKey[:], key)

	return secretbox.Seal(nonce[:], plaintext, &nonce, &boxKey), nil
}

// Decrypt opens a nonce-prefixed blob produced by Encrypt. Any bit flip
// in the nonce or ciphertext, or a wrong key, fails closed with
// ErrDecryptionFailed; corrupted plaintext is never returned.
func Decrypt(key []byte, blob []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	if len(blob) < NonceSize+secretbox.Overhead {
		return nil, ErrDecryptionFailed
	}

	var nonce [NonceSize]byte
	copy(nonce[:], blob[:NonceSize])

	var boxKey [KeySize]byte
	copy(boxKey[:], key)

	plaintext, ok := secretbox.Open(nil, blob[NonceSize:], &nonce, &boxKey)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
