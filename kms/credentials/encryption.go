package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/ARONDALTON/callisto-core/interfaces"
)

// encryptedPrefix marks credential values that are already protected; values
// without it are treated as plaintext and pass through unchanged.
const encryptedPrefix = "ENC["

// symmetricEncryption protects individual credential values of the stored
// pepper-provider configuration with AES-256-GCM. The AEAD is built once at
// construction; every value is sealed under its own random nonce.
type symmetricEncryption struct {
	aead cipher.AEAD
}

func newSymmetricEncryption(key []byte) (interfaces.SymmetricEncryptor, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("encryption key must be at least 32 bytes")
	}

	// Always use exactly 32 bytes for AES-256
	key = key[:32]

	uniqueBytes := make(map[byte]bool)
	for _, b := range key {
		uniqueBytes[b] = true
	}
	// Require at least 16 unique bytes in the key
	if len(uniqueBytes) < 16 {
		return nil, fmt.Errorf("key has insufficient entropy")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}

	return &symmetricEncryption{aead: aead}, nil
}

func isProtected(value string) bool {
	return strings.HasPrefix(value, encryptedPrefix)
}

// Encrypt protects a single credential value. Protecting an already protected
// value is a no-op, which keeps repeated saves of the same provider config
// idempotent.
func (e *symmetricEncryption) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("plaintext cannot be empty")
	}
	if isProtected(plaintext) {
		return plaintext, nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return encryptedPrefix + base64.URLEncoding.EncodeToString(sealed) + "]", nil
}

// Decrypt recovers a credential value. Values without the prefix pass through
// so a provider config written before protection was enabled still loads.
func (e *symmetricEncryption) Decrypt(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("ciphertext cannot be empty")
	}
	if !isProtected(value) {
		return value, nil
	}

	trimmed := strings.TrimSuffix(strings.TrimPrefix(value, encryptedPrefix), "]")
	decoded, err := base64.URLEncoding.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(decoded) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := e.aead.Open(nil, decoded[:nonceSize], decoded[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
