package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestStretchDeterministic(t *testing.T) {
	first := Stretch("supersecret", "saltA", 100000)
	second := Stretch("supersecret", "saltA", 100000)

	if len(first) != KeySize {
		t.Fatalf("expected %d-byte key, got %d", KeySize, len(first))
	}
	if !bytes.Equal(first, second) {
		t.Errorf("identical inputs produced different keys")
	}

	other := Stretch("supersecret", "saltB", 100000)
	if len(other) != KeySize {
		t.Fatalf("expected %d-byte key, got %d", KeySize, len(other))
	}
	if bytes.Equal(first, other) {
		t.Errorf("different salts produced the same key")
	}
}

func TestStretchSecretSensitivity(t *testing.T) {
	a := Stretch("alice123", "salt", 1000)
	b := Stretch("bob456", "salt", 1000)
	if bytes.Equal(a, b) {
		t.Errorf("different secrets produced the same key")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "Simple Text", plaintext: "the full report text"},
		{name: "Empty", plaintext: ""},
		{name: "Unicode", plaintext: "пострадавший сообщил – détails"},
		{name: "Long", plaintext: string(bytes.Repeat([]byte("a"), 64*1024))},
	}

	key := Stretch("secret key", "salt", 1000)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := Encrypt(key, []byte(tt.plaintext))
			if err != nil {
				t.Fatalf("encrypt failed: %v", err)
			}
			got, err := Decrypt(key, blob)
			if err != nil {
				t.Fatalf("decrypt failed: %v", err)
			}
			if string(got) != tt.plaintext {
				t.Errorf("round trip mismatch")
			}
		})
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	k1 := Stretch("secret one", "salt", 1000)
	k2 := Stretch("secret two", "salt", 1000)

	blob, err := Encrypt(k1, []byte("report"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if _, err := Decrypt(k2, blob); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptTamperDetection(t *testing.T) {
	key := Stretch("secret", "salt", 1000)
	blob, err := Encrypt(key, []byte("report text"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	// Flip a single bit at every position, nonce included.
	for i := range blob {
		tampered := make([]byte, len(blob))
		copy(tampered, blob)
		tampered[i] ^= 0x01

		if _, err := Decrypt(key, tampered); !errors.Is(err, ErrDecryptionFailed) {
			t.Fatalf("bit flip at byte %d not detected, got %v", i, err)
		}
	}
}

func TestDecryptTruncatedBlob(t *testing.T) {
	key := Stretch("secret", "salt", 1000)
	if _, err := Decrypt(key, []byte("short")); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for truncated blob, got %v", err)
	}
}

func TestEncryptNonceFreshness(t *testing.T) {
	key := Stretch("secret", "salt", 1000)
	a, err := Encrypt(key, []byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	b, err := Encrypt(key, []byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Equal(a[:NonceSize], b[:NonceSize]) {
		t.Errorf("nonce reused across encryptions")
	}
	if bytes.Equal(a, b) {
		t.Errorf("identical blobs for two encryptions of the same plaintext")
	}
}

func TestEncryptRejectsBadKeyLength(t *testing.T) {
	if _, err := Encrypt([]byte("short key"), []byte("x")); err == nil {
		t.Errorf("expected an error for a non-32-byte key")
	}
	if _, err := Decrypt([]byte("short key"), make([]byte, 64)); err == nil {
		t.Errorf("expected an error for a non-32-byte key")
	}
}

func TestNewSalt(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		expectErr bool
	}{
		{name: "Default Length", length: 32},
		{name: "Short", length: 12},
		{name: "Zero", length: 0, expectErr: true},
		{name: "Negative", length: -1, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt, err := NewSalt(tt.length)
			if tt.expectErr {
				if err == nil {
					t.Errorf("expected an error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error but got: %v", err)
			}
			if len(salt) != tt.length {
				t.Errorf("expected salt of length %d, got %d", tt.length, len(salt))
			}
		})
	}

	a, _ := NewSalt(32)
	b, _ := NewSalt(32)
	if a == b {
		t.Errorf("two generated salts collided")
	}
}
