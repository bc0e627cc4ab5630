package pepper

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/ARONDALTON/callisto-core/crypto"
	"github.com/ARONDALTON/callisto-core/types"
)

func testSecret(t *testing.T) []byte {
	t.Helper()
	secret := make([]byte, crypto.KeySize)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("failed to generate secret: %v", err)
	}
	return secret
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		secretLen int
		expectErr error
	}{
		{name: "Valid 32 Bytes", secretLen: 32},
		{name: "Missing", secretLen: 0, expectErr: types.ErrMissingPepper},
		{name: "Too Short", secretLen: 16, expectErr: types.ErrInvalidPepperLength},
		{name: "Too Long", secretLen: 64, expectErr: types.ErrInvalidPepperLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(make([]byte, tt.secretLen))
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Errorf("expected %v, got %v", tt.expectErr, err)
				}
			} else if err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestPepperUnpepperInverse(t *testing.T) {
	layer, err := New(testSecret(t))
	if err != nil {
		t.Fatalf("failed to create layer: %v", err)
	}

	blobs := [][]byte{
		[]byte("opaque inner ciphertext"),
		{},
		bytes.Repeat([]byte{0xff}, 4096),
	}
	for _, blob := range blobs {
		peppered, err := layer.Pepper(blob)
		if err != nil {
			t.Fatalf("pepper failed: %v", err)
		}
		got, err := layer.Unpepper(peppered)
		if err != nil {
			t.Fatalf("unpepper failed: %v", err)
		}
		if !bytes.Equal(got, blob) {
			t.Errorf("unpepper(pepper(blob)) != blob")
		}
	}
}

func TestUnpepperFailsClosed(t *testing.T) {
	layer, err := New(testSecret(t))
	if err != nil {
		t.Fatalf("failed to create layer: %v", err)
	}

	// Non-peppered input.
	if _, err := layer.Unpepper([]byte("never peppered, just bytes that are long enough to parse")); !errors.Is(err, crypto.ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for non-peppered input, got %v", err)
	}

	// Corrupted peppered input.
	peppered, err := layer.Pepper([]byte("inner blob"))
	if err != nil {
		t.Fatalf("pepper failed: %v", err)
	}
	peppered[len(peppered)-1] ^= 0x01
	if _, err := layer.Unpepper(peppered); !errors.Is(err, crypto.ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for corrupted input, got %v", err)
	}
}

func TestWrongPepperSecret(t *testing.T) {
	layerA, err := New(testSecret(t))
	if err != nil {
		t.Fatalf("failed to create layer: %v", err)
	}
	layerB, err := New(testSecret(t))
	if err != nil {
		t.Fatalf("failed to create layer: %v", err)
	}

	peppered, err := layerA.Pepper([]byte("inner blob"))
	if err != nil {
		t.Fatalf("pepper failed: %v", err)
	}
	if _, err := layerB.Unpepper(peppered); !errors.Is(err, crypto.ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed under the wrong pepper secret, got %v", err)
	}
}

func TestNewFromConfigStatic(t *testing.T) {
	secret := testSecret(t)

	tests := []struct {
		name      string
		cfg       *types.PepperProviderConfig
		expectErr bool
	}{
		{
			name: "Valid Static Secret",
			cfg: &types.PepperProviderConfig{
				Provider:     types.ProviderStatic,
				SecretBase64: base64.StdEncoding.EncodeToString(secret),
			},
		},
		{
			name: "Empty Provider Defaults To Static",
			cfg: &types.PepperProviderConfig{
				SecretBase64: base64.StdEncoding.EncodeToString(secret),
			},
		},
		{
			name:      "Missing Secret",
			cfg:       &types.PepperProviderConfig{Provider: types.ProviderStatic},
			expectErr: true,
		},
		{
			name: "Invalid Base64",
			cfg: &types.PepperProviderConfig{
				Provider:     types.ProviderStatic,
				SecretBase64: "not base64!!!",
			},
			expectErr: true,
		},
		{
			name:      "Nil Config",
			cfg:       nil,
			expectErr: true,
		},
		{
			name:      "KMS Provider Without Provider Instance",
			cfg:       &types.PepperProviderConfig{Provider: types.ProviderAWS},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer, err := NewFromConfig(context.Background(), tt.cfg, nil)
			if tt.expectErr {
				if err == nil {
					t.Errorf("expected an error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error but got: %v", err)
			}
			peppered, err := layer.Pepper([]byte("blob"))
			if err != nil {
				t.Fatalf("pepper failed: %v", err)
			}
			if _, err := layer.Unpepper(peppered); err != nil {
				t.Errorf("unpepper failed: %v", err)
			}
		})
	}
}
