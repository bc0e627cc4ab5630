// Package pepper implements the second encryption layer applied to match
// report blobs. The pepper is a process-wide 32-byte secret held by the
// server; a database compromise alone does not expose even the outer
// ciphertext structure of match reports.
package pepper

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ARONDALTON/callisto-core/crypto"
	"github.com/ARONDALTON/callisto-core/interfaces"
	"github.com/ARONDALTON/callisto-core/types"
)

// Layer applies the pepper. The secret is immutable after construction and
// safe for unsynchronized concurrent reads; rotation is an operational
// concern outside this core.
type Layer struct {
	secret *types.SecureBytes
}

// New creates a pepper layer from a raw 32-byte secret. A missing or
// wrong-length secret is a fatal configuration error; there is no weaker
// fallback mode.
func New(secret []byte) (*Layer, error) {
	if len(secret) == 0 {
		return nil, types.ErrMissingPepper
	}
	if len(secret) != crypto.KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", types.ErrInvalidPepperLength, len(secret))
	}
	return &Layer{secret: types.NewSecureBytes(secret)}, nil
}

// NewFromConfig resolves the pepper secret from the provider configuration.
// The static provider decodes the secret directly; the KMS providers unwrap
// the stored wrapped blob through the given provider.
func NewFromConfig(ctx context.Context, cfg *types.PepperProviderConfig, provider interfaces.PepperProvider) (*Layer, error) {
	if cfg == nil {
		return nil, types.ErrMissingPepper
	}

	log.Debug().
		Str("provider", string(cfg.Provider)).
		Msg("Resolving pepper secret")

	// A static provider carries the secret directly. It may also hold the
	// pepper wrapped under a locally held AEAD key, in which case it takes
	// the unwrap path like the cloud providers.
	if cfg.Provider == types.ProviderStatic || cfg.Provider == "" {
		if cfg.SecretBase64 != "" {
			secret, err := base64.StdEncoding.DecodeString(cfg.SecretBase64)
			if err != nil {
				return nil, fmt.Errorf("failed to decode pepper secret: %w", err)
			}
			return New(secret)
		}
		if provider == nil || cfg.WrappedSecret == nil {
			return nil, types.ErrMissingPepper
		}
	}

	if provider == nil {
		return nil, fmt.Errorf("pepper provider is required for provider type %s", cfg.Provider)
	}
	if cfg.WrappedSecret == nil {
		return nil, fmt.Errorf("wrapped pepper secret is missing for provider type %s", cfg.Provider)
	}
	secret, err := provider.GetWrapper().Decrypt(ctx, cfg.WrappedSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap pepper secret: %w", err)
	}
	layer, err := New(secret)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("provider", string(cfg.Provider)).
		Msg("Pepper secret unwrapped")
	return layer, nil
}

// Pepper encrypts an already-encrypted blob under the server secret with a
// fresh nonce. Every match report blob passes through here before storage.
func (l *Layer) Pepper(blob []byte) ([]byte, error) {
	return crypto.Encrypt(l.secret.Get(), blob)
}

// Unpepper removes the pepper layer. Fails closed with ErrDecryptionFailed on
// non-peppered or corrupted input.
func (l *Layer) Unpepper(peppered []byte) ([]byte, error) {
	return crypto.Decrypt(l.secret.Get(), peppered)
}
