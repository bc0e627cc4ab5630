package types

import (
	"errors"

	wrapping "github.com/hashicorp/go-kms-wrapping/v2"
)

// Configuration errors are fatal: the core must refuse to initialize rather
// than fall back to a weaker mode.
var (
	// ErrInvalidIterations is returned when the KDF iteration count is not positive
	ErrInvalidIterations = errors.New("key stretching iteration count must be positive")

	// ErrInvalidSaltLength is returned when the configured salt length is not positive
	ErrInvalidSaltLength = errors.New("salt length must be positive")

	// ErrMissingPepper is returned when no pepper secret is configured
	ErrMissingPepper = errors.New("pepper secret is required")

	// ErrInvalidPepperLength is returned when the pepper secret is not exactly 32 bytes
	ErrInvalidPepperLength = errors.New("pepper secret must be exactly 32 bytes")
)

const (
	// DefaultIterations is the default PBKDF2 iteration count. Perpetrator
	// identifiers are frequently short human-chosen strings, so the count has
	// to keep offline guessing expensive.
	DefaultIterations = 100000

	// DefaultSaltLength is the default length of generated salt strings.
	DefaultSaltLength = 32
)

// CryptoConfig holds the key-stretching parameters shared by report and match
// encryption.
type CryptoConfig struct {
	// Iterations is the PBKDF2 iteration count used for every stretch.
	Iterations int `json:"iterations" bson:"iterations"`

	// SaltLength is the length of newly generated salts.
	SaltLength int `json:"saltLength" bson:"saltLength"`
}

// Validate checks the configuration, applying defaults for zero values.
func (c *CryptoConfig) Validate() error {
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.SaltLength == 0 {
		c.SaltLength = DefaultSaltLength
	}
	if c.Iterations < 0 {
		return ErrInvalidIterations
	}
	if c.SaltLength < 0 {
		return ErrInvalidSaltLength
	}
	return nil
}

// ProviderType represents the type of pepper-secret provider
type ProviderType string

const (
	ProviderAWS    ProviderType = "aws"
	ProviderAzure  ProviderType = "azure"
	ProviderGCP    ProviderType = "gcp"
	ProviderVault  ProviderType = "vault"
	ProviderStatic ProviderType = "static"
)

// KMSCredentials represents pepper-provider credentials
type KMSCredentials struct {
	// AWS credentials
	AccessKeyID     string `json:"accessKeyId,omitempty" bson:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" bson:"secretAccessKey,omitempty"`
	SessionToken    string `json:"sessionToken,omitempty" bson:"sessionToken,omitempty"`

	// Azure credentials
	TenantID     string `json:"tenantId,omitempty" bson:"tenantId,omitempty"`
	ClientID     string `json:"clientId,omitempty" bson:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty" bson:"clientSecret,omitempty"`

	// GCP credentials
	CredentialsJSON string `json:"credentialsJson,omitempty" bson:"credentialsJson,omitempty"`

	// Vault credentials
	Token string `json:"token,omitempty" bson:"token,omitempty"`
}

// PepperProviderConfig describes where the process-wide pepper secret comes
// from. The static provider carries the secret directly; the KMS providers
// carry a wrapped blob that is unwrapped once at startup.
type PepperProviderConfig struct {
	Provider     ProviderType    `json:"provider" bson:"provider"`
	KeyID        string          `json:"keyId,omitempty" bson:"keyId,omitempty"`
	Region       string          `json:"region,omitempty" bson:"region,omitempty"`
	VaultAddress string          `json:"vaultAddress,omitempty" bson:"vaultAddress,omitempty"`
	VaultMount   string          `json:"vaultMount,omitempty" bson:"vaultMount,omitempty"`
	Credentials  *KMSCredentials `json:"credentials,omitempty" bson:"credentials,omitempty"`

	// SecretBase64 is the base64 encoded 32-byte pepper for the static provider.
	SecretBase64 string `json:"secretBase64,omitempty" bson:"secretBase64,omitempty"`

	// WrappedSecret is the KMS-wrapped pepper blob for the cloud providers.
	WrappedSecret *wrapping.BlobInfo `json:"wrappedSecret,omitempty" bson:"wrappedSecret,omitempty"`
}
