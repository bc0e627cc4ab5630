// Package kms provisions the pepper secret: the 32-byte server key is stored
// wrapped by an external KMS (or a local AEAD key) and unwrapped once at
// process start.
package kms

import (
	"context"

	wrapping "github.com/hashicorp/go-kms-wrapping/v2"

	"github.com/ARONDALTON/callisto-core/types"
)

// Provider represents a pepper-secret provider
type Provider interface {
	// GetWrapper returns the underlying KMS wrapper
	GetWrapper() wrapping.Wrapper

	// Test performs a test encryption/decryption
	Test(ctx context.Context) error

	// HealthCheck performs a comprehensive health check
	HealthCheck(ctx context.Context) error

	// GetLastHealthCheckError returns the last health check error
	GetLastHealthCheckError() error
}

// AWSConfig holds AWS KMS settings
type AWSConfig struct {
	KeyID       string                 `json:"keyId" bson:"keyId"`
	Region      string                 `json:"region" bson:"region"`
	Credentials map[string]interface{} `json:"credentials,omitempty" bson:"credentials,omitempty"`
}

// AzureConfig holds Azure Key Vault settings
type AzureConfig struct {
	KeyID        string                 `json:"keyId" bson:"keyId"`
	VaultAddress string                 `json:"vaultAddress" bson:"vaultAddress"`
	Credentials  map[string]interface{} `json:"credentials,omitempty" bson:"credentials,omitempty"`
}

// GCPConfig holds Google Cloud KMS settings
type GCPConfig struct {
	ResourceName string                 `json:"resourceName" bson:"resourceName"`
	Credentials  map[string]interface{} `json:"credentials,omitempty" bson:"credentials,omitempty"`
}

// VaultConfig holds HashiCorp Vault Transit settings
type VaultConfig struct {
	KeyID        string                 `json:"keyId" bson:"keyId"`
	VaultAddress string                 `json:"vaultAddress" bson:"vaultAddress"`
	VaultMount   string                 `json:"vaultMount,omitempty" bson:"vaultMount,omitempty"`
	Credentials  map[string]interface{} `json:"credentials,omitempty" bson:"credentials,omitempty"`
}

// Config represents the internal provider configuration
type Config struct {
	Type  types.ProviderType `json:"type" bson:"type"`
	AWS   *AWSConfig         `json:"aws,omitempty" bson:"aws,omitempty"`
	Azure *AzureConfig       `json:"azure,omitempty" bson:"azure,omitempty"`
	GCP   *GCPConfig         `json:"gcp,omitempty" bson:"gcp,omitempty"`
	Vault *VaultConfig       `json:"vault,omitempty" bson:"vault,omitempty"`

	// LocalKeyBase64 is the base64 encoded 32-byte local AEAD key used when
	// the wrapped pepper is kept under a locally held key instead of a cloud KMS.
	LocalKeyBase64 string `json:"localKeyBase64,omitempty" bson:"localKeyBase64,omitempty"`
	LocalKeyID     string `json:"localKeyId,omitempty" bson:"localKeyId,omitempty"`
}

// FromProviderConfig converts the persisted pepper-provider configuration to
// the internal provider config.
func FromProviderConfig(cfg *types.PepperProviderConfig) Config {
	out := Config{Type: cfg.Provider}

	var creds map[string]interface{}
	if cfg.Credentials != nil {
		creds = make(map[string]interface{})
		switch cfg.Provider {
		case types.ProviderAWS:
			creds["accessKeyId"] = cfg.Credentials.AccessKeyID
			creds["secretAccessKey"] = cfg.Credentials.SecretAccessKey
			if cfg.Credentials.SessionToken != "" {
				creds["sessionToken"] = cfg.Credentials.SessionToken
			}
		case types.ProviderAzure:
			creds["tenantId"] = cfg.Credentials.TenantID
			creds["clientId"] = cfg.Credentials.ClientID
			creds["clientSecret"] = cfg.Credentials.ClientSecret
		case types.ProviderGCP:
			creds["credentialsJson"] = cfg.Credentials.CredentialsJSON
		case types.ProviderVault:
			creds["token"] = cfg.Credentials.Token
		}
	}

	switch cfg.Provider {
	case types.ProviderAWS:
		out.AWS = &AWSConfig{KeyID: cfg.KeyID, Region: cfg.Region, Credentials: creds}
	case types.ProviderAzure:
		out.Azure = &AzureConfig{KeyID: cfg.KeyID, VaultAddress: cfg.VaultAddress, Credentials: creds}
	case types.ProviderGCP:
		out.GCP = &GCPConfig{ResourceName: cfg.KeyID, Credentials: creds}
	case types.ProviderVault:
		out.Vault = &VaultConfig{KeyID: cfg.KeyID, VaultAddress: cfg.VaultAddress, VaultMount: cfg.VaultMount, Credentials: creds}
	}

	return out
}
