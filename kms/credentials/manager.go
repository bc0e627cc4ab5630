// Package credentials protects the KMS credentials embedded in the stored
// pepper-provider configuration. Credential fields are encrypted before the
// configuration is persisted and decrypted before a provider is built.
package credentials

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ARONDALTON/callisto-core/interfaces"
	"github.com/ARONDALTON/callisto-core/types"
)

const maskedValue = "[MASKED]"

// credentialManager implements the CredentialsManager interface
type credentialManager struct {
	encryptor interfaces.SymmetricEncryptor
}

// NewManager creates a new credential manager
func NewManager(encryptionKey []byte) (interfaces.CredentialsManager, error) {
	encryptor, err := newSymmetricEncryption(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	return &credentialManager{encryptor: encryptor}, nil
}

// EncryptCredentials encrypts the credential fields of the pepper-provider
// configuration in place. Masked and empty values are left untouched.
func (m *credentialManager) EncryptCredentials(config *types.PepperProviderConfig) error {
	if config == nil || config.Credentials == nil {
		return nil
	}

	newCreds := &types.KMSCredentials{}

	encryptValue := func(value string, fieldName string) (string, error) {
		if value == "" || value == maskedValue {
			return "", nil
		}
		encrypted, err := m.encryptor.Encrypt(value)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt %s: %w", fieldName, err)
		}
		return encrypted, nil
	}

	var err error
	switch config.Provider {
	case types.ProviderAWS:
		if newCreds.AccessKeyID, err = encryptValue(config.Credentials.AccessKeyID, "AWS access key"); err != nil {
			return err
		}
		if newCreds.SecretAccessKey, err = encryptValue(config.Credentials.SecretAccessKey, "AWS secret key"); err != nil {
			return err
		}
		if newCreds.SessionToken, err = encryptValue(config.Credentials.SessionToken, "AWS session token"); err != nil {
			return err
		}

	case types.ProviderAzure:
		if newCreds.TenantID, err = encryptValue(config.Credentials.TenantID, "Azure tenant ID"); err != nil {
			return err
		}
		if newCreds.ClientID, err = encryptValue(config.Credentials.ClientID, "Azure client ID"); err != nil {
			return err
		}
		if newCreds.ClientSecret, err = encryptValue(config.Credentials.ClientSecret, "Azure client secret"); err != nil {
			return err
		}

	case types.ProviderGCP:
		if newCreds.CredentialsJSON, err = encryptValue(config.Credentials.CredentialsJSON, "GCP credentials JSON"); err != nil {
			return err
		}

	case types.ProviderVault:
		if newCreds.Token, err = encryptValue(config.Credentials.Token, "Vault token"); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unsupported provider type: %s", config.Provider)
	}

	config.Credentials = newCreds

	log.Debug().
		Str("provider", string(config.Provider)).
		Msg("Provider credentials encrypted")

	return nil
}

// DecryptCredentials decrypts the credential fields of the pepper-provider
// configuration in place.
func (m *credentialManager) DecryptCredentials(config *types.PepperProviderConfig) error {
	if config == nil || config.Credentials == nil {
		return nil
	}

	if config.Provider == "" {
		return fmt.Errorf("provider type is required for decryption")
	}

	newCreds := &types.KMSCredentials{}

	decryptValue := func(value string, fieldName string) (string, error) {
		if value == "" || value == maskedValue {
			return "", nil
		}
		decrypted, err := m.encryptor.Decrypt(value)
		if err != nil {
			log.Error().Err(err).Str("field", fieldName).Msg("Failed to decrypt credential field")
			return "", fmt.Errorf("failed to decrypt %s: %w", fieldName, err)
		}
		return decrypted, nil
	}

	var err error
	switch config.Provider {
	case types.ProviderAWS:
		if newCreds.AccessKeyID, err = decryptValue(config.Credentials.AccessKeyID, "AWS access key"); err != nil {
			return err
		}
		if newCreds.SecretAccessKey, err = decryptValue(config.Credentials.SecretAccessKey, "AWS secret key"); err != nil {
			return err
		}
		if newCreds.SessionToken, err = decryptValue(config.Credentials.SessionToken, "AWS session token"); err != nil {
			return err
		}

	case types.ProviderAzure:
		if newCreds.TenantID, err = decryptValue(config.Credentials.TenantID, "Azure tenant ID"); err != nil {
			return err
		}
		if newCreds.ClientID, err = decryptValue(config.Credentials.ClientID, "Azure client ID"); err != nil {
			return err
		}
		if newCreds.ClientSecret, err = decryptValue(config.Credentials.ClientSecret, "Azure client secret"); err != nil {
			return err
		}

	case types.ProviderGCP:
		if newCreds.CredentialsJSON, err = decryptValue(config.Credentials.CredentialsJSON, "GCP credentials JSON"); err != nil {
			return err
		}

	case types.ProviderVault:
		if newCreds.Token, err = decryptValue(config.Credentials.Token, "Vault token"); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unsupported provider type: %s", config.Provider)
	}

	config.Credentials = newCreds

	log.Debug().
		Str("provider", string(config.Provider)).
		Msg("Provider credentials decrypted")

	return nil
}
