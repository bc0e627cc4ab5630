package kms

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	wrapping "github.com/hashicorp/go-kms-wrapping/v2"
	kmsaead "github.com/hashicorp/go-kms-wrapping/v2/aead"
	awskms "github.com/hashicorp/go-kms-wrapping/wrappers/awskms/v2"
	azurekeyvault "github.com/hashicorp/go-kms-wrapping/wrappers/azurekeyvault/v2"
	gcpckms "github.com/hashicorp/go-kms-wrapping/wrappers/gcpckms/v2"
	transit "github.com/hashicorp/go-kms-wrapping/wrappers/transit/v2"
	"github.com/rs/zerolog"

	"github.com/ARONDALTON/callisto-core/types"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// provider implements the Provider interface
type provider struct {
	wrapper         wrapping.Wrapper
	lastHealthCheck error
}

// NewProvider creates a pepper-secret provider based on the configuration.
// A misconfigured provider is a startup failure; the core never proceeds
// without a working unwrap path.
func NewProvider(config Config) (Provider, error) {
	var wrapper wrapping.Wrapper
	var err error
	ctx := context.Background()

	log.Debug().
		Str("provider", string(config.Type)).
		Msg("Initializing pepper-secret provider")

	switch config.Type {
	case types.ProviderAWS:
		if config.AWS == nil {
			return nil, fmt.Errorf("AWS configuration is missing for provider type %s", config.Type)
		}
		if err = validateAWSConfig(*config.AWS); err != nil {
			return nil, fmt.Errorf("invalid AWS KMS configuration: %w", err)
		}
		wrapper, err = createAWSWrapper(*config.AWS)
	case types.ProviderAzure:
		if config.Azure == nil {
			return nil, fmt.Errorf("azure configuration is missing for provider type %s", config.Type)
		}
		if err = validateAzureConfig(*config.Azure); err != nil {
			return nil, fmt.Errorf("invalid Azure Key Vault configuration: %w", err)
		}
		wrapper, err = createAzureWrapper(*config.Azure)
	case types.ProviderGCP:
		if config.GCP == nil {
			return nil, fmt.Errorf("GCP configuration is missing for provider type %s", config.Type)
		}
		if err = validateGCPConfig(*config.GCP); err != nil {
			return nil, fmt.Errorf("invalid GCP KMS configuration: %w", err)
		}
		wrapper, err = createGCPWrapper(*config.GCP)
	case types.ProviderVault:
		if config.Vault == nil {
			return nil, fmt.Errorf("vault configuration is missing for provider type %s", config.Type)
		}
		if err = validateVaultConfig(*config.Vault); err != nil {
			return nil, fmt.Errorf("invalid Vault configuration: %w", err)
		}
		wrapper, err = createVaultWrapper(*config.Vault)
	case types.ProviderStatic:
		wrapper, err = createLocalWrapper(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported pepper-secret provider type: %s", config.Type)
	}

	if err != nil {
		log.Error().Err(err).Str("provider", string(config.Type)).Msg("Failed to create provider wrapper")
		return nil, fmt.Errorf("failed to create wrapper: %w", err)
	}

	log.Info().
		Str("provider", string(config.Type)).
		Msg("Pepper-secret provider initialized")

	return &provider{wrapper: wrapper}, nil
}

// GetWrapper returns the underlying KMS wrapper
func (p *provider) GetWrapper() wrapping.Wrapper {
	return p.wrapper
}

// Test performs a round-trip encryption/decryption through the wrapper
func (p *provider) Test(ctx context.Context) error {
	if p.wrapper == nil {
		return fmt.Errorf("wrapper not initialized")
	}

	testData := []byte("test")

	encrypted, err := p.wrapper.Encrypt(ctx, testData)
	if err != nil {
		return fmt.Errorf("encryption test failed: %w", err)
	}

	decrypted, err := p.wrapper.Decrypt(ctx, encrypted)
	if err != nil {
		return fmt.Errorf("decryption test failed: %w", err)
	}

	if string(decrypted) != string(testData) {
		return fmt.Errorf("decrypted data does not match original")
	}
	return nil
}

// HealthCheck performs a comprehensive health check of the provider
func (p *provider) HealthCheck(ctx context.Context) error {
	if p.wrapper == nil {
		return fmt.Errorf("provider not properly initialized: wrapper is nil")
	}

	if err := p.Test(ctx); err != nil {
		p.lastHealthCheck = fmt.Errorf("pepper-secret provider health check failed: %w", err)
		return p.lastHealthCheck
	}

	p.lastHealthCheck = nil
	return nil
}

// GetLastHealthCheckError returns the last health check error if any
func (p *provider) GetLastHealthCheckError() error {
	return p.lastHealthCheck
}

// validateAWSConfig validates AWS KMS configuration
func validateAWSConfig(awsConfig AWSConfig) error {
	if awsConfig.KeyID == "" {
		return fmt.Errorf("key ID (ARN) is required")
	}
	if awsConfig.Region == "" {
		return fmt.Errorf("region is required")
	}

	if awsConfig.Credentials != nil {
		_, hasAccessKey := awsConfig.Credentials["accessKeyId"].(string)
		_, hasSecretKey := awsConfig.Credentials["secretAccessKey"].(string)
		if (hasAccessKey && !hasSecretKey) || (!hasAccessKey && hasSecretKey) {
			return fmt.Errorf("both accessKeyId and secretAccessKey must be provided if using credentials")
		}
	} else {
		log.Info().Msg("AWS credentials not provided in config, assuming environment variables or default credentials")
	}

	return nil
}

// validateAzureConfig validates Azure Key Vault configuration
func validateAzureConfig(azureConfig AzureConfig) error {
	if azureConfig.KeyID == "" {
		return fmt.Errorf("key ID (URL) is required")
	}
	if !strings.HasPrefix(azureConfig.VaultAddress, "https://") || !strings.Contains(azureConfig.VaultAddress, ".vault.azure.net") {
		return fmt.Errorf("vault address must be a valid Azure Key Vault URL (e.g., https://myvault.vault.azure.net)")
	}

	if azureConfig.Credentials != nil {
		for _, field := range []string{"tenantId", "clientId", "clientSecret"} {
			if val, ok := azureConfig.Credentials[field].(string); !ok || val == "" {
				return fmt.Errorf("%s is required in credentials and cannot be empty", field)
			}
		}
	} else {
		log.Info().Msg("Azure credentials not provided, assuming alternative authentication method (e.g., Managed Identity)")
	}

	return nil
}

// validateGCPConfig validates GCP KMS configuration
func validateGCPConfig(gcpConfig GCPConfig) error {
	if gcpConfig.ResourceName == "" {
		return fmt.Errorf("resource name is required")
	}
	// projects/{project}/locations/{location}/keyRings/{keyRing}/cryptoKeys/{cryptoKey}
	parts := strings.Split(gcpConfig.ResourceName, "/")
	if len(parts) != 8 || parts[0] != "projects" || parts[2] != "locations" || parts[4] != "keyRings" || parts[6] != "cryptoKeys" {
		return fmt.Errorf("invalid resource name format. Expected: projects/{project}/locations/{location}/keyRings/{keyRing}/cryptoKeys/{cryptoKey}")
	}
	if parts[1] == "" || parts[3] == "" || parts[5] == "" || parts[7] == "" {
		return fmt.Errorf("project, location, keyRing, and cryptoKey components in resource name cannot be empty")
	}

	if gcpConfig.Credentials != nil {
		credsJSON, ok := gcpConfig.Credentials["credentialsJson"].(string)
		if !ok || credsJSON == "" {
			return fmt.Errorf("credentialsJson is required in credentials map and cannot be empty")
		}
	} else {
		log.Info().Msg("GCP credentials map not provided in config, assuming Application Default Credentials (ADC).")
	}

	return nil
}

// validateVaultConfig validates HashiCorp Vault configuration
func validateVaultConfig(vaultConfig VaultConfig) error {
	if vaultConfig.KeyID == "" {
		return fmt.Errorf("key ID (key name) is required")
	}
	if vaultConfig.VaultAddress == "" {
		return fmt.Errorf("vault address is required")
	}

	if vaultConfig.Credentials != nil {
		if token, ok := vaultConfig.Credentials["token"].(string); !ok || token == "" {
			return fmt.Errorf("token is required in credentials map and cannot be empty")
		}
	} else {
		log.Info().Msg("Vault token not provided in config, assuming VAULT_TOKEN environment variable or other auth method")
	}

	return nil
}

// createAWSWrapper creates an AWS KMS wrapper
func createAWSWrapper(awsConfig AWSConfig) (wrapping.Wrapper, error) {
	wrapper := awskms.NewWrapper()

	configMap := map[string]string{
		"kms_key_id": awsConfig.KeyID,
		"region":     awsConfig.Region,
	}

	if awsConfig.Credentials != nil {
		if accessKey, ok := awsConfig.Credentials["accessKeyId"].(string); ok && accessKey != "" {
			configMap["access_key"] = accessKey
		}
		if secretKey, ok := awsConfig.Credentials["secretAccessKey"].(string); ok && secretKey != "" {
			configMap["secret_key"] = secretKey
		}
		if sessionToken, ok := awsConfig.Credentials["sessionToken"].(string); ok && sessionToken != "" {
			configMap["session_token"] = sessionToken
		}
	}

	if _, err := wrapper.SetConfig(context.Background(), wrapping.WithConfigMap(configMap)); err != nil {
		return nil, fmt.Errorf("failed to configure AWS KMS wrapper: %w", err)
	}

	return wrapper, nil
}

// createAzureWrapper creates an Azure Key Vault wrapper
func createAzureWrapper(azureConfig AzureConfig) (wrapping.Wrapper, error) {
	wrapper := azurekeyvault.NewWrapper()

	// Example KeyID URL: https://myvault.vault.azure.net/keys/mykey/version
	keyName := azureConfig.KeyID
	keyVersion := ""
	parts := strings.Split(azureConfig.KeyID, "/")
	if len(parts) >= 5 && parts[3] == "keys" {
		keyName = parts[4]
		if len(parts) >= 6 {
			keyVersion = parts[5]
		}
	} else {
		log.Warn().Str("keyId", azureConfig.KeyID).Msg("Azure KeyID does not look like a standard Key Identifier URL. Using the full value as key_name.")
	}

	vaultNameParts := strings.Split(strings.TrimPrefix(azureConfig.VaultAddress, "https://"), ".")
	if len(vaultNameParts) == 0 {
		return nil, fmt.Errorf("could not parse vault name from VaultAddress: %s", azureConfig.VaultAddress)
	}

	configMap := map[string]string{
		"key_name":   keyName,
		"vault_name": vaultNameParts[0],
		"vault_url":  azureConfig.VaultAddress,
	}
	if keyVersion != "" {
		configMap["key_version"] = keyVersion
	}

	if azureConfig.Credentials != nil {
		if tenantID, ok := azureConfig.Credentials["tenantId"].(string); ok {
			configMap["tenant_id"] = tenantID
		}
		if clientID, ok := azureConfig.Credentials["clientId"].(string); ok {
			configMap["client_id"] = clientID
		}
		if clientSecret, ok := azureConfig.Credentials["clientSecret"].(string); ok {
			configMap["client_secret"] = clientSecret
		}
	}

	if _, err := wrapper.SetConfig(context.Background(), wrapping.WithConfigMap(configMap)); err != nil {
		return nil, fmt.Errorf("failed to configure Azure Key Vault wrapper: %w", err)
	}

	return wrapper, nil
}

// createGCPWrapper creates a Google Cloud KMS wrapper
func createGCPWrapper(gcpConfig GCPConfig) (wrapping.Wrapper, error) {
	wrapper := gcpckms.NewWrapper()

	parts := strings.Split(gcpConfig.ResourceName, "/")
	if len(parts) != 8 {
		return nil, fmt.Errorf("internal error: invalid resource name format passed validation: %s", gcpConfig.ResourceName)
	}

	configMap := map[string]string{
		"project":    parts[1],
		"region":     parts[3],
		"key_ring":   parts[5],
		"crypto_key": parts[7],
	}

	// The library reads credentials from a file path, so inline JSON goes
	// through a temp file that is removed before returning.
	if gcpConfig.Credentials != nil {
		credsJSON, ok := gcpConfig.Credentials["credentialsJson"].(string)
		if !ok || credsJSON == "" {
			return nil, fmt.Errorf("internal error: invalid or missing credentialsJson in GCP config credentials")
		}

		tempFile, err := os.CreateTemp("", "gcp-creds-*.json")
		if err != nil {
			return nil, fmt.Errorf("failed to create temporary credentials file: %w", err)
		}
		defer func() {
			if errRemove := os.Remove(tempFile.Name()); errRemove != nil {
				log.Error().Err(errRemove).Str("filePath", tempFile.Name()).Msg("Failed to remove temporary credentials file")
			}
		}()

		if _, err := tempFile.Write([]byte(credsJSON)); err != nil {
			if closeErr := tempFile.Close(); closeErr != nil {
				log.Error().Err(closeErr).Str("filePath", tempFile.Name()).Msg("Failed to close temporary credentials file after write error")
			}
			return nil, fmt.Errorf("failed to write credentials to temporary file: %w", err)
		}
		if err := tempFile.Close(); err != nil {
			log.Error().Err(err).Str("filePath", tempFile.Name()).Msg("Failed to close temporary credentials file after successful write")
		}

		configMap["credentials"] = tempFile.Name()
	} else {
		log.Info().Msg("GCP credentials not provided in config, relying on Application Default Credentials (ADC).")
	}

	if _, err := wrapper.SetConfig(context.Background(), wrapping.WithConfigMap(configMap)); err != nil {
		return nil, fmt.Errorf("failed to configure GCP KMS wrapper: %w", err)
	}

	return wrapper, nil
}

// createVaultWrapper creates a HashiCorp Vault Transit wrapper
func createVaultWrapper(vaultConfig VaultConfig) (wrapping.Wrapper, error) {
	wrapper := transit.NewWrapper()

	configMap := map[string]string{
		"address":  vaultConfig.VaultAddress,
		"key_name": vaultConfig.KeyID,
	}
	if vaultConfig.VaultMount != "" {
		configMap["mount_path"] = vaultConfig.VaultMount
	}

	if vaultConfig.Credentials != nil {
		if token, ok := vaultConfig.Credentials["token"].(string); ok && token != "" {
			configMap["token"] = token
		} else if !ok {
			return nil, fmt.Errorf("invalid or missing token in Vault config credentials")
		}
	}

	if _, err := wrapper.SetConfig(context.Background(), wrapping.WithConfigMap(configMap)); err != nil {
		return nil, fmt.Errorf("failed to configure Vault Transit wrapper: %w", err)
	}

	return wrapper, nil
}

// createLocalWrapper creates an AEAD wrapper keyed by a locally held key, for
// deployments that keep the wrapped pepper under a local master key instead
// of a cloud KMS.
func createLocalWrapper(ctx context.Context, config Config) (wrapping.Wrapper, error) {
	if config.LocalKeyBase64 == "" {
		return nil, fmt.Errorf("local provider requires LocalKeyBase64")
	}

	decodedKey, err := base64.StdEncoding.DecodeString(config.LocalKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode LocalKeyBase64: %w", err)
	}
	if len(decodedKey) != 32 {
		return nil, fmt.Errorf("decoded local key must be 32 bytes for AES-256-GCM, got %d", len(decodedKey))
	}

	aeadWrapper := kmsaead.NewWrapper()
	opts := []wrapping.Option{kmsaead.WithKey(decodedKey)}
	if config.LocalKeyID != "" {
		opts = append(opts, wrapping.WithKeyId(config.LocalKeyID))
	}

	if _, err := aeadWrapper.SetConfig(ctx, opts...); err != nil {
		return nil, fmt.Errorf("failed to configure AEAD wrapper: %w", err)
	}

	return aeadWrapper, nil
}
