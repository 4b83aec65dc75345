//go:generate mockgen -destination=mock_provider.go -package=provider github.com/secure-systems-lab/go-securesystemslib/signer/provider SignatureProvider
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/keys"
)

// SignatureProvider signs data with named keys held either in local key
// files or in a cloud KMS. Keys are addressed by their configured name, not
// by keyid or backend resource.
type SignatureProvider interface {
	Sign(ctx context.Context, keyName string, data []byte) (*keys.Signature, error)
	PublicKey(ctx context.Context, keyName string) (*keys.Key, error)
}

// ProviderType represents the provider for the key management service.
type ProviderType string

const (
	KeyProviderAWS   ProviderType = "AWS"
	KeyProviderGCP   ProviderType = "GCP"
	KeyProviderLocal ProviderType = "LOCAL"
)

func GetAllProviderTypes() []ProviderType {
	return []ProviderType{KeyProviderAWS, KeyProviderGCP, KeyProviderLocal}
}

// GetAllProviderTypesString returns a string of all the provider types separated
// by commas and wrapped in single quotes. This is useful for logging the available
// provider types.
func GetAllProviderTypesString() string {
	types := GetAllProviderTypes()
	result := make([]string, len(types))
	for i, t := range types {
		result[i] = string(t)
	}
	if len(result) == 1 {
		return result[0]
	}
	return fmt.Sprintf("'%s' or '%s'", strings.Join(result[:len(result)-1], "', '"), result[len(result)-1])
}

// IsValid checks if the ProviderType value is valid
func (k ProviderType) IsValid() bool {
	return slices.Contains(GetAllProviderTypes(), k)
}

// KeyConfig names one signing key and locates its material.
type KeyConfig struct {
	// Name is the identifier clients address the key by in RPC requests.
	Name string `yaml:"name"`
	// Path of the private key file, LOCAL provider only.
	Path string `yaml:"path"`
	// Resource is the KMS key version resource name (GCP) or the key id
	// or ARN (AWS).
	Resource string `yaml:"resource"`
	// Password decrypts the private key file. A '$' prefix reads the
	// value from the named environment variable, a '\' prefix escapes a
	// literal leading '$'.
	Password string `yaml:"password"`
}

// ResolvePassword returns the configured password, following a $VAR
// indirection into the environment.
func (k KeyConfig) ResolvePassword() (string, error) {
	if strings.HasPrefix(k.Password, "$") {
		value := os.Getenv(strings.TrimPrefix(k.Password, "$"))
		if value == "" {
			return "", fmt.Errorf("password env var %s for key '%s' not found", k.Password, k.Name)
		}
		return value, nil
	}
	if strings.HasPrefix(k.Password, "\\") {
		return strings.TrimPrefix(k.Password, "\\"), nil
	}
	return k.Password, nil
}

// NewSignatureProvider creates a new SignatureProvider based on the provider type
func NewSignatureProvider(logger log.Logger, providerType ProviderType, keyConfigs []KeyConfig) (SignatureProvider, error) {
	switch providerType {
	case KeyProviderGCP:
		return NewGCPKMSSignatureProvider(logger, keyConfigs)
	case KeyProviderAWS:
		return NewAWSKMSSignatureProvider(logger, keyConfigs)
	case KeyProviderLocal:
		return NewLocalSignatureProvider(logger, keyConfigs)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

func resourceIndex(configs []KeyConfig) map[string]string {
	index := make(map[string]string, len(configs))
	for _, cfg := range configs {
		index[cfg.Name] = cfg.Resource
	}
	return index
}

func unknownKey(keyName string) error {
	return fmt.Errorf("%w: no key named '%s' is configured", securesystemslib.ErrUnknownKey, keyName)
}

// verifyReturnedSignature checks a KMS produced signature against the key's
// public half before it is handed to the caller.
func verifyReturnedSignature(key *keys.Key, signature *keys.Signature, data []byte) error {
	valid, err := keys.VerifySignature(key, signature, data)
	if err != nil {
		return err
	}
	if !valid {
		return errors.New("KMS signature does not verify under the key's public half")
	}
	return nil
}
