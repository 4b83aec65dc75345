package service

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/secure-systems-lab/go-securesystemslib/signer/provider"
)

// AuthConfig lists the keys a single client may sign with and inspect.
type AuthConfig struct {
	// ClientName is the DNS SAN the client presents in its certificate.
	ClientName string `yaml:"name"`
	// KeyNames the client is authorized to use.
	KeyNames []string `yaml:"keys"`
}

func (a AuthConfig) Authorizes(keyName string) bool {
	return slices.Contains(a.KeyNames, keyName)
}

type SignerServiceConfig struct {
	ProviderType provider.ProviderType `yaml:"provider"`
	Keys         []provider.KeyConfig  `yaml:"keys"`
	Auth         []AuthConfig          `yaml:"auth"`
	// MaxConcurrentSignings bounds how many signing operations may run at
	// once. Zero means one per CPU.
	MaxConcurrentSignings int64 `yaml:"maxConcurrentSignings"`
}

func ReadConfig(path string) (SignerServiceConfig, error) {
	config := SignerServiceConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, err
	}

	// Default to LOCAL if provider is unset
	if config.ProviderType == "" {
		config.ProviderType = provider.KeyProviderLocal
	}
	if !config.ProviderType.IsValid() {
		providerTypesStr := provider.GetAllProviderTypesString()
		return config, fmt.Errorf("invalid provider '%s' in config. Must be %s", config.ProviderType, providerTypesStr)
	}
	if config.MaxConcurrentSignings < 0 {
		return config, fmt.Errorf("maxConcurrentSignings must not be negative, got %d", config.MaxConcurrentSignings)
	}

	keyNames := make(map[string]struct{}, len(config.Keys))
	for _, keyConfig := range config.Keys {
		if keyConfig.Name == "" {
			return config, errors.New("key with empty name in config")
		}
		if _, ok := keyNames[keyConfig.Name]; ok {
			return config, fmt.Errorf("duplicate key name '%s' in config", keyConfig.Name)
		}
		keyNames[keyConfig.Name] = struct{}{}

		if config.ProviderType == provider.KeyProviderLocal {
			if keyConfig.Path == "" {
				return config, fmt.Errorf("key '%s' needs a path for the %s provider", keyConfig.Name, config.ProviderType)
			}
		} else if keyConfig.Resource == "" {
			return config, fmt.Errorf("key '%s' needs a resource for the %s provider", keyConfig.Name, config.ProviderType)
		}
	}

	for _, authConfig := range config.Auth {
		if authConfig.ClientName == "" {
			return config, errors.New("auth entry with empty client name in config")
		}
		for _, keyName := range authConfig.KeyNames {
			if _, ok := keyNames[keyName]; !ok {
				return config, fmt.Errorf("auth for client '%s' references unknown key '%s'", authConfig.ClientName, keyName)
			}
		}
	}

	return config, nil
}

// GetAuthConfigForClient returns the first auth entry matching clientName.
func (s SignerServiceConfig) GetAuthConfigForClient(clientName string) (*AuthConfig, error) {
	if clientName == "" {
		return nil, errors.New("client name is empty")
	}
	for _, authConfig := range s.Auth {
		if authConfig.ClientName == clientName {
			return &authConfig, nil
		}
	}
	return nil, fmt.Errorf("client '%s' is not authorized to use any keys", clientName)
}

// MaxConcurrent resolves the signing concurrency bound.
func (s SignerServiceConfig) MaxConcurrent() int64 {
	if s.MaxConcurrentSignings > 0 {
		return s.MaxConcurrentSignings
	}
	return int64(runtime.NumCPU())
}
