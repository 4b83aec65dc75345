package service

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secure-systems-lab/go-securesystemslib/signer/provider"
)

func writeTestConfig(t *testing.T, configData string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	err = os.WriteFile(tmpFile.Name(), []byte(configData), 0644)
	require.NoError(t, err)
	return tmpFile.Name()
}

func TestReadConfig_DefaultKeyProvider(t *testing.T) {
	path := writeTestConfig(t, `
keys:
  - name: "release"
    path: "/etc/signer/release-key"
auth:
  - name: "ci.example.com"
    keys: ["release"]
`)
	config, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, provider.KeyProviderLocal, config.ProviderType)
}

func TestReadConfig_ExplicitKeyProvider(t *testing.T) {
	path := writeTestConfig(t, `
provider: "AWS"
keys:
  - name: "release"
    resource: "arn:aws:kms:us-east-1:123456789012:key/release"
auth:
  - name: "ci.example.com"
    keys: ["release"]
`)
	config, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, provider.KeyProviderAWS, config.ProviderType)
}

func TestReadConfig_InvalidKeyProvider(t *testing.T) {
	path := writeTestConfig(t, `
provider: "INVALID"
keys:
  - name: "release"
    path: "/etc/signer/release-key"
`)
	_, err := ReadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid provider")
}

func TestReadConfig_DuplicateKeyName(t *testing.T) {
	path := writeTestConfig(t, `
keys:
  - name: "release"
    path: "/etc/signer/release-key"
  - name: "release"
    path: "/etc/signer/other-key"
`)
	_, err := ReadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key name 'release'")
}

func TestReadConfig_LocalKeyNeedsPath(t *testing.T) {
	path := writeTestConfig(t, `
provider: "LOCAL"
keys:
  - name: "release"
    resource: "projects/p/locations/global/keyRings/r/cryptoKeys/k/cryptoKeyVersions/1"
`)
	_, err := ReadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "needs a path")
}

func TestReadConfig_KMSKeyNeedsResource(t *testing.T) {
	path := writeTestConfig(t, `
provider: "GCP"
keys:
  - name: "release"
    path: "/etc/signer/release-key"
`)
	_, err := ReadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "needs a resource")
}

func TestReadConfig_AuthReferencesUnknownKey(t *testing.T) {
	path := writeTestConfig(t, `
keys:
  - name: "release"
    path: "/etc/signer/release-key"
auth:
  - name: "ci.example.com"
    keys: ["staging"]
`)
	_, err := ReadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "references unknown key 'staging'")
}

func TestReadConfig_NegativeConcurrency(t *testing.T) {
	path := writeTestConfig(t, `
maxConcurrentSignings: -1
keys:
  - name: "release"
    path: "/etc/signer/release-key"
`)
	_, err := ReadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestGetAuthConfigForClient(t *testing.T) {
	config := SignerServiceConfig{
		Auth: []AuthConfig{
			{ClientName: "ci.example.com", KeyNames: []string{"release"}},
			{ClientName: "dev.example.com", KeyNames: []string{"staging", "release"}},
		},
	}

	authConfig, err := config.GetAuthConfigForClient("dev.example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"staging", "release"}, authConfig.KeyNames)
	assert.True(t, authConfig.Authorizes("staging"))
	assert.False(t, authConfig.Authorizes("prod"))

	_, err = config.GetAuthConfigForClient("unknown.example.com")
	assert.Error(t, err)

	_, err = config.GetAuthConfigForClient("")
	assert.Error(t, err)
}

func TestMaxConcurrentDefault(t *testing.T) {
	config := SignerServiceConfig{}
	assert.Equal(t, int64(runtime.NumCPU()), config.MaxConcurrent())

	config.MaxConcurrentSignings = 4
	assert.Equal(t, int64(4), config.MaxConcurrent())
}
