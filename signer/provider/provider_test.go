package provider

import (
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderTypeIsValid(t *testing.T) {
	assert.True(t, KeyProviderAWS.IsValid())
	assert.True(t, KeyProviderGCP.IsValid())
	assert.True(t, KeyProviderLocal.IsValid())
	assert.False(t, ProviderType("AZURE").IsValid())
	assert.False(t, ProviderType("").IsValid())
}

func TestGetAllProviderTypesString(t *testing.T) {
	assert.Equal(t, "'AWS', 'GCP' or 'LOCAL'", GetAllProviderTypesString())
}

func TestNewSignatureProviderUnsupportedType(t *testing.T) {
	_, err := NewSignatureProvider(log.Root(), "AZURE", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider type")
}

func TestKeyConfigResolvePassword(t *testing.T) {
	t.Setenv("SSLIB_TEST_KEY_PW", "from env")

	tests := []struct {
		testName string
		password string
		want     string
		wantErr  bool
	}{
		{"plain", "hunter2", "hunter2", false},
		{"empty", "", "", false},
		{"env", "$SSLIB_TEST_KEY_PW", "from env", false},
		{"env missing", "$SSLIB_TEST_UNSET_PW", "", true},
		{"escaped dollar", `\$literal`, "$literal", false},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			got, err := KeyConfig{Name: "k", Password: tt.password}.ResolvePassword()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
