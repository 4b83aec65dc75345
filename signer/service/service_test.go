package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	securesystemslib "github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/keys"
	"github.com/secure-systems-lab/go-securesystemslib/signer/provider"
)

var config = SignerServiceConfig{
	Auth: []AuthConfig{
		{ClientName: "ci.example.com", KeyNames: []string{"release"}},
		{ClientName: "dev.example.com", KeyNames: []string{"staging", "release"}},
	},
}

func clientContext(clientName string) context.Context {
	return context.WithValue(context.TODO(), clientInfoContextKey{}, ClientInfo{ClientName: clientName})
}

func assertErrCode(t *testing.T, err error, wantErrCode int) {
	t.Helper()
	var rpcErr rpc.Error
	var httpErr rpc.HTTPError
	if errors.As(err, &rpcErr) {
		assert.Equal(t, wantErrCode, rpcErr.ErrorCode())
	} else if errors.As(err, &httpErr) {
		assert.Equal(t, wantErrCode, httpErr.StatusCode)
	} else {
		assert.Fail(t, "returned error is not an rpc.Error or rpc.HTTPError")
	}
}

func TestSign(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	data := []byte("payload to sign")
	signature := &keys.Signature{KeyID: "1e39f6a12e39e2a0b22f1a3e2a97a7b1", Sig: "a0b1c2d3"}
	unknownKeyErr := fmt.Errorf("%w: no key named 'staging' is configured", securesystemslib.ErrUnknownKey)

	tests := []struct {
		testName    string
		keyName     string
		clientName  string
		mockErr     error
		wantErrCode int
	}{
		{"happy path", "release", "ci.example.com", nil, 0},
		{"happy path - shared key different client", "release", "dev.example.com", nil, 0},
		{"key name not specified", "", "ci.example.com", nil, -32010},
		{"key not authorized for client", "staging", "ci.example.com", nil, -32011},
		{"key unknown to provider", "staging", "dev.example.com", unknownKeyErr, -32012},
		{"provider failure", "release", "ci.example.com", errors.New("kms unavailable"), -32013},
		{"client not authorized", "release", "forbidden.example.com", nil, 403},
		{"client empty", "release", "", nil, 403},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			mockSignatureProvider := provider.NewMockSignatureProvider(ctrl)
			service := NewSignerServiceWithProvider(log.Root(), config, mockSignatureProvider)

			ctx := clientContext(tt.clientName)
			if tt.wantErrCode == 0 {
				mockSignatureProvider.EXPECT().
					Sign(ctx, tt.keyName, data).
					Return(signature, nil)
			} else if tt.mockErr != nil {
				mockSignatureProvider.EXPECT().
					Sign(ctx, tt.keyName, data).
					Return(nil, tt.mockErr)
			}
			resp, err := service.sslib.Sign(ctx, SignArgs{KeyName: tt.keyName, Data: data})
			if tt.wantErrCode == 0 {
				assert.Nil(t, err)
				if assert.NotNil(t, resp) {
					assert.Equal(t, signature, resp)
				}
			} else {
				assert.NotNil(t, err)
				assert.Nil(t, resp)
				assertErrCode(t, err, tt.wantErrCode)
			}
		})
	}
}

func TestPublicKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publicKey := &keys.Key{
		Type:                keys.KeyTypeEd25519,
		Scheme:              keys.SchemeEd25519,
		KeyIDHashAlgorithms: keys.DefaultKeyIDHashAlgorithms,
		KeyID:               "5d7f2e3a0b22f1a3e2a97a7b11e39f6a",
		KeyVal:              keys.KeyVal{Public: "deadbeef"},
	}

	tests := []struct {
		testName    string
		keyName     string
		clientName  string
		mockErr     error
		wantErrCode int
	}{
		{"happy path", "release", "ci.example.com", nil, 0},
		{"key name not specified", "", "ci.example.com", nil, -32010},
		{"key not authorized for client", "staging", "ci.example.com", nil, -32011},
		{"provider failure", "release", "ci.example.com", errors.New("kms unavailable"), -32013},
		{"client not authorized", "release", "forbidden.example.com", nil, 403},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			mockSignatureProvider := provider.NewMockSignatureProvider(ctrl)
			service := NewSignerServiceWithProvider(log.Root(), config, mockSignatureProvider)

			ctx := clientContext(tt.clientName)
			if tt.wantErrCode == 0 {
				mockSignatureProvider.EXPECT().
					PublicKey(ctx, tt.keyName).
					Return(publicKey, nil)
			} else if tt.mockErr != nil {
				mockSignatureProvider.EXPECT().
					PublicKey(ctx, tt.keyName).
					Return(nil, tt.mockErr)
			}
			resp, err := service.sslib.PublicKey(ctx, tt.keyName)
			if tt.wantErrCode == 0 {
				assert.Nil(t, err)
				if assert.NotNil(t, resp) {
					assert.Equal(t, publicKey, resp)
					assert.Empty(t, resp.KeyVal.Private)
				}
			} else {
				assert.NotNil(t, err)
				assert.Nil(t, resp)
				assertErrCode(t, err, tt.wantErrCode)
			}
		})
	}
}

func TestListKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSignatureProvider := provider.NewMockSignatureProvider(ctrl)
	service := NewSignerServiceWithProvider(log.Root(), config, mockSignatureProvider)

	names, err := service.sslib.ListKeys(clientContext("dev.example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"release", "staging"}, names)

	names, err = service.sslib.ListKeys(clientContext("ci.example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"release"}, names)

	_, err = service.sslib.ListKeys(clientContext("forbidden.example.com"))
	require.Error(t, err)
	assertErrCode(t, err, 403)

	_, err = service.sslib.ListKeys(context.TODO())
	require.Error(t, err)
	assertErrCode(t, err, 403)
}

func TestSignConcurrencyLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSignatureProvider := provider.NewMockSignatureProvider(ctrl)
	limitedConfig := SignerServiceConfig{
		MaxConcurrentSignings: 1,
		Auth:                  []AuthConfig{{ClientName: "ci.example.com", KeyNames: []string{"release"}}},
	}
	service := NewSignerServiceWithProvider(log.Root(), limitedConfig, mockSignatureProvider)

	started := make(chan struct{})
	release := make(chan struct{})
	mockSignatureProvider.EXPECT().
		Sign(gomock.Any(), "release", gomock.Any()).
		DoAndReturn(func(ctx context.Context, keyName string, data []byte) (*keys.Signature, error) {
			close(started)
			<-release
			return &keys.Signature{KeyID: "id", Sig: "00"}, nil
		})

	ctx := clientContext("ci.example.com")
	done := make(chan error, 1)
	go func() {
		_, err := service.sslib.Sign(ctx, SignArgs{KeyName: "release", Data: []byte{1}})
		done <- err
	}()

	// Wait until the first signing holds the semaphore, then a canceled
	// request must fail instead of queueing.
	<-started
	canceledCtx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := service.sslib.Sign(canceledCtx, SignArgs{KeyName: "release", Data: []byte{2}})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-done)
}
