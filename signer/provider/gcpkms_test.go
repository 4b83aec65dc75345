package provider

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"testing"

	"cloud.google.com/go/kms/apiv1/kmspb"
	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ethereum/go-ethereum/log"

	"github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/keys"
)

const testKMSResource = "projects/p/locations/global/keyRings/ring/cryptoKeys/key/cryptoKeyVersions/1"

var testKeyConfigs = []KeyConfig{{Name: "release", Resource: testKMSResource}}

func testECDSAKeyPEM(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	require.NoError(t, err)
	return private, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func testRSAKeyPEM(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	private, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	require.NoError(t, err)
	return private, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func kmsPublicKeyResponse(pemData string, algorithm kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm) *kmspb.PublicKey {
	return &kmspb.PublicKey{
		Pem:       pemData,
		PemCrc32C: wrapperspb.Int64(int64(crc32c([]byte(pemData)))),
		Algorithm: algorithm,
	}
}

func TestGCPKMSSign(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	private, pemData := testECDSAKeyPEM(t)

	data := []byte("sign me")
	digest := sha256.Sum256(data)
	derSignature, err := ecdsa.SignASN1(rand.Reader, private, digest[:])
	require.NoError(t, err)

	var tests = []struct {
		testName                 string
		respName                 string
		respError                error
		respVerifiedDigestCrc32C bool
		respSignatureCrc32C      uint32
		wantErr                  bool
	}{
		{"happy path", testKMSResource, nil, true, crc32c(derSignature), false},
		{"req failure", testKMSResource, assert.AnError, true, crc32c(derSignature), true},
		{"resp name mismatch", "wrongResource", nil, true, crc32c(derSignature), true},
		{"invalid req crc32", testKMSResource, nil, false, crc32c(derSignature), true},
		{"invalid resp crc32", testKMSResource, nil, true, crc32c([]byte("")), true},
	}

	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			mockClient := NewMockGCPKMSClient(ctrl)
			provider := NewGCPKMSSignatureProviderWithClient(log.Root(), mockClient, testKeyConfigs)

			mockClient.EXPECT().
				GetPublicKey(gomock.Any(), &kmspb.GetPublicKeyRequest{Name: testKMSResource}).
				Return(kmsPublicKeyResponse(pemData, kmspb.CryptoKeyVersion_EC_SIGN_P256_SHA256), nil)

			signRequest, err := createSignRequest(testKMSResource, keys.SchemeECDSANISTP256, data)
			require.NoError(t, err)
			mockClient.EXPECT().AsymmetricSign(gomock.Any(), signRequest).Return(
				&kmspb.AsymmetricSignResponse{
					Name:                 tt.respName,
					Signature:            derSignature,
					VerifiedDigestCrc32C: tt.respVerifiedDigestCrc32C,
					SignatureCrc32C:      wrapperspb.Int64(int64(tt.respSignatureCrc32C)),
				},
				tt.respError,
			)

			signature, err := provider.Sign(context.TODO(), "release", data)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, hex.EncodeToString(derSignature), signature.Sig)

				publicKey, err := provider.PublicKey(context.TODO(), "release")
				require.NoError(t, err)
				assert.Equal(t, publicKey.KeyID, signature.KeyID)
				valid, err := keys.VerifySignature(publicKey, signature, data)
				require.NoError(t, err)
				assert.True(t, valid)
			} else {
				assert.Error(t, err)
				assert.Nil(t, signature)
			}
		})
	}
}

func TestGCPKMSSignRSAPSS(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	private, pemData := testRSAKeyPEM(t)

	data := []byte("sign me with pss")
	digest := sha256.Sum256(data)
	pssSignature, err := rsa.SignPSS(rand.Reader, private, crypto.SHA256, digest[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: crypto.SHA256})
	require.NoError(t, err)

	mockClient := NewMockGCPKMSClient(ctrl)
	provider := NewGCPKMSSignatureProviderWithClient(log.Root(), mockClient, testKeyConfigs)

	mockClient.EXPECT().
		GetPublicKey(gomock.Any(), &kmspb.GetPublicKeyRequest{Name: testKMSResource}).
		Return(kmsPublicKeyResponse(pemData, kmspb.CryptoKeyVersion_RSA_SIGN_PSS_2048_SHA256), nil)

	signRequest, err := createSignRequest(testKMSResource, keys.SchemeRSASSAPSSSHA256, data)
	require.NoError(t, err)
	mockClient.EXPECT().AsymmetricSign(gomock.Any(), signRequest).Return(
		&kmspb.AsymmetricSignResponse{
			Name:                 testKMSResource,
			Signature:            pssSignature,
			VerifiedDigestCrc32C: true,
			SignatureCrc32C:      wrapperspb.Int64(int64(crc32c(pssSignature))),
		},
		nil,
	)

	signature, err := provider.Sign(context.TODO(), "release", data)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(pssSignature), signature.Sig)

	publicKey, err := provider.PublicKey(context.TODO(), "release")
	require.NoError(t, err)
	assert.Equal(t, keys.KeyTypeRSA, publicKey.Type)
	assert.Equal(t, keys.SchemeRSASSAPSSSHA256, publicKey.Scheme)
	valid, err := keys.VerifySignature(publicKey, signature, data)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestGCPKMSPublicKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, pemData := testECDSAKeyPEM(t)

	var tests = []struct {
		testName     string
		respError    error
		respPemCrc32 uint32
		wantErr      bool
	}{
		{"happy path", nil, crc32c([]byte(pemData)), false},
		{"req failure", assert.AnError, crc32c([]byte(pemData)), true},
		{"invalid resp crc32", nil, crc32c([]byte("")), true},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			mockClient := NewMockGCPKMSClient(ctrl)
			provider := NewGCPKMSSignatureProviderWithClient(log.Root(), mockClient, testKeyConfigs)

			mockClient.EXPECT().
				GetPublicKey(gomock.Any(), &kmspb.GetPublicKeyRequest{Name: testKMSResource}).
				Return(&kmspb.PublicKey{
					Pem:       pemData,
					PemCrc32C: wrapperspb.Int64(int64(tt.respPemCrc32)),
					Algorithm: kmspb.CryptoKeyVersion_EC_SIGN_P256_SHA256,
				}, tt.respError)

			publicKey, err := provider.PublicKey(context.TODO(), "release")
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, keys.KeyTypeECDSA, publicKey.Type)
				assert.Equal(t, keys.SchemeECDSANISTP256, publicKey.Scheme)
				assert.Regexp(t, "^[0-9a-f]{64}$", publicKey.KeyID)
				assert.Empty(t, publicKey.KeyVal.Private)
			} else {
				assert.Error(t, err)
				assert.Nil(t, publicKey)
			}
		})
	}
}

func TestGCPKMSPublicKeyCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, pemData := testECDSAKeyPEM(t)

	mockClient := NewMockGCPKMSClient(ctrl)
	provider := NewGCPKMSSignatureProviderWithClient(log.Root(), mockClient, testKeyConfigs)

	mockClient.EXPECT().
		GetPublicKey(gomock.Any(), &kmspb.GetPublicKeyRequest{Name: testKMSResource}).
		Return(kmsPublicKeyResponse(pemData, kmspb.CryptoKeyVersion_EC_SIGN_P256_SHA256), nil).
		Times(1)

	first, err := provider.PublicKey(context.TODO(), "release")
	require.NoError(t, err)
	second, err := provider.PublicKey(context.TODO(), "release")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGCPKMSUnsupportedAlgorithm(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, pemData := testECDSAKeyPEM(t)

	mockClient := NewMockGCPKMSClient(ctrl)
	provider := NewGCPKMSSignatureProviderWithClient(log.Root(), mockClient, testKeyConfigs)

	mockClient.EXPECT().
		GetPublicKey(gomock.Any(), &kmspb.GetPublicKeyRequest{Name: testKMSResource}).
		Return(kmsPublicKeyResponse(pemData, kmspb.CryptoKeyVersion_EC_SIGN_SECP256K1_SHA256), nil)

	_, err := provider.Sign(context.TODO(), "release", []byte("data"))
	assert.ErrorIs(t, err, securesystemslib.ErrUnsupportedAlgorithm)
}

func TestGCPKMSUnknownKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockGCPKMSClient(ctrl)
	provider := NewGCPKMSSignatureProviderWithClient(log.Root(), mockClient, testKeyConfigs)

	_, err := provider.Sign(context.TODO(), "nope", []byte("data"))
	assert.ErrorIs(t, err, securesystemslib.ErrUnknownKey)
	_, err = provider.PublicKey(context.TODO(), "nope")
	assert.ErrorIs(t, err, securesystemslib.ErrUnknownKey)
}

func TestCreateSignRequestDigests(t *testing.T) {
	data := []byte("digest me")

	request, err := createSignRequest(testKMSResource, keys.SchemeRSASSAPSSSHA256, data)
	require.NoError(t, err)
	sum256 := sha256.Sum256(data)
	assert.Equal(t, sum256[:], request.Digest.GetSha256())
	assert.Equal(t, int64(crc32c(sum256[:])), request.DigestCrc32C.Value)

	request, err = createSignRequest(testKMSResource, keys.SchemeRSASSAPSSSHA512, data)
	require.NoError(t, err)
	sum512 := sha512.Sum512(data)
	assert.Equal(t, sum512[:], request.Digest.GetSha512())

	_, err = createSignRequest(testKMSResource, keys.SchemeEd25519, data)
	assert.ErrorIs(t, err, securesystemslib.ErrUnsupportedAlgorithm)
}
