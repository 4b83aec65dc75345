//go:generate mockgen -destination=mock_kms.go -package=provider github.com/secure-systems-lab/go-securesystemslib/signer/provider GCPKMSClient
package provider

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/ethereum/go-ethereum/log"
	gax "github.com/googleapis/gax-go"
	lru "github.com/hashicorp/golang-lru"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/keys"
)

type GCPKMSClient interface {
	GetPublicKey(ctx context.Context, req *kmspb.GetPublicKeyRequest, opts ...gax.CallOption) (*kmspb.PublicKey, error)
	AsymmetricSign(context context.Context, req *kmspb.AsymmetricSignRequest, opts ...gax.CallOption) (*kmspb.AsymmetricSignResponse, error)
}

// pubkeyCacheSize bounds the per provider public key cache. KMS resources
// are fixed at startup so the cache only ever holds one entry per key.
const pubkeyCacheSize = 64

type GCPKMSSignatureProvider struct {
	logger    log.Logger
	client    GCPKMSClient
	resources map[string]string
	pubkeys   *lru.Cache
}

func NewGCPKMSSignatureProvider(logger log.Logger, configs []KeyConfig) (SignatureProvider, error) {
	ctx := context.Background()
	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCP KMS client: %w", err)
	}
	return NewGCPKMSSignatureProviderWithClient(logger, client, configs), nil
}

func NewGCPKMSSignatureProviderWithClient(logger log.Logger, client GCPKMSClient, configs []KeyConfig) SignatureProvider {
	cache, _ := lru.New(pubkeyCacheSize)
	return &GCPKMSSignatureProvider{
		logger:    logger,
		client:    client,
		resources: resourceIndex(configs),
		pubkeys:   cache,
	}
}

func crc32c(data []byte) uint32 {
	t := crc32.MakeTable(crc32.Castagnoli)
	return crc32.Checksum(data, t)
}

// gcpKeyScheme maps a KMS key algorithm to the signature scheme its output
// verifies under. Ed25519 never appears here, GCP KMS does not offer it, so
// Ed25519 keys stay with the LOCAL provider.
func gcpKeyScheme(algorithm kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm) (string, error) {
	switch algorithm {
	case kmspb.CryptoKeyVersion_RSA_SIGN_PSS_2048_SHA256,
		kmspb.CryptoKeyVersion_RSA_SIGN_PSS_3072_SHA256,
		kmspb.CryptoKeyVersion_RSA_SIGN_PSS_4096_SHA256:
		return keys.SchemeRSASSAPSSSHA256, nil
	case kmspb.CryptoKeyVersion_RSA_SIGN_PSS_4096_SHA512:
		return keys.SchemeRSASSAPSSSHA512, nil
	case kmspb.CryptoKeyVersion_EC_SIGN_P256_SHA256:
		return keys.SchemeECDSANISTP256, nil
	default:
		return "", fmt.Errorf("%w: GCP KMS algorithm %s has no supported signature scheme",
			securesystemslib.ErrUnsupportedAlgorithm, algorithm)
	}
}

// createSignRequest hashes data as the key's scheme demands and wraps the
// digest in a CRC32C checksummed sign request.
func createSignRequest(resource, scheme string, data []byte) (*kmspb.AsymmetricSignRequest, error) {
	switch scheme {
	case keys.SchemeRSASSAPSSSHA256, keys.SchemeECDSANISTP256:
		sum := sha256.Sum256(data)
		return &kmspb.AsymmetricSignRequest{
			Name:         resource,
			Digest:       &kmspb.Digest{Digest: &kmspb.Digest_Sha256{Sha256: sum[:]}},
			DigestCrc32C: wrapperspb.Int64(int64(crc32c(sum[:]))),
		}, nil
	case keys.SchemeRSASSAPSSSHA512:
		sum := sha512.Sum512(data)
		return &kmspb.AsymmetricSignRequest{
			Name:         resource,
			Digest:       &kmspb.Digest{Digest: &kmspb.Digest_Sha512{Sha512: sum[:]}},
			DigestCrc32C: wrapperspb.Int64(int64(crc32c(sum[:]))),
		}, nil
	default:
		return nil, fmt.Errorf("%w: scheme %s cannot be signed by GCP KMS",
			securesystemslib.ErrUnsupportedAlgorithm, scheme)
	}
}

// Sign signs data with the named KMS key. The signature is verified against
// the key's public half before it is returned.
func (c *GCPKMSSignatureProvider) Sign(ctx context.Context, keyName string, data []byte) (*keys.Signature, error) {
	resource, ok := c.resources[keyName]
	if !ok {
		return nil, unknownKey(keyName)
	}

	publicKey, err := c.fetchPublicKey(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	request, err := createSignRequest(resource, publicKey.Scheme, data)
	if err != nil {
		return nil, err
	}
	result, err := c.client.AsymmetricSign(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("GCP KMS sign request failed: %w", err)
	}
	if result.Name != request.Name {
		return nil, errors.New("GCP KMS sign request corrupted in transit")
	}
	if !result.VerifiedDigestCrc32C {
		return nil, errors.New("GCP KMS sign request corrupted in transit")
	}
	if int64(crc32c(result.Signature)) != result.SignatureCrc32C.Value {
		return nil, errors.New("GCP KMS sign response corrupted in transit")
	}

	c.logger.Debug(fmt.Sprintf("kms signature: %x", result.Signature))

	signature := &keys.Signature{KeyID: publicKey.KeyID, Sig: hex.EncodeToString(result.Signature)}
	if err := verifyReturnedSignature(publicKey, signature, data); err != nil {
		return nil, err
	}
	return signature, nil
}

// PublicKey returns the named KMS key's public half as key metadata.
func (c *GCPKMSSignatureProvider) PublicKey(ctx context.Context, keyName string) (*keys.Key, error) {
	resource, ok := c.resources[keyName]
	if !ok {
		return nil, unknownKey(keyName)
	}
	key, err := c.fetchPublicKey(ctx, resource)
	if err != nil {
		return nil, err
	}
	return key.Public(), nil
}

func (c *GCPKMSSignatureProvider) fetchPublicKey(ctx context.Context, resource string) (*keys.Key, error) {
	if cached, ok := c.pubkeys.Get(resource); ok {
		return cached.(*keys.Key), nil
	}

	result, err := c.client.GetPublicKey(ctx, &kmspb.GetPublicKeyRequest{Name: resource})
	if err != nil {
		return nil, fmt.Errorf("GCP KMS get public key request failed: %w", err)
	}
	if int64(crc32c([]byte(result.Pem))) != result.PemCrc32C.Value {
		return nil, errors.New("GCP KMS public key response corrupted in transit")
	}

	scheme, err := gcpKeyScheme(result.Algorithm)
	if err != nil {
		return nil, err
	}

	var key *keys.Key
	if scheme == keys.SchemeECDSANISTP256 {
		key, err = keys.ImportECDSAPublicPEM(result.Pem)
	} else {
		key, err = keys.ImportRSAPublicPEM(result.Pem, scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to import KMS public key: %w", err)
	}

	c.pubkeys.Add(resource, key)
	return key, nil
}
