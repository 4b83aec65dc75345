package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"

	"github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/keys"
)

// AWSKMSClient is the minimal interface for the AWS KMS client required by the
// AWSKMSSignatureProvider. These functions are already implemented by the AWS
// SDK, but we define our own type to allow us to mock the client in tests.
type AWSKMSClient interface {
	// https://pkg.go.dev/github.com/aws/aws-sdk-go-v2/service/kms#Client.Sign
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	// https://pkg.go.dev/github.com/aws/aws-sdk-go-v2/service/kms#Client.GetPublicKey
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

type AWSKMSSignatureProvider struct {
	logger    log.Logger
	client    AWSKMSClient
	resources map[string]string
	pubkeys   *lru.Cache
}

// awsKMSKey pairs the imported public key with the signing algorithm its
// key spec supports.
type awsKMSKey struct {
	key       *keys.Key
	algorithm types.SigningAlgorithmSpec
}

func NewAWSKMSSignatureProvider(logger log.Logger, configs []KeyConfig) (SignatureProvider, error) {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewAWSKMSSignatureProviderWithClient(logger, kms.NewFromConfig(cfg), configs), nil
}

func NewAWSKMSSignatureProviderWithClient(logger log.Logger, client AWSKMSClient, configs []KeyConfig) SignatureProvider {
	cache, _ := lru.New(pubkeyCacheSize)
	return &AWSKMSSignatureProvider{
		logger:    logger,
		client:    client,
		resources: resourceIndex(configs),
		pubkeys:   cache,
	}
}

// awsKeyScheme maps an AWS KMS key spec to a signature scheme and signing
// algorithm. Ed25519 stays with the LOCAL provider, AWS KMS has no
// equivalent key spec.
func awsKeyScheme(spec types.KeySpec) (string, types.SigningAlgorithmSpec, error) {
	switch spec {
	case types.KeySpecEccNistP256:
		return keys.SchemeECDSANISTP256, types.SigningAlgorithmSpecEcdsaSha256, nil
	case types.KeySpecRsa2048, types.KeySpecRsa3072, types.KeySpecRsa4096:
		return keys.SchemeRSASSAPSSSHA256, types.SigningAlgorithmSpecRsassaPssSha256, nil
	default:
		return "", "", fmt.Errorf("%w: AWS KMS key spec %s has no supported signature scheme",
			securesystemslib.ErrUnsupportedAlgorithm, spec)
	}
}

// Sign signs data with the named KMS key. The signature is verified against
// the key's public half before it is returned.
func (a *AWSKMSSignatureProvider) Sign(ctx context.Context, keyName string, data []byte) (*keys.Signature, error) {
	resource, ok := a.resources[keyName]
	if !ok {
		return nil, unknownKey(keyName)
	}

	kmsKey, err := a.fetchPublicKey(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	digest := sha256.Sum256(data)
	signInput := &kms.SignInput{
		KeyId:            &resource,
		Message:          digest[:],
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: kmsKey.algorithm,
	}

	result, err := a.client.Sign(ctx, signInput)
	if err != nil {
		return nil, fmt.Errorf("aws kms sign request failed: %w", err)
	}

	a.logger.Debug(fmt.Sprintf("kms signature: %x", result.Signature))

	signature := &keys.Signature{KeyID: kmsKey.key.KeyID, Sig: hex.EncodeToString(result.Signature)}
	if err := verifyReturnedSignature(kmsKey.key, signature, data); err != nil {
		return nil, err
	}
	return signature, nil
}

// PublicKey returns the named KMS key's public half as key metadata.
func (a *AWSKMSSignatureProvider) PublicKey(ctx context.Context, keyName string) (*keys.Key, error) {
	resource, ok := a.resources[keyName]
	if !ok {
		return nil, unknownKey(keyName)
	}
	kmsKey, err := a.fetchPublicKey(ctx, resource)
	if err != nil {
		return nil, err
	}
	return kmsKey.key.Public(), nil
}

func (a *AWSKMSSignatureProvider) fetchPublicKey(ctx context.Context, resource string) (*awsKMSKey, error) {
	if cached, ok := a.pubkeys.Get(resource); ok {
		return cached.(*awsKMSKey), nil
	}

	result, err := a.client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: &resource})
	if err != nil {
		return nil, fmt.Errorf("aws kms get public key request failed: %w", err)
	}

	scheme, algorithm, err := awsKeyScheme(result.KeySpec)
	if err != nil {
		return nil, err
	}

	// AWS KMS returns the public key in DER format
	pemData := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: result.PublicKey}))

	var key *keys.Key
	if scheme == keys.SchemeECDSANISTP256 {
		key, err = keys.ImportECDSAPublicPEM(pemData)
	} else {
		key, err = keys.ImportRSAPublicPEM(pemData, scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to import KMS public key: %w", err)
	}

	kmsKey := &awsKMSKey{key: key, algorithm: algorithm}
	a.pubkeys.Add(resource, kmsKey)
	return kmsKey, nil
}
