package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	oprpc "github.com/ethereum-optimism/optimism/op-service/rpc"

	securesystemslib "github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/keys"
	"github.com/secure-systems-lab/go-securesystemslib/signer/provider"
)

// SignArgs are the parameters of sslib_sign. Data carries the raw bytes to
// be signed, hex encoded with a 0x prefix on the wire.
type SignArgs struct {
	KeyName string        `json:"keyName"`
	Data    hexutil.Bytes `json:"data"`
}

func (a SignArgs) Check() error {
	if a.KeyName == "" {
		return errors.New("keyName is not specified")
	}
	return nil
}

type SignerService struct {
	sslib *SslibService
}

// SslibService implements the sslib_ RPC namespace.
type SslibService struct {
	logger   log.Logger
	config   SignerServiceConfig
	provider provider.SignatureProvider
	signings *semaphore.Weighted
}

func NewSignerService(logger log.Logger, config SignerServiceConfig) (*SignerService, error) {
	signatureProvider, err := provider.NewSignatureProvider(logger, config.ProviderType, config.Keys)
	if err != nil {
		return nil, err
	}
	return NewSignerServiceWithProvider(logger, config, signatureProvider), nil
}

func NewSignerServiceWithProvider(
	logger log.Logger,
	config SignerServiceConfig,
	signatureProvider provider.SignatureProvider,
) *SignerService {
	sslibService := SslibService{logger, config, signatureProvider, semaphore.NewWeighted(config.MaxConcurrent())}
	return &SignerService{&sslibService}
}

func (s *SignerService) RegisterAPIs(server *oprpc.Server) {
	server.AddAPI(rpc.API{
		Namespace: "sslib",
		Service:   s.sslib,
	})
}

// Sign signs the given data with the named key and returns the signature.
func (s *SslibService) Sign(ctx context.Context, args SignArgs) (*keys.Signature, error) {
	clientInfo := ClientInfoFromContext(ctx)
	authConfig, err := s.config.GetAuthConfigForClient(clientInfo.ClientName)
	if err != nil {
		return nil, rpc.HTTPError{StatusCode: http.StatusForbidden, Status: "Forbidden", Body: []byte(err.Error())}
	}

	labels := prometheus.Labels{"client": clientInfo.ClientName, "key": args.KeyName, "status": "error", "error": ""}
	defer func() {
		MetricSignTotal.With(labels).Inc()
	}()

	if err := args.Check(); err != nil {
		s.logger.Warn("invalid signing arguments", "err", err)
		labels["error"] = "invalid_request"
		return nil, &InvalidRequestError{message: err.Error()}
	}

	if !authConfig.Authorizes(args.KeyName) {
		labels["error"] = "unauthorized_key"
		return nil, &UnauthorizedKeyError{message: fmt.Sprintf("client '%s' is not authorized to use key '%s'", clientInfo.ClientName, args.KeyName)}
	}

	if err := s.signings.Acquire(ctx, 1); err != nil {
		labels["error"] = "canceled"
		return nil, err
	}
	defer s.signings.Release(1)

	signature, err := s.provider.Sign(ctx, args.KeyName, args.Data)
	if err != nil {
		if errors.Is(err, securesystemslib.ErrUnknownKey) {
			labels["error"] = "unknown_key"
			return nil, &UnknownKeyError{message: err.Error()}
		}
		labels["error"] = "sign_failed"
		return nil, &ProviderError{message: err.Error()}
	}

	labels["status"] = "success"

	s.logger.Info(
		"Signed data",
		"client.name", clientInfo.ClientName,
		"key.name", args.KeyName,
		"keyid", signature.KeyID,
		"data.bytes", len(args.Data),
		"signature", signature.Sig,
	)

	return signature, nil
}

// PublicKey returns the public half of the named key.
func (s *SslibService) PublicKey(ctx context.Context, keyName string) (*keys.Key, error) {
	clientInfo := ClientInfoFromContext(ctx)
	authConfig, err := s.config.GetAuthConfigForClient(clientInfo.ClientName)
	if err != nil {
		return nil, rpc.HTTPError{StatusCode: http.StatusForbidden, Status: "Forbidden", Body: []byte(err.Error())}
	}

	labels := prometheus.Labels{"client": clientInfo.ClientName, "key": keyName, "status": "error"}
	defer func() {
		MetricPublicKeyTotal.With(labels).Inc()
	}()

	if keyName == "" {
		return nil, &InvalidRequestError{message: "keyName is not specified"}
	}

	if !authConfig.Authorizes(keyName) {
		return nil, &UnauthorizedKeyError{message: fmt.Sprintf("client '%s' is not authorized to use key '%s'", clientInfo.ClientName, keyName)}
	}

	key, err := s.provider.PublicKey(ctx, keyName)
	if err != nil {
		if errors.Is(err, securesystemslib.ErrUnknownKey) {
			return nil, &UnknownKeyError{message: err.Error()}
		}
		return nil, &ProviderError{message: err.Error()}
	}

	labels["status"] = "success"
	return key, nil
}

// ListKeys returns the names of the keys the calling client may use.
func (s *SslibService) ListKeys(ctx context.Context) ([]string, error) {
	clientInfo := ClientInfoFromContext(ctx)
	authConfig, err := s.config.GetAuthConfigForClient(clientInfo.ClientName)
	if err != nil {
		return nil, rpc.HTTPError{StatusCode: http.StatusForbidden, Status: "Forbidden", Body: []byte(err.Error())}
	}

	names := append([]string{}, authConfig.KeyNames...)
	slices.Sort(names)
	return names, nil
}
