package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	optls "github.com/ethereum-optimism/optimism/op-service/tls"

	"github.com/secure-systems-lab/go-securesystemslib/keys"
	"github.com/secure-systems-lab/go-securesystemslib/signer/service"
)

// SignerClient talks to a remote signer over mutually authenticated TLS.
// The DNS SAN of the client certificate decides which keys the remote
// signer will let this client use.
type SignerClient struct {
	client *rpc.Client
	status string
	logger log.Logger
}

func NewSignerClient(logger log.Logger, endpoint string, tlsConfig optls.CLIConfig) (*SignerClient, error) {
	caCert, err := os.ReadFile(tlsConfig.TLSCaCert)
	if err != nil {
		return nil, fmt.Errorf("failed to read tls.ca: %w", err)
	}
	caCertPool := x509.NewCertPool()
	caCertPool.AppendCertsFromPEM(caCert)

	cert, err := tls.LoadX509KeyPair(tlsConfig.TLSCert, tlsConfig.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read tls.cert or tls.key: %w", err)
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs:      caCertPool,
				Certificates: []tls.Certificate{cert},
			},
		},
	}

	rpcClient, err := rpc.DialOptions(context.Background(), endpoint, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	signerClient := &SignerClient{logger: logger, client: rpcClient}
	// Check if reachable
	version, err := signerClient.pingVersion()
	if err != nil {
		return nil, err
	}
	signerClient.status = fmt.Sprintf("ok [version=%v]", version)
	return signerClient, nil
}

func (s *SignerClient) pingVersion() (string, error) {
	var v string
	if err := s.client.Call(&v, "health_status"); err != nil {
		return "", err
	}
	return v, nil
}

func (s *SignerClient) Status() string {
	return s.status
}

func (s *SignerClient) Close() {
	s.client.Close()
}

// Sign requests a signature over data with the named key.
func (s *SignerClient) Sign(ctx context.Context, keyName string, data []byte) (*keys.Signature, error) {
	var result keys.Signature
	args := service.SignArgs{KeyName: keyName, Data: data}
	if err := s.client.CallContext(ctx, &result, "sslib_sign", args); err != nil {
		return nil, fmt.Errorf("sslib_sign failed: %w", err)
	}
	return &result, nil
}

// PublicKey fetches the public half of the named key.
func (s *SignerClient) PublicKey(ctx context.Context, keyName string) (*keys.Key, error) {
	var result keys.Key
	if err := s.client.CallContext(ctx, &result, "sslib_publicKey", keyName); err != nil {
		return nil, fmt.Errorf("sslib_publicKey failed: %w", err)
	}
	return &result, nil
}

// ListKeys returns the key names this client is authorized to use.
func (s *SignerClient) ListKeys(ctx context.Context) ([]string, error) {
	var result []string
	if err := s.client.CallContext(ctx, &result, "sslib_listKeys"); err != nil {
		return nil, fmt.Errorf("sslib_listKeys failed: %w", err)
	}
	return result, nil
}
