package provider

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/secure-systems-lab/go-securesystemslib/keyfile"
	"github.com/secure-systems-lab/go-securesystemslib/keys"
)

// LocalSignatureProvider signs with private key files loaded through the
// keyfile store. Every configured key is read and decrypted at construction,
// so a bad path or password fails startup instead of the first request.
type LocalSignatureProvider struct {
	logger log.Logger
	loaded map[string]*keys.Key
}

func NewLocalSignatureProvider(logger log.Logger, configs []KeyConfig) (SignatureProvider, error) {
	return NewLocalSignatureProviderWithStore(logger, keyfile.NewFilesystemStore(), configs)
}

func NewLocalSignatureProviderWithStore(logger log.Logger, store *keyfile.Store, configs []KeyConfig) (SignatureProvider, error) {
	loaded := make(map[string]*keys.Key, len(configs))
	for _, cfg := range configs {
		password, err := cfg.ResolvePassword()
		if err != nil {
			return nil, err
		}
		key, err := store.ImportPrivateKey(cfg.Path, password)
		if err != nil {
			return nil, fmt.Errorf("failed to load key '%s' from %s: %w", cfg.Name, cfg.Path, err)
		}
		logger.Info("loaded signing key", "name", cfg.Name, "keytype", key.Type, "keyid", key.KeyID)
		loaded[cfg.Name] = key
	}
	return &LocalSignatureProvider{logger: logger, loaded: loaded}, nil
}

// Sign signs data with the named key under the scheme recorded on it.
func (p *LocalSignatureProvider) Sign(ctx context.Context, keyName string, data []byte) (*keys.Signature, error) {
	key, ok := p.loaded[keyName]
	if !ok {
		return nil, unknownKey(keyName)
	}
	return keys.CreateSignature(key, data)
}

// PublicKey returns the public half of the named key.
func (p *LocalSignatureProvider) PublicKey(ctx context.Context, keyName string) (*keys.Key, error) {
	key, ok := p.loaded[keyName]
	if !ok {
		return nil, unknownKey(keyName)
	}
	return key.Public(), nil
}
