package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/secure-systems-lab/go-securesystemslib"
)

// GenerateEd25519Key generates an Ed25519 key pair. Key values are the
// lowercase hex of the 32 byte public key and the 32 byte private seed.
func GenerateEd25519Key() (*Key, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: generating Ed25519 key: %v", securesystemslib.ErrCrypto, err)
	}
	return newKey(KeyTypeEd25519, SchemeEd25519,
		hex.EncodeToString(public), hex.EncodeToString(private.Seed()))
}

func signEd25519(key *Key, data []byte) ([]byte, error) {
	if key.Scheme != SchemeEd25519 {
		return nil, fmt.Errorf("%w: Ed25519 scheme %q", securesystemslib.ErrUnsupportedAlgorithm, key.Scheme)
	}
	seed, err := hex.DecodeString(key.KeyVal.Private)
	if err != nil {
		return nil, fmt.Errorf("%w: Ed25519 private key is not hex: %v", securesystemslib.ErrFormat, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: Ed25519 seed is %d bytes, want %d",
			securesystemslib.ErrFormat, len(seed), ed25519.SeedSize)
	}
	return ed25519.Sign(ed25519.NewKeyFromSeed(seed), data), nil
}

func verifyEd25519(key *Key, sig, data []byte) (bool, error) {
	if key.Scheme != SchemeEd25519 {
		return false, fmt.Errorf("%w: Ed25519 scheme %q", securesystemslib.ErrUnsupportedAlgorithm, key.Scheme)
	}
	public, err := hex.DecodeString(key.KeyVal.Public)
	if err != nil {
		return false, fmt.Errorf("%w: Ed25519 public key is not hex: %v", securesystemslib.ErrFormat, err)
	}
	if len(public) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: Ed25519 public key is %d bytes, want %d",
			securesystemslib.ErrFormat, len(public), ed25519.PublicKeySize)
	}
	return ed25519.Verify(ed25519.PublicKey(public), data, sig), nil
}
