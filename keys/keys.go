package keys

import (
	"encoding/hex"
	"fmt"

	"github.com/secure-systems-lab/go-securesystemslib"
)

// CreateSignature signs data with the key's private material under the key's
// scheme. The returned signature carries the key's keyid and the hex encoded
// raw signature: PSS for RSA, the 64 byte signature for Ed25519, ASN.1 DER
// for ECDSA.
func CreateSignature(key *Key, data []byte) (*Signature, error) {
	if !key.HasPrivate() {
		return nil, fmt.Errorf("%w: private key value is unset", securesystemslib.ErrCrypto)
	}

	var (
		raw []byte
		err error
	)
	switch key.Type {
	case KeyTypeRSA:
		raw, err = signRSA(key, data)
	case KeyTypeEd25519:
		raw, err = signEd25519(key, data)
	case KeyTypeECDSA:
		raw, err = signECDSA(key, data)
	default:
		return nil, fmt.Errorf("%w: key type %q", securesystemslib.ErrUnsupportedAlgorithm, key.Type)
	}
	if err != nil {
		return nil, err
	}

	return &Signature{KeyID: key.KeyID, Sig: hex.EncodeToString(raw)}, nil
}

// VerifySignature checks sig against data under the key's public material.
// A well formed signature that simply does not match returns (false, nil);
// errors are reserved for malformed input and unsupported algorithms.
func VerifySignature(key *Key, sig *Signature, data []byte) (bool, error) {
	raw, err := sig.Bytes()
	if err != nil {
		return false, err
	}

	switch key.Type {
	case KeyTypeRSA:
		return verifyRSA(key, raw, data)
	case KeyTypeEd25519:
		return verifyEd25519(key, raw, data)
	case KeyTypeECDSA:
		return verifyECDSA(key, raw, data)
	default:
		return false, fmt.Errorf("%w: key type %q", securesystemslib.ErrUnsupportedAlgorithm, key.Type)
	}
}
