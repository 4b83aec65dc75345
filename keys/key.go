// Package keys implements the key object model shared by all supported
// algorithms: RSA with RSASSA-PSS, Ed25519 and ECDSA on NIST P-256. A key is
// identified by the hex digest of the canonical JSON form of its public
// metadata, so two key objects holding the same public material always carry
// the same keyid regardless of where they were generated or imported.
package keys

import (
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/cjson"
	"github.com/secure-systems-lab/go-securesystemslib/digest"
)

// Supported key types.
const (
	KeyTypeRSA     = "rsa"
	KeyTypeEd25519 = "ed25519"
	KeyTypeECDSA   = "ecdsa-sha2-nistp256"
)

// Supported signature schemes.
const (
	SchemeRSASSAPSSSHA256 = "rsassa-pss-sha256"
	SchemeRSASSAPSSSHA384 = "rsassa-pss-sha384"
	SchemeRSASSAPSSSHA512 = "rsassa-pss-sha512"
	SchemeEd25519         = "ed25519"
	SchemeECDSANISTP256   = "ecdsa-sha2-nistp256"
)

// DefaultKeyIDHashAlgorithms is the hash algorithm list embedded in public
// key metadata. It is part of the canonical form a keyid is derived from, so
// changing it changes every keyid.
var DefaultKeyIDHashAlgorithms = []string{"sha256", "sha512"}

// KeyVal holds the encoded key material. RSA and ECDSA values are PEM with
// surrounding whitespace trimmed; Ed25519 values are lowercase hex of the
// raw public key and private seed. Private is empty for public-only keys.
type KeyVal struct {
	Public  string `json:"public"`
	Private string `json:"private,omitempty"`
}

// Key is the uniform key object. The JSON field names are the wire format
// used in metadata, key files and the signer RPC.
type Key struct {
	Type                string   `json:"keytype"`
	Scheme              string   `json:"scheme"`
	KeyIDHashAlgorithms []string `json:"keyid_hash_algorithms,omitempty"`
	KeyID               string   `json:"keyid,omitempty"`
	KeyVal              KeyVal   `json:"keyval"`
}

// Signature pairs a hex encoded signature with the keyid of the key that
// produced it.
type Signature struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// Bytes returns the decoded signature.
func (s *Signature) Bytes() ([]byte, error) {
	raw, err := hex.DecodeString(s.Sig)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not hex: %v", securesystemslib.ErrFormat, err)
	}
	return raw, nil
}

// PublicMetadata returns the storable public form of the key: private
// material and keyid stripped, the keyid hash algorithm list normalized to
// the default when unset. This is the exact value a keyid is derived from.
func (k *Key) PublicMetadata() *Key {
	algorithms := k.KeyIDHashAlgorithms
	if len(algorithms) == 0 {
		algorithms = DefaultKeyIDHashAlgorithms
	}
	return &Key{
		Type:                k.Type,
		Scheme:              k.Scheme,
		KeyIDHashAlgorithms: slices.Clone(algorithms),
		KeyVal:              KeyVal{Public: k.KeyVal.Public},
	}
}

// Metadata returns the storable form of the key, keyid stripped. With
// private set the private material is carried along and its absence is an
// error; without it the result equals PublicMetadata.
func (k *Key) Metadata(private bool) (*Key, error) {
	if k.KeyVal.Public == "" {
		return nil, fmt.Errorf("%w: key has no public material", securesystemslib.ErrFormat)
	}
	meta := k.PublicMetadata()
	if private {
		if !k.HasPrivate() {
			return nil, fmt.Errorf("%w: private metadata requested for a public-only key",
				securesystemslib.ErrFormat)
		}
		meta.KeyVal.Private = k.KeyVal.Private
	}
	return meta, nil
}

// Public returns a copy of the key without private material, keyid retained.
func (k *Key) Public() *Key {
	pub := *k
	pub.KeyIDHashAlgorithms = slices.Clone(k.KeyIDHashAlgorithms)
	pub.KeyVal.Private = ""
	return &pub
}

// HasPrivate reports whether the key carries private material.
func (k *Key) HasPrivate() bool {
	return k.KeyVal.Private != ""
}

// ComputeKeyID derives the key identifier for the given public material
// under the named hash algorithm. The canonical form always embeds the
// default keyid hash algorithm list, independent of the list carried by any
// particular key object, so identifiers stay comparable across tools.
func ComputeKeyID(keytype, scheme, public, algorithm string) (string, error) {
	meta := map[string]any{
		"keytype":               keytype,
		"scheme":                scheme,
		"keyid_hash_algorithms": DefaultKeyIDHashAlgorithms,
		"keyval":                map[string]string{"public": public},
	}
	canonical, err := cjson.EncodeCanonical(meta)
	if err != nil {
		return "", err
	}
	return digest.Hex(canonical, algorithm)
}

// newKey assembles a key object around freshly generated or imported
// material, deriving its default keyid.
func newKey(keytype, scheme, public, private string) (*Key, error) {
	keyID, err := ComputeKeyID(keytype, scheme, public, digest.DefaultAlgorithm)
	if err != nil {
		return nil, err
	}
	return &Key{
		Type:                keytype,
		Scheme:              scheme,
		KeyIDHashAlgorithms: slices.Clone(DefaultKeyIDHashAlgorithms),
		KeyID:               keyID,
		KeyVal:              KeyVal{Public: public, Private: private},
	}, nil
}

// KeyFromMetadata completes a key parsed from stored metadata: it computes
// the default keyid, fills in the hash algorithm list if absent, and returns
// the keyids the key is known under across all of its hash algorithms. The
// default keyid is always first in the returned list.
func KeyFromMetadata(meta *Key) (*Key, []string, error) {
	if meta.Type == "" || meta.KeyVal.Public == "" {
		return nil, nil, fmt.Errorf("%w: key metadata requires keytype and public keyval",
			securesystemslib.ErrFormat)
	}

	algorithms := meta.KeyIDHashAlgorithms
	if len(algorithms) == 0 {
		algorithms = DefaultKeyIDHashAlgorithms
	}

	defaultKeyID, err := ComputeKeyID(meta.Type, meta.Scheme, meta.KeyVal.Public, digest.DefaultAlgorithm)
	if err != nil {
		return nil, nil, err
	}

	keyIDs := []string{defaultKeyID}
	for _, algorithm := range algorithms {
		id, err := ComputeKeyID(meta.Type, meta.Scheme, meta.KeyVal.Public, algorithm)
		if err != nil {
			return nil, nil, err
		}
		if !slices.Contains(keyIDs, id) {
			keyIDs = append(keyIDs, id)
		}
	}

	key := &Key{
		Type:                meta.Type,
		Scheme:              meta.Scheme,
		KeyIDHashAlgorithms: slices.Clone(algorithms),
		KeyID:               defaultKeyID,
		KeyVal:              meta.KeyVal,
	}
	return key, keyIDs, nil
}
