package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/secure-systems-lab/go-securesystemslib"
)

const (
	// DefaultRSABits is the modulus size of newly generated RSA keys.
	DefaultRSABits = 3072

	// minRSABits is the smallest modulus size accepted for generation.
	minRSABits = 2048
)

// GenerateRSAKey generates an RSA key pair of the given modulus size under
// the default rsassa-pss-sha256 scheme. Sizes below 2048 bits are rejected
// with securesystemslib.ErrFormat.
func GenerateRSAKey(bits int) (*Key, error) {
	return GenerateRSAKeyWithScheme(bits, SchemeRSASSAPSSSHA256)
}

// GenerateRSAKeyWithScheme generates an RSA key pair bound to one of the
// rsassa-pss schemes.
func GenerateRSAKeyWithScheme(bits int, scheme string) (*Key, error) {
	if _, err := rsaSchemeHash(scheme); err != nil {
		return nil, err
	}
	if bits < minRSABits {
		return nil, fmt.Errorf("%w: RSA modulus of %d bits is below the %d bit minimum",
			securesystemslib.ErrFormat, bits, minRSABits)
	}

	private, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: generating RSA key: %v", securesystemslib.ErrCrypto, err)
	}

	privatePEM := encodePEM(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(private)})
	publicPEM, err := encodeRSAPublicPEM(&private.PublicKey)
	if err != nil {
		return nil, err
	}
	return newKey(KeyTypeRSA, scheme, publicPEM, privatePEM)
}

// ImportRSAPublicPEM builds a public RSA key object from a PEM string. The
// PEM is validated and stored as extracted, so reimporting an exported value
// yields an identical key object and keyid.
func ImportRSAPublicPEM(pemData, scheme string) (*Key, error) {
	if _, err := rsaSchemeHash(scheme); err != nil {
		return nil, err
	}
	extracted, err := ExtractPEM(pemData, false)
	if err != nil {
		return nil, err
	}
	if _, err := parseRSAPublic(extracted); err != nil {
		return nil, err
	}
	return newKey(KeyTypeRSA, scheme, strings.ReplaceAll(extracted, "\r\n", "\n"), "")
}

// ImportRSAPrivatePEM builds a complete RSA key object from a private PEM
// string, decrypting it with password when it carries RFC 1423 encryption
// headers. Both key values are stored re-encoded, so the private value is
// always the decrypted PEM.
func ImportRSAPrivatePEM(pemData, scheme, password string) (*Key, error) {
	if _, err := rsaSchemeHash(scheme); err != nil {
		return nil, err
	}
	block, err := decodePEM(pemData, true)
	if err != nil {
		return nil, err
	}
	private, err := parseRSAPrivate(block, password)
	if err != nil {
		return nil, err
	}

	privatePEM := encodePEM(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(private)})
	publicPEM, err := encodeRSAPublicPEM(&private.PublicKey)
	if err != nil {
		return nil, err
	}
	return newKey(KeyTypeRSA, scheme, publicPEM, privatePEM)
}

// ImportRSAPEM builds a public RSA key object from a PEM string holding
// either a public or an unencrypted private key. Private material in the
// input never ends up in the returned key.
func ImportRSAPEM(pemData, scheme string) (*Key, error) {
	if IsPEMPublic(pemData) {
		return ImportRSAPublicPEM(pemData, scheme)
	}

	isPrivate, err := IsPEMPrivate(pemData, "rsa")
	if err != nil {
		return nil, err
	}
	if !isPrivate {
		return nil, fmt.Errorf("%w: PEM contains neither a public nor an RSA private key",
			securesystemslib.ErrFormat)
	}
	key, err := ImportRSAPrivatePEM(pemData, scheme, "")
	if err != nil {
		return nil, err
	}
	return key.Public(), nil
}

// CreateRSAEncryptedPEM re-encodes an unencrypted private RSA PEM as an
// RFC 1423 encrypted PEM (AES-256-CBC) under the given passphrase.
func CreateRSAEncryptedPEM(privatePEM, passphrase string) (string, error) {
	if privatePEM == "" {
		return "", fmt.Errorf("%w: private key PEM is empty", securesystemslib.ErrCrypto)
	}
	if passphrase == "" {
		return "", fmt.Errorf("%w: passphrase must not be empty", securesystemslib.ErrCrypto)
	}

	block, err := decodePEM(privatePEM, true)
	if err != nil {
		return "", err
	}
	private, err := parseRSAPrivate(block, "")
	if err != nil {
		return "", err
	}

	//nolint:staticcheck
	encrypted, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY",
		x509.MarshalPKCS1PrivateKey(private), []byte(passphrase), x509.PEMCipherAES256)
	if err != nil {
		return "", fmt.Errorf("%w: encrypting PEM: %v", securesystemslib.ErrCrypto, err)
	}
	return encodePEM(encrypted), nil
}

func signRSA(key *Key, data []byte) ([]byte, error) {
	hashFunc, err := rsaSchemeHash(key.Scheme)
	if err != nil {
		return nil, err
	}
	block, err := decodePEM(key.KeyVal.Private, true)
	if err != nil {
		return nil, err
	}
	private, err := parseRSAPrivate(block, "")
	if err != nil {
		return nil, err
	}

	hasher := hashFunc.New()
	hasher.Write(data)
	sig, err := rsa.SignPSS(rand.Reader, private, hashFunc, hasher.Sum(nil), rsaPSSOptions(hashFunc))
	if err != nil {
		return nil, fmt.Errorf("%w: RSA-PSS signing: %v", securesystemslib.ErrCrypto, err)
	}
	return sig, nil
}

func verifyRSA(key *Key, sig, data []byte) (bool, error) {
	hashFunc, err := rsaSchemeHash(key.Scheme)
	if err != nil {
		return false, err
	}
	public, err := parseRSAPublic(key.KeyVal.Public)
	if err != nil {
		return false, err
	}

	hasher := hashFunc.New()
	hasher.Write(data)
	err = rsa.VerifyPSS(public, hashFunc, hasher.Sum(nil), sig, rsaPSSOptions(hashFunc))
	return err == nil, nil
}

// rsaPSSOptions fixes the salt length to the digest length, the convention
// all existing metadata was produced under.
func rsaPSSOptions(hashFunc crypto.Hash) *rsa.PSSOptions {
	return &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: hashFunc}
}

func rsaSchemeHash(scheme string) (crypto.Hash, error) {
	switch scheme {
	case SchemeRSASSAPSSSHA256:
		return crypto.SHA256, nil
	case SchemeRSASSAPSSSHA384:
		return crypto.SHA384, nil
	case SchemeRSASSAPSSSHA512:
		return crypto.SHA512, nil
	default:
		return 0, fmt.Errorf("%w: RSA scheme %q", securesystemslib.ErrUnsupportedAlgorithm, scheme)
	}
}

func parseRSAPrivate(block *pem.Block, password string) (*rsa.PrivateKey, error) {
	der := block.Bytes
	//nolint:staticcheck
	if x509.IsEncryptedPEMBlock(block) {
		if password == "" {
			return nil, fmt.Errorf("%w: PEM is encrypted, a passphrase is required",
				securesystemslib.ErrCrypto)
		}
		var err error
		//nolint:staticcheck
		der, err = x509.DecryptPEMBlock(block, []byte(password))
		if err != nil {
			return nil, fmt.Errorf("%w: decrypting PEM: %v", securesystemslib.ErrBadPassword, err)
		}
	}

	if private, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return private, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable private key: %v", securesystemslib.ErrFormat, err)
	}
	private, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is %T, not RSA", securesystemslib.ErrFormat, parsed)
	}
	return private, nil
}

func parseRSAPublic(pemData string) (*rsa.PublicKey, error) {
	block, err := decodePEM(pemData, false)
	if err != nil {
		return nil, err
	}
	if block.Type == "RSA PUBLIC KEY" {
		public, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: unparseable RSA public key: %v", securesystemslib.ErrFormat, err)
		}
		return public, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable public key: %v", securesystemslib.ErrFormat, err)
	}
	public, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, not RSA", securesystemslib.ErrFormat, parsed)
	}
	return public, nil
}

func encodeRSAPublicPEM(public *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(public)
	if err != nil {
		return "", fmt.Errorf("%w: encoding RSA public key: %v", securesystemslib.ErrCrypto, err)
	}
	return encodePEM(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
