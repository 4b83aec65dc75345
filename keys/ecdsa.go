package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/secure-systems-lab/go-securesystemslib"
)

// GenerateECDSAKey generates an ECDSA key pair on NIST P-256. The private
// value is a SEC1 "EC PRIVATE KEY" PEM, the public value a PKIX PEM, and
// signatures are ASN.1 DER over the SHA-256 digest of the payload.
func GenerateECDSAKey() (*Key, error) {
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: generating ECDSA key: %v", securesystemslib.ErrCrypto, err)
	}
	der, err := x509.MarshalECPrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding ECDSA private key: %v", securesystemslib.ErrCrypto, err)
	}

	privatePEM := encodePEM(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	publicPEM, err := encodeECDSAPublicPEM(&private.PublicKey)
	if err != nil {
		return nil, err
	}
	return newKey(KeyTypeECDSA, SchemeECDSANISTP256, publicPEM, privatePEM)
}

// ImportECDSAPublicPEM builds a public ECDSA key object from a PEM string.
func ImportECDSAPublicPEM(pemData string) (*Key, error) {
	extracted, err := ExtractPEM(pemData, false)
	if err != nil {
		return nil, err
	}
	if _, err := parseECDSAPublic(extracted); err != nil {
		return nil, err
	}
	return newKey(KeyTypeECDSA, SchemeECDSANISTP256, strings.ReplaceAll(extracted, "\r\n", "\n"), "")
}

// ImportECDSAPrivatePEM builds a complete ECDSA key object from a private
// PEM string, decrypting RFC 1423 encrypted PEMs with password.
func ImportECDSAPrivatePEM(pemData, password string) (*Key, error) {
	block, err := decodePEM(pemData, true)
	if err != nil {
		return nil, err
	}
	private, err := parseECDSAPrivate(block, password)
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalECPrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding ECDSA private key: %v", securesystemslib.ErrCrypto, err)
	}
	privatePEM := encodePEM(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	publicPEM, err := encodeECDSAPublicPEM(&private.PublicKey)
	if err != nil {
		return nil, err
	}
	return newKey(KeyTypeECDSA, SchemeECDSANISTP256, publicPEM, privatePEM)
}

// ImportECDSAPEM builds a public ECDSA key object from a PEM string holding
// either a public or an unencrypted private key.
func ImportECDSAPEM(pemData string) (*Key, error) {
	if IsPEMPublic(pemData) {
		return ImportECDSAPublicPEM(pemData)
	}

	isPrivate, err := IsPEMPrivate(pemData, "ec")
	if err != nil {
		return nil, err
	}
	if !isPrivate {
		return nil, fmt.Errorf("%w: PEM contains neither a public nor an EC private key",
			securesystemslib.ErrFormat)
	}
	key, err := ImportECDSAPrivatePEM(pemData, "")
	if err != nil {
		return nil, err
	}
	return key.Public(), nil
}

func signECDSA(key *Key, data []byte) ([]byte, error) {
	if key.Scheme != SchemeECDSANISTP256 {
		return nil, fmt.Errorf("%w: ECDSA scheme %q", securesystemslib.ErrUnsupportedAlgorithm, key.Scheme)
	}
	block, err := decodePEM(key.KeyVal.Private, true)
	if err != nil {
		return nil, err
	}
	private, err := parseECDSAPrivate(block, "")
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(data)
	sig, err := ecdsa.SignASN1(rand.Reader, private, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: ECDSA signing: %v", securesystemslib.ErrCrypto, err)
	}
	return sig, nil
}

func verifyECDSA(key *Key, sig, data []byte) (bool, error) {
	if key.Scheme != SchemeECDSANISTP256 {
		return false, fmt.Errorf("%w: ECDSA scheme %q", securesystemslib.ErrUnsupportedAlgorithm, key.Scheme)
	}
	public, err := parseECDSAPublic(key.KeyVal.Public)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256(data)
	return ecdsa.VerifyASN1(public, digest[:], sig), nil
}

func parseECDSAPrivate(block *pem.Block, password string) (*ecdsa.PrivateKey, error) {
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

	if private, err := x509.ParseECPrivateKey(der); err == nil {
		return checkECDSACurve(private)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable private key: %v", securesystemslib.ErrFormat, err)
	}
	private, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is %T, not ECDSA", securesystemslib.ErrFormat, parsed)
	}
	return checkECDSACurve(private)
}

func checkECDSACurve(private *ecdsa.PrivateKey) (*ecdsa.PrivateKey, error) {
	if private.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: ECDSA curve %s, only P-256 is supported",
			securesystemslib.ErrUnsupportedAlgorithm, private.Curve.Params().Name)
	}
	return private, nil
}

func parseECDSAPublic(pemData string) (*ecdsa.PublicKey, error) {
	block, err := decodePEM(pemData, false)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable public key: %v", securesystemslib.ErrFormat, err)
	}
	public, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, not ECDSA", securesystemslib.ErrFormat, parsed)
	}
	if public.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: ECDSA curve %s, only P-256 is supported",
			securesystemslib.ErrUnsupportedAlgorithm, public.Curve.Params().Name)
	}
	return public, nil
}

func encodeECDSAPublicPEM(public *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(public)
	if err != nil {
		return "", fmt.Errorf("%w: encoding ECDSA public key: %v", securesystemslib.ErrCrypto, err)
	}
	return encodePEM(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
