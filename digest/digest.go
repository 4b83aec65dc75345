// Package digest constructs hash objects by algorithm name and digests
// readers and stored files. Algorithm names follow the lowercase convention
// used in key metadata ("sha256", "sha512", ...).
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/storage"
)

// DefaultAlgorithm is the hash algorithm used when none is specified,
// notably for key identifier derivation.
const DefaultAlgorithm = "sha256"

// New returns a fresh hash for the named algorithm, or
// securesystemslib.ErrUnsupportedAlgorithm for names it does not know.
// md5 and sha1 exist for interoperability with old metadata and must not
// be used for anything security relevant.
func New(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha224":
		return sha256.New224(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha384":
		return sha512.New384(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: hash algorithm %q", securesystemslib.ErrUnsupportedAlgorithm, algorithm)
	}
}

// Hex returns the lowercase hex digest of data under the named algorithm.
func Hex(data []byte, algorithm string) (string, error) {
	h, err := New(algorithm)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Reader consumes r and returns its hex digest under the named algorithm.
func Reader(r io.Reader, algorithm string) (string, error) {
	h, err := New(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("digesting reader: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File digests the named file on the given storage backend.
func File(backend storage.Backend, name, algorithm string) (string, error) {
	f, err := backend.Get(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Reader(f, algorithm)
}
