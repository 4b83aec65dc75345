package securesystemslib

import "errors"

// Sentinel errors returned, usually wrapped, by the library packages.
// Callers are expected to test for them with errors.Is.
var (
	// ErrFormat indicates a malformed object or argument: an unparseable
	// PEM, a key object with missing fields, a non-canonicalizable value.
	ErrFormat = errors.New("malformed object or argument")

	// ErrCrypto indicates that a cryptographic operation failed for a
	// reason other than a bad passphrase or an unsupported algorithm.
	ErrCrypto = errors.New("cryptographic operation failed")

	// ErrBadPassword indicates that an encrypted key could not be
	// decrypted with the supplied passphrase.
	ErrBadPassword = errors.New("bad passphrase")

	// ErrUnsupportedAlgorithm indicates an unknown key type, signature
	// scheme or hash algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrUnknownKey indicates a lookup of a key that is not present.
	ErrUnknownKey = errors.New("unknown key")
)
