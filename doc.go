// Package securesystemslib provides the cryptographic building blocks shared
// by secure software update and supply chain tooling: uniform key objects for
// RSA, Ed25519 and ECDSA keys, signature creation and verification, canonical
// JSON encoding, passphrase-protected private key storage, and a file based
// key pair interface.
//
// The subpackages split the library by concern:
//
//   - cjson: canonical JSON encoding, the base of key identifier derivation
//   - keys: key objects, signatures, PEM import/export, key encryption
//   - digest: named hash algorithm construction and file digesting
//   - storage: pluggable storage backends with atomic writes
//   - keyfile: generation and import of key pairs on a storage backend
//   - signer: a remote signing service, its providers, client and CLI
//
// This package itself only carries the error taxonomy shared by all of them.
package securesystemslib
