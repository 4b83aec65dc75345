package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/secure-systems-lab/go-securesystemslib"
)

// Encrypted key wire format, understood across implementations:
//
//	hex(salt) @@@@ iterations @@@@ hex(hmac) @@@@ hex(iv) @@@@ hex(ciphertext)
//
// The key is derived with PBKDF2-HMAC-SHA256, the serialized key object is
// encrypted with AES-256-CTR, and the HMAC-SHA256 of the ciphertext under
// the same derived key authenticates it.
const (
	encryptedKeyDelimiter = "@@@@"
	encryptedKeyFields    = 5

	pbkdf2Iterations = 100_000
	saltSize         = 16
	derivedKeySize   = 32
)

// EncryptKey serializes the full key object and encrypts it under a key
// derived from passphrase. An empty passphrase is allowed; the container is
// then only an obfuscation, not protection.
func EncryptKey(key *Key, passphrase string) (string, error) {
	if !key.HasPrivate() {
		return "", fmt.Errorf("%w: key object has no private part to encrypt",
			securesystemslib.ErrFormat)
	}
	plaintext, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("%w: serializing key: %v", securesystemslib.ErrFormat, err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: reading randomness: %v", securesystemslib.ErrCrypto, err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: reading randomness: %v", securesystemslib.ErrCrypto, err)
	}

	derivedKey := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, derivedKeySize, sha256.New)
	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", securesystemslib.ErrCrypto, err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, plaintext)

	mac := hmac.New(sha256.New, derivedKey)
	mac.Write(ciphertext)

	return strings.Join([]string{
		hex.EncodeToString(salt),
		strconv.Itoa(pbkdf2Iterations),
		hex.EncodeToString(mac.Sum(nil)),
		hex.EncodeToString(iv),
		hex.EncodeToString(ciphertext),
	}, encryptedKeyDelimiter), nil
}

// DecryptKey authenticates and decrypts an EncryptKey container. The MAC is
// checked in constant time before any plaintext is produced; a mismatch,
// which is indistinguishable from a wrong passphrase, returns
// securesystemslib.ErrBadPassword.
func DecryptKey(encrypted, passphrase string) (*Key, error) {
	parts := strings.Split(encrypted, encryptedKeyDelimiter)
	if len(parts) != encryptedKeyFields {
		return nil, fmt.Errorf("%w: encrypted key has %d fields, want %d",
			securesystemslib.ErrFormat, len(parts), encryptedKeyFields)
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: salt is not hex: %v", securesystemslib.ErrFormat, err)
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return nil, fmt.Errorf("%w: invalid iteration count %q", securesystemslib.ErrFormat, parts[1])
	}
	storedMAC, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: MAC is not hex: %v", securesystemslib.ErrFormat, err)
	}
	iv, err := hex.DecodeString(parts[3])
	if err != nil || len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: invalid IV", securesystemslib.ErrFormat)
	}
	ciphertext, err := hex.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext is not hex: %v", securesystemslib.ErrFormat, err)
	}

	derivedKey := pbkdf2.Key([]byte(passphrase), salt, iterations, derivedKeySize, sha256.New)
	mac := hmac.New(sha256.New, derivedKey)
	mac.Write(ciphertext)
	if !hmac.Equal(mac.Sum(nil), storedMAC) {
		return nil, fmt.Errorf("%w: decryption failed", securesystemslib.ErrBadPassword)
	}

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", securesystemslib.ErrCrypto, err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)

	var key Key
	if err := json.Unmarshal(plaintext, &key); err != nil {
		return nil, fmt.Errorf("%w: decrypted payload is not a key object: %v",
			securesystemslib.ErrFormat, err)
	}
	return &key, nil
}
