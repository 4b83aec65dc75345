package keys

import (
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/secure-systems-lab/go-securesystemslib"
)

var (
	privatePEMTypes = []string{"RSA PRIVATE KEY", "EC PRIVATE KEY", "PRIVATE KEY"}
	publicPEMTypes  = []string{"PUBLIC KEY", "RSA PUBLIC KEY"}
)

// ExtractPEM returns the first PEM block found in data, header and footer
// included, with anything around it discarded. With private set it looks for
// private key block types, otherwise for public ones. A missing header or
// footer is securesystemslib.ErrFormat.
func ExtractPEM(data string, private bool) (string, error) {
	types := publicPEMTypes
	if private {
		types = privatePEMTypes
	}

	for _, blockType := range types {
		header := "-----BEGIN " + blockType + "-----"
		footer := "-----END " + blockType + "-----"

		start := strings.Index(data, header)
		if start < 0 {
			continue
		}
		end := strings.Index(data[start+len(header):], footer)
		if end < 0 {
			return "", fmt.Errorf("%w: PEM header %q without matching footer",
				securesystemslib.ErrFormat, header)
		}
		return data[start : start+len(header)+end+len(footer)], nil
	}

	kind := "public"
	if private {
		kind = "private"
	}
	return "", fmt.Errorf("%w: no %s key PEM header found", securesystemslib.ErrFormat, kind)
}

// IsPEMPublic reports whether data contains a public key PEM block.
func IsPEMPublic(data string) bool {
	_, err := ExtractPEM(data, false)
	return err == nil
}

// IsPEMPrivate reports whether data contains a private key PEM block of the
// given kind, "rsa" or "ec". Unknown kinds are securesystemslib.ErrFormat.
func IsPEMPrivate(data, kind string) (bool, error) {
	var blockType string
	switch kind {
	case "rsa":
		blockType = "RSA PRIVATE KEY"
	case "ec":
		blockType = "EC PRIVATE KEY"
	default:
		return false, fmt.Errorf("%w: unsupported private PEM kind %q",
			securesystemslib.ErrFormat, kind)
	}
	header := "-----BEGIN " + blockType + "-----"
	footer := "-----END " + blockType + "-----"
	start := strings.Index(data, header)
	if start < 0 {
		return false, nil
	}
	return strings.Index(data[start+len(header):], footer) >= 0, nil
}

// decodePEM extracts and decodes the first block of the wanted visibility.
func decodePEM(data string, private bool) (*pem.Block, error) {
	extracted, err := ExtractPEM(data, private)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode([]byte(extracted + "\n"))
	if block == nil {
		return nil, fmt.Errorf("%w: undecodable PEM block", securesystemslib.ErrFormat)
	}
	return block, nil
}

// encodePEM renders a block with surrounding whitespace trimmed, which keeps
// generated and reimported key values byte for byte identical.
func encodePEM(block *pem.Block) string {
	return strings.TrimSpace(string(pem.EncodeToMemory(block)))
}
