package signer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"

	securesystemslib "github.com/secure-systems-lab/go-securesystemslib"
	"github.com/secure-systems-lab/go-securesystemslib/keyfile"
	"github.com/secure-systems-lab/go-securesystemslib/keys"
)

const (
	KeyTypeFlagName      = "type"
	OutFlagName          = "out"
	BitsFlagName         = "bits"
	PasswordFileFlagName = "password-file"
	NoPasswordFlagName   = "no-password"
)

func KeygenGenerateCLIFlags(envPrefix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    KeyTypeFlagName,
			Usage:   "Type of key to generate: rsa, ed25519 or ecdsa",
			Value:   keys.KeyTypeEd25519,
			EnvVars: opservice.PrefixEnvVar(envPrefix, "KEYGEN_TYPE"),
		},
		&cli.StringFlag{
			Name:     OutFlagName,
			Usage:    "Path the private key is written to; the public half goes to <path>.pub",
			Required: true,
			EnvVars:  opservice.PrefixEnvVar(envPrefix, "KEYGEN_OUT"),
		},
		&cli.IntFlag{
			Name:    BitsFlagName,
			Usage:   "Modulus size for RSA keys",
			Value:   keys.DefaultRSABits,
			EnvVars: opservice.PrefixEnvVar(envPrefix, "KEYGEN_BITS"),
		},
		&cli.StringFlag{
			Name:    PasswordFileFlagName,
			Usage:   "File holding the encryption password, instead of prompting",
			EnvVars: opservice.PrefixEnvVar(envPrefix, "KEYGEN_PASSWORD_FILE"),
		},
		&cli.BoolFlag{
			Name:    NoPasswordFlagName,
			Usage:   "Write the private key without password protection",
			EnvVars: opservice.PrefixEnvVar(envPrefix, "KEYGEN_NO_PASSWORD"),
		},
	}
}

func KeygenInspectCLIFlags(envPrefix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    PasswordFileFlagName,
			Usage:   "File holding the decryption password, instead of prompting",
			EnvVars: opservice.PrefixEnvVar(envPrefix, "KEYGEN_PASSWORD_FILE"),
		},
		&cli.BoolFlag{
			Name:    NoPasswordFlagName,
			Usage:   "Do not prompt for a password",
			EnvVars: opservice.PrefixEnvVar(envPrefix, "KEYGEN_NO_PASSWORD"),
		},
	}
}

func keygenPassword(cliCtx *cli.Context, confirm bool) (string, error) {
	if cliCtx.Bool(NoPasswordFlagName) {
		return "", nil
	}
	if passwordFile := cliCtx.String(PasswordFileFlagName); passwordFile != "" {
		content, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return keyfile.PromptPassword("Enter password: ", confirm)
}

func KeygenGenerate(cliCtx *cli.Context) error {
	keyType := cliCtx.String(KeyTypeFlagName)
	out := cliCtx.String(OutFlagName)

	password, err := keygenPassword(cliCtx, true)
	if err != nil {
		return err
	}

	store := keyfile.NewFilesystemStore()

	var key *keys.Key
	switch keyType {
	case keys.KeyTypeRSA:
		key, err = store.GenerateRSAKeypair(out, cliCtx.Int(BitsFlagName), password)
	case keys.KeyTypeEd25519:
		key, err = store.GenerateEd25519Keypair(out, password)
	case "ecdsa", keys.KeyTypeECDSA:
		key, err = store.GenerateECDSAKeypair(out, password)
	default:
		return fmt.Errorf("unsupported key type '%s': must be rsa, ed25519 or ecdsa", keyType)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Generated %s keypair with keyid %s\n", key.Type, key.KeyID)
	fmt.Printf("Private key written to %s\n", out)
	fmt.Printf("Public key written to %s%s\n", out, keyfile.PublicSuffix)
	return nil
}

func KeygenInspect(cliCtx *cli.Context) error {
	path := cliCtx.Args().Get(0)
	if path == "" {
		return errors.New("no key path argument was provided")
	}

	store := keyfile.NewFilesystemStore()

	key, err := store.ImportPublicKey(path)
	if err != nil {
		key, err = inspectPrivateKey(cliCtx, store, path)
		if err != nil {
			return err
		}
	}

	// Only ever print the public half.
	result, _ := json.MarshalIndent(key.Public(), "", "  ")
	fmt.Println(string(result))
	return nil
}

func inspectPrivateKey(cliCtx *cli.Context, store *keyfile.Store, path string) (*keys.Key, error) {
	// Unprotected keys need no prompt, so try the empty password first.
	key, err := store.ImportPrivateKey(path, "")
	if err == nil ||
		!(errors.Is(err, securesystemslib.ErrBadPassword) || errors.Is(err, securesystemslib.ErrCrypto)) {
		return key, err
	}

	password, perr := keygenPassword(cliCtx, false)
	if perr != nil {
		return nil, perr
	}
	return store.ImportPrivateKey(path, password)
}
