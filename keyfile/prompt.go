package keyfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptPassword reads a passphrase from the terminal with echo disabled,
// writing prompts to stderr. With confirm set it asks twice and loops until
// both reads match. When stdin is not a terminal a single line is read
// instead, so piped invocations keep working.
func PromptPassword(prompt string, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	for {
		fmt.Fprint(os.Stderr, prompt)
		first, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if !confirm {
			return string(first), nil
		}

		fmt.Fprint(os.Stderr, "Confirm: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if string(first) == string(second) {
			return string(first), nil
		}
		fmt.Fprintln(os.Stderr, "Passphrases do not match, try again.")
	}
}
