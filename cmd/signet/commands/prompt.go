package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errPassphraseMismatch = errors.New("passphrases do not match")

// promptPassphrase reads a passphrase without echo from a terminal, or a
// single line when stdin is not one.
func promptPassphrase(prompt string, confirm bool) (string, error) {
	p, err := readSecret(prompt)
	if err != nil {
		return "", err
	}
	if !confirm {
		return p, nil
	}
	again, err := readSecret("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if again != p {
		return "", errPassphraseMismatch
	}
	return p, nil
}

var stdinReader = bufio.NewReader(os.Stdin)

func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdinReader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
