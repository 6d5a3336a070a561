// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// prompt.go implements terminal input for the CLI. Hidden input goes through
// x/term when stdin is a terminal and falls back to plain line reads so piped
// and scripted invocations keep working. Prompts are written to stderr so
// command output stays clean for scripts.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/security"
)

// readPassword is a package-level variable so tests can inject a mock
// implementation.
var readPassword = term.ReadPassword

// prompter reads user input through a single buffered scanner. Every command
// creates one prompter and threads it through all of its prompts; mixing
// multiple buffered readers on the same stdin would lose buffered lines.
type prompter struct {
	in *bufio.Scanner
}

func newPrompter() *prompter {
	return &prompter{in: bufio.NewScanner(os.Stdin)}
}

// line prints label and reads one line of visible input, trimmed of
// surrounding whitespace.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// secret reads hidden input when stdin is a terminal. On a pipe there is
// nothing to hide, so it consumes one raw line instead; only a trailing
// carriage return is stripped, passphrases keep their inner whitespace.
func (p *prompter) secret(label string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, label)
		raw, err := readPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		return raw, nil
	}

	fmt.Fprint(os.Stderr, label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return []byte(strings.TrimRight(p.in.Text(), "\r")), nil
}

// newSecret reads a secret twice and refuses empty or mismatched input. The
// confirmation copy is wiped before returning.
func (p *prompter) newSecret(label, confirmLabel string) ([]byte, error) {
	first, err := p.secret(label)
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, errors.New(i18n.T("prompt.empty"))
	}
	second, err := p.secret(confirmLabel)
	if err != nil {
		security.WipeBytes(first)
		return nil, err
	}
	match := security.Secret(first).Equal(security.Secret(second))
	security.WipeBytes(second)
	if !match {
		security.WipeBytes(first)
		return nil, errors.New(i18n.T("prompt.mismatch"))
	}
	return first, nil
}

// confirm asks a yes/no question and accepts "yes" or "y".
func (p *prompter) confirm(label string) bool {
	answer, err := p.line(label)
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "yes" || answer == "y"
}
