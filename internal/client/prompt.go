package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// Prompter reads answers to interactive questions.
type Prompter struct {
	In  *bufio.Reader
	Out io.Writer
	// fd is the descriptor behind In, or -1 when In is not a file.
	fd int
}

// NewPrompter creates a Prompter on the given streams.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Prompter{In: bufio.NewReader(in), Out: out, fd: fd}
}

// Line prints prompt and reads one trimmed line. A final line without a
// trailing newline is returned as is.
func (p *Prompter) Line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.Out, prompt); err != nil {
		return "", err
	}
	line, err := p.In.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a password without echo when the input is a terminal, and
// falls back to a plain line otherwise.
func (p *Prompter) Password(prompt string) (string, error) {
	if p.fd < 0 || !isTerminal(p.fd) {
		return p.Line(prompt)
	}
	if _, err := fmt.Fprint(p.Out, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(p.fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
