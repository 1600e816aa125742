package client

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Line(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  alice@example.com \nlast"), &out)

	got, err := p.Line("Email: ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)
	assert.Equal(t, "Email: ", out.String())

	got, err = p.Line("Name: ")
	require.NoError(t, err)
	assert.Equal(t, "last", got, "final line without newline")

	_, err = p.Line("More: ")
	assert.Error(t, err)
}

func stubTerminal(t *testing.T, tty bool, pw []byte, err error) {
	t.Helper()
	origRead, origTTY := readPassword, isTerminal
	readPassword = func(int) ([]byte, error) { return pw, err }
	isTerminal = func(int) bool { return tty }
	t.Cleanup(func() { readPassword, isTerminal = origRead, origTTY })
}

func TestPrompter_PasswordFromTerminal(t *testing.T) {
	stubTerminal(t, true, []byte("secret1"), nil)
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &out)
	p.fd = 0

	got, err := p.Password("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret1", got)
	assert.Equal(t, "Password: \n", out.String())
}

func TestPrompter_PasswordTerminalError(t *testing.T) {
	stubTerminal(t, true, nil, errors.New("not a tty"))
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	p.fd = 0

	_, err := p.Password("Password: ")
	assert.Error(t, err)
}

func TestPrompter_PasswordFromPipe(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	p := NewPrompter(strings.NewReader("piped\n"), &bytes.Buffer{})
	p.fd = 0

	got, err := p.Password("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "piped", got)
}

func TestPrompter_PasswordFromReader(t *testing.T) {
	stubTerminal(t, true, []byte("never"), nil)
	p := NewPrompter(strings.NewReader("typed\n"), &bytes.Buffer{})

	got, err := p.Password("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "typed", got, "a non-file reader is never treated as a terminal")
}
