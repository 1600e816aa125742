package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SessionFile persists the session token between CLI runs.
type SessionFile struct {
	Path string
}

type sessionData struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// DefaultSessionPath is ~/.timeledger/session.json, or session.json in the
// working directory when the home directory is unknown.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".timeledger", "session.json")
}

// Load returns the token saved for baseURL. A missing file or a token saved
// for another server yields "".
func (f SessionFile) Load(baseURL string) (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	var d sessionData
	if err := json.Unmarshal(b, &d); err != nil {
		return "", fmt.Errorf("parse session file: %w", err)
	}
	if d.BaseURL != baseURL {
		return "", nil
	}
	return d.Token, nil
}

// Save writes the token, readable only by the current user. An empty token
// removes the file.
func (f SessionFile) Save(baseURL, token string) error {
	if token == "" {
		return f.Clear()
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(sessionData{BaseURL: baseURL, Token: token})
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

// Clear removes the session file.
func (f SessionFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
