package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/models"
)

const tokenBytes = 32

// SessionRepository persists sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, s models.Session) error
	// ResolveSession returns the owner of an unexpired session or apperr.ErrNotFound.
	ResolveSession(ctx context.Context, token string, now time.Time) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// SessionManager issues, resolves and destroys opaque session tokens.
type SessionManager struct {
	repo SessionRepository
	ttl  time.Duration

	now  func() time.Time
	rand io.Reader
}

// NewSessionManager constructs a SessionManager whose sessions live for ttl.
func NewSessionManager(repo SessionRepository, ttl time.Duration) *SessionManager {
	return &SessionManager{repo: repo, ttl: ttl, now: time.Now, rand: rand.Reader}
}

// TTL is the lifetime of newly created sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create starts a session for userID and returns its token.
func (m *SessionManager) Create(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(m.rand, buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	now := m.now().UTC()
	err := m.repo.CreateSession(ctx, models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token to its user id. Missing, unknown and expired tokens
// yield apperr.ErrUnauthenticated.
func (m *SessionManager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.ErrUnauthenticated
	}
	userID, err := m.repo.ResolveSession(ctx, token, m.now())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrUnauthenticated
		}
		return "", err
	}
	return userID, nil
}

// Destroy ends a session. Unknown tokens are ignored.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.repo.DeleteSession(ctx, token)
}
