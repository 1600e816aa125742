package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/db"
	"github.com/atinyakov/timeledger/internal/models"
)

// PostgresSessionRepository persists login sessions.
type PostgresSessionRepository struct {
	DB db.DBTX
}

// NewPostgresSessionRepository creates a session repository on the given handle.
func NewPostgresSessionRepository(db db.DBTX) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

// CreateSession stores a new session row.
func (r *PostgresSessionRepository) CreateSession(ctx context.Context, s models.Session) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		s.Token, s.UserID, s.CreatedAt.UTC(), s.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("CreateSession: %w", err)
	}
	return nil
}

// ResolveSession returns the user id of an unexpired session whose user
// still exists, in a single read. Anything else is apperr.ErrNotFound.
func (r *PostgresSessionRepository) ResolveSession(ctx context.Context, token string, now time.Time) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx, `
		SELECT s.user_id FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > $2
	`, token, now.UTC()).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("ResolveSession: %w", err)
	}
	return userID, nil
}

// DeleteSession removes a session. Deleting an unknown token is not an error.
func (r *PostgresSessionRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("DeleteSession: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that expired before now.
func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("DeleteExpired: %w", err)
	}
	return res.RowsAffected()
}
