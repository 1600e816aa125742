package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/db"
	"github.com/atinyakov/timeledger/internal/models"
)

// PostgresAuthRepository implements user credential storage on PostgreSQL.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB db.DBTX
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database handle.
func NewPostgresAuthRepository(db db.DBTX) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a user with the specified email exists.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UserExists: %w", err)
	}
	return exists, nil
}

// CreateUser inserts a new user row and fills in CreatedAt.
// A concurrent signup with the same email yields apperr.ErrDuplicateIdentifier.
func (s *PostgresAuthRepository) CreateUser(ctx context.Context, user *models.User) error {
	err := s.DB.QueryRowContext(
		ctx,
		`INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		user.ID, user.Name, user.Email, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrDuplicateIdentifier
		}
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// GetUserByEmail loads a user by login identifier.
func (s *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`, email)
}

// GetUserByID loads a user by id.
func (s *PostgresAuthRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresAuthRepository) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes the user row. Sessions referencing it are removed by
// the ON DELETE CASCADE constraint.
func (s *PostgresAuthRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	return expectAffected(res)
}

// expectAffected turns a zero-row write into apperr.ErrNotFound.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
