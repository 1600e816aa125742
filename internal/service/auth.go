// Package service provides the business logic of the time ledger:
// credentials, sessions, ownership checks, resource stores and account
// deletion. Persistence is delegated to repository interfaces declared here.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/models"
)

// UserRepository defines the persistence operations
// required by the credential service.
type UserRepository interface {
	// UserExists returns true if a user with the given email exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// CreateUser inserts the user and fills in CreatedAt.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// CredentialService creates accounts and verifies passwords.
type CredentialService struct {
	repo   UserRepository
	hasher PasswordHasher
	// dummyHash is compared against when the email is unknown so that both
	// failure paths cost one hash comparison.
	dummyHash string
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(repo UserRepository, hasher PasswordHasher) (*CredentialService, error) {
	dummy, err := hasher.Hash("timeledger-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &CredentialService{repo: repo, hasher: hasher, dummyHash: dummy}, nil
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers a new user. It returns apperr.ErrDuplicateIdentifier
// when the email is already taken.
func (s *CredentialService) CreateAccount(ctx context.Context, name, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrDuplicateIdentifier
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyCredentials returns the user whose email and password match.
// Unknown email and wrong password both yield apperr.ErrInvalidCredentials.
func (s *CredentialService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.hasher.Compare(s.dummyHash, password)
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser loads the user by id.
func (s *CredentialService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
