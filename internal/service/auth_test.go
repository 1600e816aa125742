package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/models"
)

type mockUserRepo struct {
	UserExistsFunc     func(ctx context.Context, email string) (bool, error)
	CreateUserFunc     func(ctx context.Context, user *models.User) error
	GetUserByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	GetUserByIDFunc    func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepo) UserExists(ctx context.Context, email string) (bool, error) {
	return m.UserExistsFunc(ctx, email)
}
func (m *mockUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	return m.CreateUserFunc(ctx, user)
}
func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetUserByEmailFunc(ctx, email)
}
func (m *mockUserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetUserByIDFunc(ctx, id)
}

// countingHasher prefixes the password and counts comparisons.
type countingHasher struct {
	compares int
}

func (h *countingHasher) Hash(password string) (string, error) { return "h:" + password, nil }
func (h *countingHasher) Compare(hash, password string) bool {
	h.compares++
	return hash == "h:"+password
}

func newCredentials(t *testing.T, repo UserRepository, h PasswordHasher) *CredentialService {
	t.Helper()
	svc, err := NewCredentialService(repo, h)
	require.NoError(t, err)
	return svc
}

func TestCreateAccount_Success(t *testing.T) {
	var stored *models.User
	repo := &mockUserRepo{
		UserExistsFunc: func(ctx context.Context, email string) (bool, error) {
			assert.Equal(t, "alice@example.com", email)
			return false, nil
		},
		CreateUserFunc: func(ctx context.Context, user *models.User) error {
			stored = user
			return nil
		},
	}
	svc := newCredentials(t, repo, &countingHasher{})

	user, err := svc.CreateAccount(context.Background(), " Alice ", "  Alice@Example.COM ", "secret1")
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "h:secret1", user.PasswordHash)
	assert.NotEmpty(t, user.ID)
}

func TestCreateAccount_Duplicate(t *testing.T) {
	repo := &mockUserRepo{
		UserExistsFunc: func(ctx context.Context, email string) (bool, error) { return true, nil },
		CreateUserFunc: func(ctx context.Context, user *models.User) error {
			t.Fatal("CreateUser must not be called for a taken email")
			return nil
		},
	}
	svc := newCredentials(t, repo, &countingHasher{})

	_, err := svc.CreateAccount(context.Background(), "Alice", "alice@example.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrDuplicateIdentifier)
}

func TestCreateAccount_RaceOnInsert(t *testing.T) {
	repo := &mockUserRepo{
		UserExistsFunc: func(ctx context.Context, email string) (bool, error) { return false, nil },
		CreateUserFunc: func(ctx context.Context, user *models.User) error { return apperr.ErrDuplicateIdentifier },
	}
	svc := newCredentials(t, repo, &countingHasher{})

	_, err := svc.CreateAccount(context.Background(), "Alice", "alice@example.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrDuplicateIdentifier)
}

func TestVerifyCredentials(t *testing.T) {
	alice := &models.User{ID: "u-1", Email: "alice@example.com", PasswordHash: "h:secret1"}
	repo := &mockUserRepo{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == alice.Email {
				return alice, nil
			}
			return nil, apperr.ErrNotFound
		},
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"match", "Alice@example.com", "secret1", nil},
		{"wrong password", "alice@example.com", "nope", apperr.ErrInvalidCredentials},
		{"unknown email", "carol@example.com", "secret1", apperr.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &countingHasher{}
			svc := newCredentials(t, repo, h)

			user, err := svc.VerifyCredentials(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "u-1", user.ID)
			}
			assert.Equal(t, 1, h.compares, "every path costs one comparison")
		})
	}
}

func TestVerifyCredentials_StoreError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockUserRepo{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return nil, wantErr },
	}
	svc := newCredentials(t, repo, &countingHasher{})

	_, err := svc.VerifyCredentials(context.Background(), "alice@example.com", "x")
	assert.ErrorIs(t, err, wantErr)
	assert.NotErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", hash)
	assert.True(t, h.Compare(hash, "secret1"))
	assert.False(t, h.Compare(hash, "secret2"))
	assert.False(t, h.Compare("not-a-hash", "secret1"))
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("p", 73))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("p", 72))
	assert.NoError(t, err)
}

func TestNewBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).Cost)
	assert.Equal(t, 12, NewBcryptHasher(12).Cost)
}
