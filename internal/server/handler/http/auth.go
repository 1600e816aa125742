// Package http provides the JSON HTTP API of the time ledger: account
// signup and login with session cookies, and CRUD endpoints for entries,
// categories and reflections.
package http

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/middleware"
	"github.com/atinyakov/timeledger/internal/models"
)

const (
	minPasswordLength = 6
	// maxPasswordLength is the most bytes bcrypt will hash.
	maxPasswordLength = 72
)

// CredentialService defines the account operations required by the handlers.
type CredentialService interface {
	// CreateAccount registers a user. Returns apperr.ErrDuplicateIdentifier
	// if the email is taken.
	CreateAccount(ctx context.Context, name, email, password string) (*models.User, error)
	// VerifyCredentials returns the matching user or apperr.ErrInvalidCredentials.
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// SessionService issues and ends sessions.
type SessionService interface {
	Create(ctx context.Context, userID string) (string, error)
	Destroy(ctx context.Context, token string) error
	TTL() time.Duration
}

// AccountService deletes accounts.
type AccountService interface {
	Delete(ctx context.Context, userID, token string) error
}

// AuthHandler handles HTTP requests for signup, login, logout and account deletion.
type AuthHandler struct {
	Credentials CredentialService
	Sessions    SessionService
	Accounts    AccountService
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	Log          *zap.Logger
}

// SignupRequest represents the JSON payload for account creation.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

func (req *SignupRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("Name is required.")
	}
	email := strings.TrimSpace(req.Email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("A valid email is required.")
	}
	if len(req.Password) < minPasswordLength {
		return invalid("Password must be at least 6 characters.")
	}
	if len(req.Password) > maxPasswordLength {
		return invalid("Password must be at most 72 bytes.")
	}
	return nil
}

// Signup creates an account and logs the new user in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	user, err := h.Credentials.CreateAccount(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.startSession(w, r, user)
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, h.Log, invalid("Email and password are required."))
		return
	}

	user, err := h.Credentials.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.startSession(w, r, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := h.Sessions.Create(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.setCookie(w, token)
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// Logout ends the current session, if any, and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.Sessions.Destroy(r.Context(), c.Value); err != nil {
			writeError(w, r, h.Log, err)
			return
		}
	}
	h.clearCookie(w)
	writeOK(w)
}

// DeleteAccount removes the caller and everything they own.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	if err := h.Accounts.Delete(ctx, userID, middleware.GetSessionTokenFromContext(ctx)); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.clearCookie(w)
	writeOK(w)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Credentials.GetUser(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.ErrUnauthenticated
		}
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
