// Package middleware provides HTTP middlewares for session authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/timeledger/internal/apperr"
)

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "sid"

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

// SessionResolver maps a session token to the user it authenticates.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// RequireSession rejects requests without a valid session cookie with 401.
//
// On success the user id and the token are stored in the request context,
// retrievable with GetUserIDFromContext and GetSessionTokenFromContext.
// Rejected requests never reach next.
func RequireSession(resolver SessionResolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "Please log in to continue.")
				return
			}

			userID, err := resolver.Resolve(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, apperr.ErrUnauthenticated) {
					writeError(w, http.StatusUnauthorized, "Please log in to continue.")
					return
				}
				log.Error("failed to resolve session", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}

			ctx := WithSession(r.Context(), userID, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSession returns a copy of ctx carrying the authenticated user and token.
func WithSession(ctx context.Context, userID, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, userID)
	return context.WithValue(ctx, tokenKey, token)
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// GetSessionTokenFromContext returns the session token of the request, or "".
func GetSessionTokenFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(tokenKey).(string); ok {
		return s
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
