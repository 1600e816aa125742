package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/timeledger/internal/apperr"
)

const (
	maxBodyBytes = 1 << 20

	msgInternal = "Something went wrong. Please try again later."
)

// inputError is a validation failure with a message safe to show the client.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Unwrap() error { return apperr.ErrInvalidInput }

func invalid(msg string) error {
	return &inputError{msg: msg}
}

// statusFor maps a service error to an HTTP status and public message.
// Unclassified errors map to 500.
func statusFor(err error) (int, string) {
	var in *inputError
	switch {
	case errors.As(err, &in):
		return http.StatusBadRequest, in.msg
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request."
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, "Please log in to continue."
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "You do not have access to this resource."
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "Not found."
	case errors.Is(err, apperr.ErrDuplicateIdentifier):
		return http.StatusConflict, "An account with this email already exists."
	case errors.Is(err, apperr.ErrDuplicateName):
		return http.StatusConflict, "A category with this name already exists."
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError responds with the status and message for err. Server-side
// failures are logged with the request path; their detail never reaches the
// client.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// decodeJSON reads a JSON body into dst. Malformed bodies are input errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalid("Invalid request body.")
	}
	return nil
}

// idParam parses the {id} path parameter.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("Invalid id.")
	}
	return id, nil
}
