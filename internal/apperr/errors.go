// Package apperr defines the sentinel errors shared by the repository,
// service and transport layers. Callers match them with errors.Is.
package apperr

import "errors"

var (
	// ErrInvalidInput reports a malformed or incomplete request payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated reports a missing, unknown or expired session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned for an unknown identifier and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden reports a resource that exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound reports a resource id that does not exist.
	ErrNotFound = errors.New("not found")

	// Uniqueness violations.
	ErrDuplicateIdentifier = errors.New("identifier already in use")
	ErrDuplicateName       = errors.New("name already exists")
)
