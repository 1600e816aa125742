// Package repository provides PostgreSQL persistence for users, sessions
// and the resources they own.
package repository

import (
	"errors"
	"fmt"

	"github.com/atinyakov/timeledger/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint violation
// from either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// tables maps each owned resource to its table. Queries only ever
// interpolate names from this map.
var tables = map[models.Resource]string{
	models.ResourceEntries:     "entries",
	models.ResourceCategories:  "categories",
	models.ResourceReflections: "reflections",
}

func tableFor(r models.Resource) (string, error) {
	t, ok := tables[r]
	if !ok {
		return "", fmt.Errorf("unknown resource %q", r)
	}
	return t, nil
}
