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

// PostgresOwnershipRepository answers ownership queries for any owned resource.
type PostgresOwnershipRepository struct {
	DB db.DBTX
}

// NewPostgresOwnershipRepository creates an ownership repository on the given handle.
func NewPostgresOwnershipRepository(db db.DBTX) *PostgresOwnershipRepository {
	return &PostgresOwnershipRepository{DB: db}
}

// OwnerOf loads only the owner id of a resource row.
// It returns apperr.ErrNotFound when no row has that id.
func (r *PostgresOwnershipRepository) OwnerOf(ctx context.Context, res models.Resource, id int64) (string, error) {
	table, err := tableFor(res)
	if err != nil {
		return "", err
	}

	var owner string
	err = r.DB.QueryRowContext(ctx, `SELECT user_id FROM `+table+` WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("OwnerOf %s: %w", table, err)
	}
	return owner, nil
}

// purgeOwner deletes every row of a resource owned by userID.
func purgeOwner(ctx context.Context, q db.DBTX, res models.Resource, userID string) (int64, error) {
	table, err := tableFor(res)
	if err != nil {
		return 0, err
	}
	result, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", table, err)
	}
	return result.RowsAffected()
}

// PostgresAccountRepository removes whole accounts.
type PostgresAccountRepository struct {
	DB *sql.DB
}

// NewPostgresAccountRepository creates an account repository. It needs the
// pool itself because deletion runs in its own transaction.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// DeleteAccount removes every resource in models.OwnedResources owned by the
// user and then the user row, all in one transaction. On any failure nothing
// is deleted. A missing user yields apperr.ErrNotFound.
func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, userID string) error {
	return db.WithTx(ctx, r.DB, func(ctx context.Context, tx db.DBTX) error {
		for _, res := range models.OwnedResources {
			if _, err := purgeOwner(ctx, tx, res, userID); err != nil {
				return err
			}
		}
		return NewPostgresAuthRepository(tx).DeleteUser(ctx, userID)
	})
}
