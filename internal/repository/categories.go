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

// PostgresCategoryRepository stores categories. Names are unique per user.
type PostgresCategoryRepository struct {
	DB db.DBTX
}

// NewPostgresCategoryRepository creates a category repository on the given handle.
func NewPostgresCategoryRepository(db db.DBTX) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{DB: db}
}

// ListCategories returns the user's categories ordered by name.
func (r *PostgresCategoryRepository) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a category. A name the user already has yields
// apperr.ErrDuplicateName.
func (r *PostgresCategoryRepository) CreateCategory(ctx context.Context, userID, name string) (*models.Category, error) {
	var c models.Category
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO categories (user_id, name) VALUES ($1, $2) RETURNING id, user_id, name, created_at`,
		userID, name,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrDuplicateName
		}
		return nil, fmt.Errorf("CreateCategory: %w", err)
	}
	return &c, nil
}

// UpdateCategory renames a category.
func (r *PostgresCategoryRepository) UpdateCategory(ctx context.Context, userID string, id int64, name string) (*models.Category, error) {
	var c models.Category
	err := r.DB.QueryRowContext(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2 AND user_id = $3 RETURNING id, user_id, name, created_at`,
		name, id, userID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, apperr.ErrDuplicateName
		}
		return nil, fmt.Errorf("UpdateCategory: %w", err)
	}
	return &c, nil
}

// DeleteCategory removes one category.
func (r *PostgresCategoryRepository) DeleteCategory(ctx context.Context, userID string, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	return expectAffected(res)
}
