package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/db"
	"github.com/atinyakov/timeledger/internal/models"
)

const dateLayout = "2006-01-02"

// PostgresReflectionRepository stores daily reflections.
type PostgresReflectionRepository struct {
	DB db.DBTX
}

// NewPostgresReflectionRepository creates a reflection repository on the given handle.
func NewPostgresReflectionRepository(db db.DBTX) *PostgresReflectionRepository {
	return &PostgresReflectionRepository{DB: db}
}

// ListReflections returns the user's reflections, newest day first.
func (r *PostgresReflectionRepository) ListReflections(ctx context.Context, userID string) ([]models.Reflection, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, date, content, created_at FROM reflections WHERE user_id = $1 ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListReflections: %w", err)
	}
	defer rows.Close()

	reflections := make([]models.Reflection, 0)
	for rows.Next() {
		ref, err := scanReflection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		reflections = append(reflections, *ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListReflections: %w", err)
	}
	return reflections, nil
}

// CreateReflection inserts a reflection owned by userID.
func (r *PostgresReflectionRepository) CreateReflection(ctx context.Context, userID string, in models.ReflectionInput) (*models.Reflection, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO reflections (user_id, date, content) VALUES ($1, $2, $3) RETURNING id, user_id, date, content, created_at`,
		userID, in.Date, in.Content,
	)
	ref, err := scanReflection(row)
	if err != nil {
		return nil, fmt.Errorf("CreateReflection: %w", err)
	}
	return ref, nil
}

// UpdateReflection replaces the date and content of a reflection.
func (r *PostgresReflectionRepository) UpdateReflection(ctx context.Context, userID string, id int64, in models.ReflectionInput) (*models.Reflection, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE reflections SET date = $1, content = $2 WHERE id = $3 AND user_id = $4 RETURNING id, user_id, date, content, created_at`,
		in.Date, in.Content, id, userID,
	)
	ref, err := scanReflection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("UpdateReflection: %w", err)
	}
	return ref, nil
}

// DeleteReflection removes one reflection.
func (r *PostgresReflectionRepository) DeleteReflection(ctx context.Context, userID string, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reflections WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteReflection: %w", err)
	}
	return expectAffected(res)
}

func scanReflection(s scanner) (*models.Reflection, error) {
	var (
		ref  models.Reflection
		date time.Time
	)
	if err := s.Scan(&ref.ID, &ref.UserID, &date, &ref.Content, &ref.CreatedAt); err != nil {
		return nil, err
	}
	ref.Date = date.Format(dateLayout)
	return &ref, nil
}
