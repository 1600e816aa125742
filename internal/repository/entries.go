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

const entryColumns = `id, user_id, start_time, end_time, activity_name, category, energy, intent, created_at`

// PostgresEntryRepository stores time entries.
type PostgresEntryRepository struct {
	DB db.DBTX
}

// NewPostgresEntryRepository creates an entry repository on the given handle.
func NewPostgresEntryRepository(db db.DBTX) *PostgresEntryRepository {
	return &PostgresEntryRepository{DB: db}
}

// ListEntries returns the user's entries ordered by start time.
func (r *PostgresEntryRepository) ListEntries(ctx context.Context, userID string) ([]models.Entry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = $1 ORDER BY start_time`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	return entries, nil
}

// CreateEntry inserts an entry owned by userID.
func (r *PostgresEntryRepository) CreateEntry(ctx context.Context, userID string, in models.EntryInput) (*models.Entry, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO entries (user_id, start_time, end_time, activity_name, category, energy, intent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+entryColumns,
		userID, in.StartTime.UTC(), in.EndTime.UTC(), in.ActivityName, in.Category, nullInt(in.Energy), nullString(in.Intent),
	)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("CreateEntry: %w", err)
	}
	return e, nil
}

// UpdateEntry replaces the fields of an entry. The owner column is never
// written. A row that no longer exists yields apperr.ErrNotFound.
func (r *PostgresEntryRepository) UpdateEntry(ctx context.Context, userID string, id int64, in models.EntryInput) (*models.Entry, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE entries
		SET start_time = $1, end_time = $2, activity_name = $3, category = $4, energy = $5, intent = $6
		WHERE id = $7 AND user_id = $8
		RETURNING `+entryColumns,
		in.StartTime.UTC(), in.EndTime.UTC(), in.ActivityName, in.Category, nullInt(in.Energy), nullString(in.Intent), id, userID,
	)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("UpdateEntry: %w", err)
	}
	return e, nil
}

// DeleteEntry removes one entry.
func (r *PostgresEntryRepository) DeleteEntry(ctx context.Context, userID string, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	return expectAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e      models.Entry
		energy sql.NullInt64
		intent sql.NullString
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.StartTime, &e.EndTime, &e.ActivityName, &e.Category, &energy, &intent, &e.CreatedAt); err != nil {
		return nil, err
	}
	if energy.Valid {
		v := int(energy.Int64)
		e.Energy = &v
	}
	if intent.Valid {
		v := intent.String
		e.Intent = &v
	}
	return &e, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
