package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/models"
)

func setupSessionMock(t *testing.T) (*PostgresSessionRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresSessionRepository(db), mock, func() { db.Close() }
}

func TestCreateSession(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := models.Session{Token: "tok", UserID: "u-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`)).
		WithArgs("tok", "u-1", now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestResolveSession(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`SELECT s.user_id FROM sessions s`)

	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name: "valid",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(query).WithArgs("tok", now).
					WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u-1"))
			},
			wantID: "u-1",
		},
		{
			name: "expired or unknown",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(query).WithArgs("tok", now).
					WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
			},
			wantErr: apperr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupSessionMock(t)
			defer cleanup()
			tt.setup(mock)

			id, err := repo.ResolveSession(context.Background(), "tok", now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("expected id %q, got %q", tt.wantID, id)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDeleteSession_UnknownTokenIsNotAnError(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE token = $1`)).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteSession(context.Background(), "nope"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE expires_at <= $1`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 removed, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
