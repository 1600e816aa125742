package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/timeledger/internal/models"
)

// AccountRepository removes a user and everything they own atomically.
type AccountRepository interface {
	DeleteAccount(ctx context.Context, userID string) error
}

// SessionDestroyer ends a session by token. *SessionManager implements it.
type SessionDestroyer interface {
	Destroy(ctx context.Context, token string) error
}

// AccountService deletes accounts.
type AccountService struct {
	repo     AccountRepository
	sessions SessionDestroyer
	log      *zap.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo AccountRepository, sessions SessionDestroyer, log *zap.Logger) *AccountService {
	return &AccountService{repo: repo, sessions: sessions, log: log}
}

// Delete removes the user and every resource they own, then ends the
// caller's session. A failure to destroy the session is logged, not returned.
func (s *AccountService) Delete(ctx context.Context, userID, token string) error {
	if err := s.repo.DeleteAccount(ctx, userID); err != nil {
		return err
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		s.log.Warn("failed to destroy session after account deletion",
			zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// ExportService gathers everything a user owns into one bundle.
type ExportService struct {
	entries     EntryRepository
	categories  CategoryRepository
	reflections ReflectionRepository
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(entries EntryRepository, categories CategoryRepository, reflections ReflectionRepository) *ExportService {
	return &ExportService{entries: entries, categories: categories, reflections: reflections, now: time.Now}
}

// Export returns the caller's entries, categories and reflections.
func (s *ExportService) Export(ctx context.Context, userID string) (*models.Export, error) {
	entries, err := s.entries.ListEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	reflections, err := s.reflections.ListReflections(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Export{
		Entries:     entries,
		Categories:  categories,
		Reflections: reflections,
		ExportedAt:  s.now().UTC(),
	}, nil
}
