package service

import (
	"context"

	"github.com/atinyakov/timeledger/internal/models"
)

// Guard authorizes a per-id mutation. *OwnershipChecker implements it.
type Guard interface {
	Check(ctx context.Context, res models.Resource, id int64, userID string) error
}

// EntryRepository defines the persistence operations for entries.
type EntryRepository interface {
	ListEntries(ctx context.Context, userID string) ([]models.Entry, error)
	CreateEntry(ctx context.Context, userID string, in models.EntryInput) (*models.Entry, error)
	UpdateEntry(ctx context.Context, userID string, id int64, in models.EntryInput) (*models.Entry, error)
	DeleteEntry(ctx context.Context, userID string, id int64) error
}

// EntryService manages a user's time entries.
type EntryService struct {
	repo  EntryRepository
	guard Guard
}

// NewEntryService constructs an EntryService.
func NewEntryService(repo EntryRepository, guard Guard) *EntryService {
	return &EntryService{repo: repo, guard: guard}
}

// List returns the caller's entries ordered by start time.
func (s *EntryService) List(ctx context.Context, userID string) ([]models.Entry, error) {
	return s.repo.ListEntries(ctx, userID)
}

// Create stores a new entry owned by userID.
func (s *EntryService) Create(ctx context.Context, userID string, in models.EntryInput) (*models.Entry, error) {
	return s.repo.CreateEntry(ctx, userID, in)
}

// Update replaces an entry the caller owns.
func (s *EntryService) Update(ctx context.Context, userID string, id int64, in models.EntryInput) (*models.Entry, error) {
	if err := s.guard.Check(ctx, models.ResourceEntries, id, userID); err != nil {
		return nil, err
	}
	return s.repo.UpdateEntry(ctx, userID, id, in)
}

// Delete removes an entry the caller owns.
func (s *EntryService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.guard.Check(ctx, models.ResourceEntries, id, userID); err != nil {
		return err
	}
	return s.repo.DeleteEntry(ctx, userID, id)
}

// CategoryRepository defines the persistence operations for categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	CreateCategory(ctx context.Context, userID, name string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID string, id int64, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID string, id int64) error
}

// CategoryService manages a user's categories.
type CategoryService struct {
	repo  CategoryRepository
	guard Guard
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo CategoryRepository, guard Guard) *CategoryService {
	return &CategoryService{repo: repo, guard: guard}
}

// List returns the caller's categories ordered by name.
func (s *CategoryService) List(ctx context.Context, userID string) ([]models.Category, error) {
	return s.repo.ListCategories(ctx, userID)
}

// Create adds a category. Duplicate names yield apperr.ErrDuplicateName.
func (s *CategoryService) Create(ctx context.Context, userID, name string) (*models.Category, error) {
	return s.repo.CreateCategory(ctx, userID, name)
}

// Update renames a category the caller owns.
func (s *CategoryService) Update(ctx context.Context, userID string, id int64, name string) (*models.Category, error) {
	if err := s.guard.Check(ctx, models.ResourceCategories, id, userID); err != nil {
		return nil, err
	}
	return s.repo.UpdateCategory(ctx, userID, id, name)
}

// Delete removes a category the caller owns.
func (s *CategoryService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.guard.Check(ctx, models.ResourceCategories, id, userID); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, userID, id)
}

// ReflectionRepository defines the persistence operations for reflections.
type ReflectionRepository interface {
	ListReflections(ctx context.Context, userID string) ([]models.Reflection, error)
	CreateReflection(ctx context.Context, userID string, in models.ReflectionInput) (*models.Reflection, error)
	UpdateReflection(ctx context.Context, userID string, id int64, in models.ReflectionInput) (*models.Reflection, error)
	DeleteReflection(ctx context.Context, userID string, id int64) error
}

// ReflectionService manages a user's daily reflections.
type ReflectionService struct {
	repo  ReflectionRepository
	guard Guard
}

// NewReflectionService constructs a ReflectionService.
func NewReflectionService(repo ReflectionRepository, guard Guard) *ReflectionService {
	return &ReflectionService{repo: repo, guard: guard}
}

// List returns the caller's reflections, newest date first.
func (s *ReflectionService) List(ctx context.Context, userID string) ([]models.Reflection, error) {
	return s.repo.ListReflections(ctx, userID)
}

// Create records a reflection owned by userID.
func (s *ReflectionService) Create(ctx context.Context, userID string, in models.ReflectionInput) (*models.Reflection, error) {
	return s.repo.CreateReflection(ctx, userID, in)
}

// Update replaces a reflection the caller owns.
func (s *ReflectionService) Update(ctx context.Context, userID string, id int64, in models.ReflectionInput) (*models.Reflection, error) {
	if err := s.guard.Check(ctx, models.ResourceReflections, id, userID); err != nil {
		return nil, err
	}
	return s.repo.UpdateReflection(ctx, userID, id, in)
}

// Delete removes a reflection the caller owns.
func (s *ReflectionService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.guard.Check(ctx, models.ResourceReflections, id, userID); err != nil {
		return err
	}
	return s.repo.DeleteReflection(ctx, userID, id)
}
