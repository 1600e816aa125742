package service

import (
	"context"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/models"
)

// OwnershipRepository loads the owner of a single resource row.
type OwnershipRepository interface {
	OwnerOf(ctx context.Context, res models.Resource, id int64) (string, error)
}

// OwnershipChecker decides whether a user may modify a resource.
type OwnershipChecker struct {
	repo OwnershipRepository
	// conceal reports foreign resources as missing instead of forbidden.
	conceal bool
}

// NewOwnershipChecker constructs an OwnershipChecker.
func NewOwnershipChecker(repo OwnershipRepository, concealForeign bool) *OwnershipChecker {
	return &OwnershipChecker{repo: repo, conceal: concealForeign}
}

// Check returns nil when userID owns the resource, apperr.ErrNotFound when
// it does not exist and apperr.ErrForbidden when someone else owns it.
func (c *OwnershipChecker) Check(ctx context.Context, res models.Resource, id int64, userID string) error {
	owner, err := c.repo.OwnerOf(ctx, res, id)
	if err != nil {
		return err
	}
	if owner != userID {
		if c.conceal {
			return apperr.ErrNotFound
		}
		return apperr.ErrForbidden
	}
	return nil
}
