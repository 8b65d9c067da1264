// Package inventory owns books' physical copies: allocation and release for
// loans, stock additions, retirement and staff status flags. Every operation
// preserves the invariant that a book's available counter equals its count
// of AVAILABLE copies.
package inventory

import (
	"context"

	"libraryapi/internal/entity"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AllocateCopy hands out one AVAILABLE copy of the book for issuing.
func (s *Service) AllocateCopy(ctx context.Context, bookID, preferredCopyID string) (entity.BookCopy, error) {
	return s.repo.Allocate(ctx, bookID, preferredCopyID)
}

// ReleaseCopy returns an ISSUED copy to the pool. AVAILABLE on a normal
// return; MAINTENANCE, LOST or DAMAGED when the return was flagged.
func (s *Service) ReleaseCopy(ctx context.Context, copyID string, newStatus entity.CopyStatus) (entity.BookCopy, error) {
	switch newStatus {
	case entity.CopyAvailable, entity.CopyMaintenance, entity.CopyLost, entity.CopyDamaged:
	default:
		return entity.BookCopy{}, entity.NewValidation("invalid release status: " + string(newStatus))
	}
	return s.repo.Release(ctx, copyID, newStatus)
}

// AddCopies registers newly acquired stock.
func (s *Service) AddCopies(ctx context.Context, bookID string, count int, shelfLocation string) ([]entity.BookCopy, error) {
	if count < 1 {
		return nil, entity.NewValidation("copy count must be at least 1")
	}
	return s.repo.AddCopies(ctx, bookID, count, shelfLocation)
}

// RetireCopy takes a copy out of circulation for good.
func (s *Service) RetireCopy(ctx context.Context, copyID string) error {
	return s.repo.Retire(ctx, copyID)
}

// MarkCopy flags a shelved copy MAINTENANCE, LOST or DAMAGED. Copies that
// are out on loan can only change state through a return.
func (s *Service) MarkCopy(ctx context.Context, copyID string, to entity.CopyStatus) (entity.BookCopy, error) {
	switch to {
	case entity.CopyMaintenance, entity.CopyLost, entity.CopyDamaged:
	default:
		return entity.BookCopy{}, entity.NewValidation("invalid copy flag: " + string(to))
	}
	from := []entity.CopyStatus{entity.CopyAvailable, entity.CopyMaintenance, entity.CopyLost, entity.CopyDamaged}
	return s.repo.SetStatus(ctx, copyID, from, to)
}

// RestoreCopy puts a repaired copy back on the shelf.
func (s *Service) RestoreCopy(ctx context.Context, copyID string) (entity.BookCopy, error) {
	from := []entity.CopyStatus{entity.CopyMaintenance, entity.CopyDamaged}
	return s.repo.SetStatus(ctx, copyID, from, entity.CopyAvailable)
}

func (s *Service) GetCopy(ctx context.Context, copyID string) (entity.BookCopy, error) {
	return s.repo.GetCopy(ctx, copyID)
}

func (s *Service) ListCopies(ctx context.Context, bookID string) ([]entity.BookCopy, error) {
	return s.repo.ListByBook(ctx, bookID)
}
