package inventory

import (
	"context"

	"libraryapi/internal/entity"
)

// Repository serializes all changes to a book's copy pool. Implementations
// must keep the available-copies counter in step with copy-status writes
// inside a single storage transaction.
type Repository interface {
	GetCopy(ctx context.Context, copyID string) (entity.BookCopy, error)
	ListByBook(ctx context.Context, bookID string) ([]entity.BookCopy, error)

	// Allocate picks an AVAILABLE copy (the preferred one when given and
	// itself AVAILABLE, else the lowest copy number), marks it ISSUED and
	// decrements the counter. Fails with ErrNoCopyAvailable.
	Allocate(ctx context.Context, bookID, preferredCopyID string) (entity.BookCopy, error)

	// Release moves a copy out of ISSUED into newStatus, incrementing the
	// counter only when newStatus is AVAILABLE. Fails with ErrCopyNotIssued.
	Release(ctx context.Context, copyID string, newStatus entity.CopyStatus) (entity.BookCopy, error)

	// AddCopies creates count new AVAILABLE copies with sequential numbers
	// and bumps both counters.
	AddCopies(ctx context.Context, bookID string, count int, shelfLocation string) ([]entity.BookCopy, error)

	// Retire removes a copy from circulation (soft delete; history keeps
	// referencing it). Fails with ErrCopyIssued while the copy is out.
	Retire(ctx context.Context, copyID string) error

	// SetStatus transitions a copy between non-ISSUED states, guarded on the
	// current status and adjusting the counter across the AVAILABLE boundary.
	SetStatus(ctx context.Context, copyID string, allowedFrom []entity.CopyStatus, to entity.CopyStatus) (entity.BookCopy, error)
}
