package request

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"libraryapi/internal/entity"
)

// Fields are the optional columns a transition may set.
type Fields struct {
	RejectionReason *string
	DueDate         *time.Time
}

// Repository stores borrow requests. Transition is guarded on the current
// status so concurrent arbitration cannot double-apply.
type Repository interface {
	Create(ctx context.Context, r entity.BorrowRequest) error
	Get(ctx context.Context, id string) (entity.BorrowRequest, error)
	HasOpenForBook(ctx context.Context, userID, bookID string) (bool, error)
	Transition(ctx context.Context, id string, from, to entity.RequestStatus, set Fields) (entity.BorrowRequest, error)
	ListByUser(ctx context.Context, userID string) ([]entity.BorrowRequest, error)
	ListByStatus(ctx context.Context, status entity.RequestStatus) ([]entity.BorrowRequest, error)
}

// Fines is the gate consulted before accepting a request, mirroring the
// check the circulation service performs on direct issue.
type Fines interface {
	OutstandingFinesFor(ctx context.Context, userID string, asOf time.Time) (decimal.Decimal, error)
}

// Books resolves catalog metadata for existence checks and notifications.
type Books interface {
	GetBook(ctx context.Context, bookID string) (entity.Book, error)
}
