package circulation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"libraryapi/internal/entity"
)

// CreateLoanParams describes a loan to open. Allocation of the copy and the
// insert of the transaction row happen atomically in the repository.
type CreateLoanParams struct {
	UserID          string
	BookID          string
	PreferredCopyID string
	IssueDate       time.Time
	DueDate         time.Time
	HomeDelivery    bool
}

// Repository stores loans. The multi-step operations (CreateLoan, Close) are
// single storage transactions: a crash can never leave a copy ISSUED without
// a matching open loan, or a closed loan holding its copy.
type Repository interface {
	// CreateLoan allocates a copy and opens the loan. ErrNoCopyAvailable
	// when the book has no AVAILABLE copy; nothing is written in that case.
	CreateLoan(ctx context.Context, p CreateLoanParams) (entity.Transaction, error)

	Get(ctx context.Context, id string) (entity.Transaction, error)

	// Renew extends the due date by renewalDays and bumps the counter,
	// guarded in one statement on renewable status and renewal_count <
	// maxRenewals.
	Renew(ctx context.Context, id string, renewalDays, maxRenewals int) (entity.Transaction, error)

	// Close returns the loan's copy into releaseStatus and stamps the
	// transaction RETURNED with the final fine, atomically.
	Close(ctx context.Context, id string, returnedAt time.Time, fineAmount decimal.Decimal, releaseStatus entity.CopyStatus) (entity.Transaction, error)

	// MarkOverdue flips lapsed ISSUED/RENEWED loans to OVERDUE as of the
	// given time. Status-guarded, so a concurrent return wins; idempotent.
	MarkOverdue(ctx context.Context, asOf time.Time) ([]entity.Transaction, error)

	// CountActive counts a user's loans still holding a copy.
	CountActive(ctx context.Context, userID string) (int, error)

	ListByUser(ctx context.Context, userID string) ([]entity.Transaction, error)
}

// Requests is the slice of the borrow-request workflow fulfillment needs.
type Requests interface {
	Get(ctx context.Context, id string) (entity.BorrowRequest, error)
	MarkFulfilled(ctx context.Context, id string) error
}

// Fines gates issuing on unpaid balances.
type Fines interface {
	OutstandingFinesFor(ctx context.Context, userID string, asOf time.Time) (decimal.Decimal, error)
}

// Books resolves titles for notifications.
type Books interface {
	GetBook(ctx context.Context, bookID string) (entity.Book, error)
}
