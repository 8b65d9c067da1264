package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"libraryapi/internal/entity"
)

// Repository stores payment records.
type Repository interface {
	Create(ctx context.Context, p entity.Payment) error
	Get(ctx context.Context, id string) (entity.Payment, error)
	// SumCompletedForTransaction totals COMPLETED payments recorded against
	// one loan, for the fine-settled check.
	SumCompletedForTransaction(ctx context.Context, transactionID string) (decimal.Decimal, error)
	SetStatus(ctx context.Context, id string, from, to entity.PaymentStatus) (entity.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Payment, error)
}

// Transactions is the slice of the loan ledger reconciliation needs.
type Transactions interface {
	GetTransaction(ctx context.Context, id string) (entity.Transaction, error)
	SetFinePaid(ctx context.Context, id string) error
	// ListUnsettled returns a user's loans that still carry money owed:
	// RETURNED with an unpaid fine, or currently OVERDUE.
	ListUnsettled(ctx context.Context, userID string) ([]entity.Transaction, error)
}
