// Package payment reconciles money against the loan ledger: it records
// fine, damage, deposit and delivery payments and answers the
// outstanding-balance question that gates borrowing.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libraryapi/internal/authz"
	"libraryapi/internal/entity"
	"libraryapi/internal/fine"
	"libraryapi/internal/notify"
	"libraryapi/internal/settings"
)

type Service struct {
	repo         Repository
	transactions Transactions
	policy       settings.Source
	notifier     notify.Notifier
}

func NewService(repo Repository, transactions Transactions, policy settings.Source, notifier notify.Notifier) *Service {
	return &Service{repo: repo, transactions: transactions, policy: policy, notifier: notifier}
}

// RecordParams describes a payment to record. TransactionID ties the
// payment to a loan; without it the payment stands against the user alone
// (e.g. a membership deposit).
type RecordParams struct {
	UserID        string
	TransactionID *string
	Method        entity.PaymentMethod
	Breakdown     entity.PaymentBreakdown
}

// RecordPayment stores a COMPLETED payment. Partial fine payments are
// accepted, but the loan's fine-paid flag only flips once completed
// payments cover the full fine.
func (s *Service) RecordPayment(ctx context.Context, p RecordParams) (entity.Payment, error) {
	total := p.Breakdown.Total()
	if !total.IsPositive() {
		return entity.Payment{}, entity.NewValidation("payment amount must be positive")
	}
	switch p.Method {
	case entity.PaymentCash, entity.PaymentCard, entity.PaymentOnline:
	default:
		return entity.Payment{}, entity.NewValidation("unknown payment method: " + string(p.Method))
	}

	userID := p.UserID
	var loan *entity.Transaction
	if p.TransactionID != nil {
		t, err := s.transactions.GetTransaction(ctx, *p.TransactionID)
		if err != nil {
			return entity.Payment{}, err
		}
		loan = &t
		if userID == "" {
			userID = t.UserID
		} else if userID != t.UserID {
			return entity.Payment{}, entity.NewValidation("payment user does not match the loan's user")
		}
	}
	if userID == "" {
		return entity.Payment{}, entity.NewValidation("payment needs a user or a transaction")
	}

	now := time.Now().UTC()
	pay := entity.Payment{
		ID:            uuid.NewString(),
		UserID:        userID,
		TransactionID: p.TransactionID,
		Amount:        total,
		Breakdown:     p.Breakdown,
		Method:        p.Method,
		Status:        entity.PaymentCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, pay); err != nil {
		return entity.Payment{}, err
	}

	if loan != nil && loan.FineAmount.IsPositive() && !loan.FinePaid {
		paid, err := s.repo.SumCompletedForTransaction(ctx, loan.ID)
		if err != nil {
			return entity.Payment{}, fmt.Errorf("sum payments: %w", err)
		}
		if paid.GreaterThanOrEqual(loan.FineAmount) {
			if err := s.transactions.SetFinePaid(ctx, loan.ID); err != nil {
				return entity.Payment{}, fmt.Errorf("settle fine: %w", err)
			}
		}
	}

	s.notifier.Notify(ctx, notify.Event{
		Kind:      notify.PaymentRecorded,
		UserID:    userID,
		PaymentID: pay.ID,
		Amount:    total,
	})
	return pay, nil
}

// RefundPayment reverses a completed payment. The record is otherwise
// immutable.
func (s *Service) RefundPayment(ctx context.Context, paymentID string) (entity.Payment, error) {
	return s.repo.SetStatus(ctx, paymentID, entity.PaymentCompleted, entity.PaymentRefunded)
}

// OutstandingFinesFor sums what the user currently owes: final fines on
// RETURNED loans not yet settled, plus the live fine on OVERDUE loans as if
// returned at asOf. This is the gating balance for borrowing.
func (s *Service) OutstandingFinesFor(ctx context.Context, userID string, asOf time.Time) (decimal.Decimal, error) {
	pol, err := s.policy.Policy(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load policy: %w", err)
	}

	loans, err := s.transactions.ListUnsettled(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, t := range loans {
		switch t.Status {
		case entity.TransactionReturned:
			if !t.FinePaid && t.FineAmount.IsPositive() {
				total = total.Add(t.FineAmount)
			}
		case entity.TransactionOverdue:
			total = total.Add(fine.Compute(t.DueDate, asOf, pol.GraceDays, pol.FinePerDay, pol.MaxFine))
		}
	}
	return total, nil
}

// Get returns one payment, owner-or-staff scoped.
func (s *Service) Get(ctx context.Context, actorID, actorRole, paymentID string) (entity.Payment, error) {
	p, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return entity.Payment{}, err
	}
	if err := authz.Require(actorID, actorRole, p.UserID); err != nil {
		return entity.Payment{}, err
	}
	return p, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]entity.Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}
