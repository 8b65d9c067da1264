// Package circulation runs the loan state machine: issuing against the copy
// pool, renewals, returns with fine assessment, and the periodic overdue
// sweep. It bridges borrow requests and direct staff issues onto inventory
// and the fine calculator.
package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"libraryapi/internal/authz"
	"libraryapi/internal/entity"
	"libraryapi/internal/fine"
	"libraryapi/internal/notify"
	"libraryapi/internal/settings"
)

type Service struct {
	repo     Repository
	requests Requests
	fines    Fines
	books    Books
	policy   settings.Source
	notifier notify.Notifier
	log      *zap.Logger
}

func NewService(repo Repository, requests Requests, fines Fines, books Books, policy settings.Source, notifier notify.Notifier, log *zap.Logger) *Service {
	return &Service{repo: repo, requests: requests, fines: fines, books: books, policy: policy, notifier: notifier, log: log}
}

// IssueParams describes a direct issue. CopyID is a preference, not a
// demand: when it is taken, any AVAILABLE copy of the book serves.
type IssueParams struct {
	UserID       string
	BookID       string
	CopyID       string
	DueDate      *time.Time
	HomeDelivery bool
}

// Issue opens a loan. Preconditions: no unpaid fines and the user's active
// loan count below the configured limit. On NoCopyAvailable nothing is
// written.
func (s *Service) Issue(ctx context.Context, p IssueParams) (entity.Transaction, error) {
	pol, err := s.policy.Policy(ctx)
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("load policy: %w", err)
	}

	now := time.Now().UTC()

	outstanding, err := s.fines.OutstandingFinesFor(ctx, p.UserID, now)
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("check fines: %w", err)
	}
	if outstanding.IsPositive() {
		return entity.Transaction{}, entity.ErrOutstandingFines
	}

	active, err := s.repo.CountActive(ctx, p.UserID)
	if err != nil {
		return entity.Transaction{}, err
	}
	if active >= pol.BorrowLimit {
		return entity.Transaction{}, entity.ErrBorrowLimit
	}

	due := now.AddDate(0, 0, pol.LoanPeriodDays)
	if p.DueDate != nil {
		due = *p.DueDate
	}

	t, err := s.repo.CreateLoan(ctx, CreateLoanParams{
		UserID:          p.UserID,
		BookID:          p.BookID,
		PreferredCopyID: p.CopyID,
		IssueDate:       now,
		DueDate:         due,
		HomeDelivery:    p.HomeDelivery,
	})
	if err != nil {
		return entity.Transaction{}, err
	}

	s.notifier.Notify(ctx, notify.Event{
		Kind:          notify.BookIssued,
		UserID:        t.UserID,
		BookID:        t.BookID,
		BookTitle:     s.bookTitle(ctx, t.BookID),
		TransactionID: t.ID,
		Detail:        "due " + t.DueDate.Format("2006-01-02"),
	})
	return t, nil
}

// FulfillFromRequest issues a copy against an APPROVED borrow request. When
// no copy is available the request stays APPROVED and the failure surfaces
// to the caller; the request is not auto-rejected.
func (s *Service) FulfillFromRequest(ctx context.Context, requestID string) (entity.Transaction, error) {
	r, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return entity.Transaction{}, err
	}
	if r.Status != entity.RequestApproved {
		return entity.Transaction{}, entity.ErrInvalidState
	}

	t, err := s.Issue(ctx, IssueParams{UserID: r.UserID, BookID: r.BookID, DueDate: r.DueDate})
	if err != nil {
		return entity.Transaction{}, err
	}

	if err := s.requests.MarkFulfilled(ctx, requestID); err != nil {
		// the loan exists; surface the inconsistency instead of hiding it
		s.log.Error("loan issued but request not marked fulfilled",
			zap.String("request_id", requestID),
			zap.String("transaction_id", t.ID),
			zap.Error(err))
		return entity.Transaction{}, fmt.Errorf("mark request fulfilled: %w", err)
	}
	return t, nil
}

// Renew extends a loan by the configured renewal period. Renewing an
// overdue loan is allowed but does not clear the fine already accrued.
func (s *Service) Renew(ctx context.Context, actorID, actorRole, transactionID string) (entity.Transaction, error) {
	pol, err := s.policy.Policy(ctx)
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("load policy: %w", err)
	}

	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return entity.Transaction{}, err
	}
	if err := authz.Require(actorID, actorRole, t.UserID); err != nil {
		return entity.Transaction{}, err
	}
	if !renewable(t.Status) {
		return entity.Transaction{}, entity.ErrInvalidState
	}
	if t.RenewalCount >= pol.MaxRenewals {
		return entity.Transaction{}, entity.ErrRenewalLimit
	}

	return s.repo.Renew(ctx, transactionID, pol.RenewalPeriodDays, pol.MaxRenewals)
}

// ReturnResult pairs the closed loan with the fine it produced.
type ReturnResult struct {
	Transaction entity.Transaction
	FineAmount  decimal.Decimal
}

// Return closes a loan. The fine is priced against the due date at the
// moment of return; the copy is released AVAILABLE unless the reported
// condition sends it to DAMAGED or LOST instead. Release and status update
// are one atomic write.
func (s *Service) Return(ctx context.Context, actorID, actorRole, transactionID string, condition entity.CopyCondition) (ReturnResult, error) {
	pol, err := s.policy.Policy(ctx)
	if err != nil {
		return ReturnResult{}, fmt.Errorf("load policy: %w", err)
	}

	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return ReturnResult{}, err
	}
	if err := authz.Require(actorID, actorRole, t.UserID); err != nil {
		return ReturnResult{}, err
	}
	if t.Status == entity.TransactionReturned {
		return ReturnResult{}, entity.ErrInvalidState
	}

	now := time.Now().UTC()
	amount := fine.Compute(t.DueDate, now, pol.GraceDays, pol.FinePerDay, pol.MaxFine)

	closed, err := s.repo.Close(ctx, transactionID, now, amount, releaseStatus(condition))
	if err != nil {
		return ReturnResult{}, err
	}

	title := s.bookTitle(ctx, closed.BookID)
	s.notifier.Notify(ctx, notify.Event{
		Kind:          notify.BookReturned,
		UserID:        closed.UserID,
		BookID:        closed.BookID,
		BookTitle:     title,
		TransactionID: closed.ID,
	})
	if amount.IsPositive() {
		s.notifier.Notify(ctx, notify.Event{
			Kind:          notify.FineAssessed,
			UserID:        closed.UserID,
			BookID:        closed.BookID,
			BookTitle:     title,
			TransactionID: closed.ID,
			Amount:        amount,
		})
	}
	return ReturnResult{Transaction: closed, FineAmount: amount}, nil
}

// FinePreview prices "the fine if returned now" without touching the loan.
func (s *Service) FinePreview(ctx context.Context, actorID, actorRole, transactionID string, asOf time.Time) (decimal.Decimal, error) {
	pol, err := s.policy.Policy(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load policy: %w", err)
	}

	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := authz.Require(actorID, actorRole, t.UserID); err != nil {
		return decimal.Zero, err
	}
	if t.Status == entity.TransactionReturned {
		return t.FineAmount, nil
	}
	return fine.Compute(t.DueDate, asOf, pol.GraceDays, pol.FinePerDay, pol.MaxFine), nil
}

// MarkOverdue is the time-driven sweep. Safe to re-run: loans already
// OVERDUE or returned in the meantime are skipped by the status guard.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	lapsed, err := s.repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if len(lapsed) > 0 {
		s.log.Info("overdue sweep flagged loans",
			zap.Int("count", len(lapsed)),
			zap.Time("as_of", asOf))
	}
	return len(lapsed), nil
}

// Get returns one loan, owner-or-staff scoped.
func (s *Service) Get(ctx context.Context, actorID, actorRole, transactionID string) (entity.Transaction, error) {
	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return entity.Transaction{}, err
	}
	if err := authz.Require(actorID, actorRole, t.UserID); err != nil {
		return entity.Transaction{}, err
	}
	return t, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]entity.Transaction, error) {
	return s.repo.ListByUser(ctx, userID)
}

func renewable(status entity.TransactionStatus) bool {
	switch status {
	case entity.TransactionIssued, entity.TransactionOverdue, entity.TransactionRenewed:
		return true
	}
	return false
}

func releaseStatus(condition entity.CopyCondition) entity.CopyStatus {
	switch condition {
	case entity.ConditionDamaged:
		return entity.CopyDamaged
	case entity.ConditionLost:
		return entity.CopyLost
	default:
		return entity.CopyAvailable
	}
}

func (s *Service) bookTitle(ctx context.Context, bookID string) string {
	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return ""
	}
	return book.Title
}
