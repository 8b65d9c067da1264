// Package request runs the borrow-request workflow: a member files an
// intent to borrow a title, staff arbitrate it, and the circulation service
// turns an approved request into a loan. No copy is held before fulfillment.
package request

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"libraryapi/internal/authz"
	"libraryapi/internal/entity"
	"libraryapi/internal/notify"
	"libraryapi/internal/settings"
)

type Service struct {
	repo     Repository
	fines    Fines
	books    Books
	policy   settings.Source
	notifier notify.Notifier
}

func NewService(repo Repository, fines Fines, books Books, policy settings.Source, notifier notify.Notifier) *Service {
	return &Service{repo: repo, fines: fines, books: books, policy: policy, notifier: notifier}
}

// Create files a PENDING request. A user gets one open request per book and
// must have no unpaid fines.
func (s *Service) Create(ctx context.Context, userID, bookID, notes string) (entity.BorrowRequest, error) {
	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return entity.BorrowRequest{}, err
	}

	outstanding, err := s.fines.OutstandingFinesFor(ctx, userID, time.Now().UTC())
	if err != nil {
		return entity.BorrowRequest{}, fmt.Errorf("check fines: %w", err)
	}
	if outstanding.IsPositive() {
		return entity.BorrowRequest{}, entity.ErrOutstandingFines
	}

	open, err := s.repo.HasOpenForBook(ctx, userID, bookID)
	if err != nil {
		return entity.BorrowRequest{}, err
	}
	if open {
		return entity.BorrowRequest{}, entity.ErrDuplicateRequest
	}

	now := time.Now().UTC()
	r := entity.BorrowRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		BookID:      bookID,
		Status:      entity.RequestPending,
		Notes:       notes,
		RequestedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return entity.BorrowRequest{}, err
	}

	s.notifier.Notify(ctx, notify.Event{
		Kind:      notify.RequestCreated,
		UserID:    userID,
		BookID:    bookID,
		BookTitle: book.Title,
		RequestID: r.ID,
	})
	return r, nil
}

// Cancel withdraws a PENDING request. Only the requesting user may cancel;
// there is no staff override for this transition.
func (s *Service) Cancel(ctx context.Context, actorID, requestID string) (entity.BorrowRequest, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return entity.BorrowRequest{}, err
	}
	if r.UserID != actorID {
		return entity.BorrowRequest{}, entity.ErrUnauthorized
	}
	return s.repo.Transition(ctx, requestID, entity.RequestPending, entity.RequestCancelled, Fields{})
}

// Approve authorizes later fulfillment. The due date defaults to the
// request date plus the configured loan period; no copy is allocated here.
func (s *Service) Approve(ctx context.Context, requestID string, dueDate *time.Time) (entity.BorrowRequest, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return entity.BorrowRequest{}, err
	}

	due := dueDate
	if due == nil {
		pol, err := s.policy.Policy(ctx)
		if err != nil {
			return entity.BorrowRequest{}, fmt.Errorf("load policy: %w", err)
		}
		d := r.RequestedAt.AddDate(0, 0, pol.LoanPeriodDays)
		due = &d
	}

	approved, err := s.repo.Transition(ctx, requestID, entity.RequestPending, entity.RequestApproved, Fields{DueDate: due})
	if err != nil {
		return entity.BorrowRequest{}, err
	}

	s.notifier.Notify(ctx, notify.Event{
		Kind:      notify.RequestApproved,
		UserID:    approved.UserID,
		BookID:    approved.BookID,
		BookTitle: s.bookTitle(ctx, approved.BookID),
		RequestID: approved.ID,
	})
	return approved, nil
}

// Reject closes a PENDING request with a mandatory reason.
func (s *Service) Reject(ctx context.Context, requestID, reason string) (entity.BorrowRequest, error) {
	if reason == "" {
		return entity.BorrowRequest{}, entity.NewValidation("rejection reason is required")
	}

	rejected, err := s.repo.Transition(ctx, requestID, entity.RequestPending, entity.RequestRejected, Fields{RejectionReason: &reason})
	if err != nil {
		return entity.BorrowRequest{}, err
	}

	s.notifier.Notify(ctx, notify.Event{
		Kind:      notify.RequestRejected,
		UserID:    rejected.UserID,
		BookID:    rejected.BookID,
		BookTitle: s.bookTitle(ctx, rejected.BookID),
		RequestID: rejected.ID,
		Detail:    reason,
	})
	return rejected, nil
}

// MarkFulfilled records that the circulation service issued a copy against
// this request. Valid only from APPROVED.
func (s *Service) MarkFulfilled(ctx context.Context, requestID string) error {
	_, err := s.repo.Transition(ctx, requestID, entity.RequestApproved, entity.RequestFulfilled, Fields{})
	return err
}

// Get returns one request, owner-or-staff scoped.
func (s *Service) Get(ctx context.Context, actorID, actorRole, requestID string) (entity.BorrowRequest, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return entity.BorrowRequest{}, err
	}
	if err := authz.Require(actorID, actorRole, r.UserID); err != nil {
		return entity.BorrowRequest{}, err
	}
	return r, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]entity.BorrowRequest, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListPending is the staff arbitration queue.
func (s *Service) ListPending(ctx context.Context) ([]entity.BorrowRequest, error) {
	return s.repo.ListByStatus(ctx, entity.RequestPending)
}

// Fulfillment is the narrow, unscoped view the circulation service takes of
// the workflow: raw lookup plus the fulfillment transition.
type Fulfillment struct {
	Svc *Service
}

func (f Fulfillment) Get(ctx context.Context, requestID string) (entity.BorrowRequest, error) {
	return f.Svc.repo.Get(ctx, requestID)
}

func (f Fulfillment) MarkFulfilled(ctx context.Context, requestID string) error {
	return f.Svc.MarkFulfilled(ctx, requestID)
}

// bookTitle is best-effort context for notifications; a miss returns "".
func (s *Service) bookTitle(ctx context.Context, bookID string) string {
	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return ""
	}
	return book.Title
}
