package circulation_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libraryapi/internal/circulation"
	"libraryapi/internal/entity"
)

// memStore implements circulation.Repository against in-memory maps with the
// same atomicity discipline the Postgres repository gets from transactions:
// every operation runs under one lock, so the concurrency tests exercise
// real contention on the copy pool.
type memStore struct {
	mu     sync.Mutex
	books  map[string]*entity.Book
	copies map[string]*entity.BookCopy
	loans  map[string]*entity.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		books:  make(map[string]*entity.Book),
		copies: make(map[string]*entity.BookCopy),
		loans:  make(map[string]*entity.Transaction),
	}
}

func (m *memStore) addBook(id, title string, copies int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[id] = &entity.Book{ID: id, Title: title, TotalCopies: copies, AvailableCopies: copies}
	for i := 1; i <= copies; i++ {
		c := &entity.BookCopy{
			ID:         uuid.NewString(),
			BookID:     id,
			CopyNumber: i,
			Status:     entity.CopyAvailable,
			Condition:  entity.ConditionGood,
		}
		m.copies[c.ID] = c
	}
}

func (m *memStore) CreateLoan(_ context.Context, p circulation.CreateLoanParams) (entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var candidates []*entity.BookCopy
	for _, c := range m.copies {
		if c.BookID == p.BookID && c.Status == entity.CopyAvailable {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return entity.Transaction{}, entity.ErrNoCopyAvailable
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ID == p.PreferredCopyID {
			return true
		}
		if candidates[j].ID == p.PreferredCopyID {
			return false
		}
		return candidates[i].CopyNumber < candidates[j].CopyNumber
	})

	picked := candidates[0]
	picked.Status = entity.CopyIssued
	m.books[p.BookID].AvailableCopies--

	t := &entity.Transaction{
		ID:           uuid.NewString(),
		UserID:       p.UserID,
		BookID:       p.BookID,
		CopyID:       picked.ID,
		Status:       entity.TransactionIssued,
		IssueDate:    p.IssueDate,
		DueDate:      p.DueDate,
		FineAmount:   decimal.Zero,
		HomeDelivery: p.HomeDelivery,
	}
	m.loans[t.ID] = t
	return *t, nil
}

func (m *memStore) Get(_ context.Context, id string) (entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.loans[id]
	if !ok {
		return entity.Transaction{}, entity.ErrNotFound
	}
	return *t, nil
}

func (m *memStore) Renew(_ context.Context, id string, renewalDays, maxRenewals int) (entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.loans[id]
	if !ok {
		return entity.Transaction{}, entity.ErrNotFound
	}
	if t.Status == entity.TransactionReturned {
		return entity.Transaction{}, entity.ErrInvalidState
	}
	if t.RenewalCount >= maxRenewals {
		return entity.Transaction{}, entity.ErrRenewalLimit
	}
	t.Status = entity.TransactionRenewed
	t.DueDate = t.DueDate.AddDate(0, 0, renewalDays)
	t.RenewalCount++
	return *t, nil
}

func (m *memStore) Close(_ context.Context, id string, returnedAt time.Time, fineAmount decimal.Decimal, releaseStatus entity.CopyStatus) (entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.loans[id]
	if !ok {
		return entity.Transaction{}, entity.ErrNotFound
	}
	if t.Status == entity.TransactionReturned {
		return entity.Transaction{}, entity.ErrInvalidState
	}

	c, ok := m.copies[t.CopyID]
	if !ok || c.Status != entity.CopyIssued {
		return entity.Transaction{}, entity.ErrCopyNotIssued
	}
	c.Status = releaseStatus
	if releaseStatus == entity.CopyAvailable {
		m.books[t.BookID].AvailableCopies++
	}

	t.Status = entity.TransactionReturned
	t.ReturnDate = &returnedAt
	t.FineAmount = fineAmount
	return *t, nil
}

func (m *memStore) MarkOverdue(_ context.Context, asOf time.Time) ([]entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Transaction
	for _, t := range m.loans {
		if (t.Status == entity.TransactionIssued || t.Status == entity.TransactionRenewed) && t.DueDate.Before(asOf) {
			t.Status = entity.TransactionOverdue
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) CountActive(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.loans {
		if t.UserID == userID && t.Status != entity.TransactionReturned {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Transaction
	for _, t := range m.loans {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// availableMatchesLedger checks the core inventory invariant: the book's
// counter equals its count of AVAILABLE copies.
func (m *memStore) availableMatchesLedger(bookID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.copies {
		if c.BookID == bookID && c.Status == entity.CopyAvailable {
			n++
		}
	}
	return m.books[bookID].AvailableCopies == n
}

func (m *memStore) copyStatus(copyID string) entity.CopyStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copies[copyID].Status
}

// fakeRequests is a minimal circulation.Requests backed by a map.
type fakeRequests struct {
	mu       sync.Mutex
	requests map[string]*entity.BorrowRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: make(map[string]*entity.BorrowRequest)}
}

func (f *fakeRequests) put(r entity.BorrowRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[r.ID] = &r
}

func (f *fakeRequests) Get(_ context.Context, id string) (entity.BorrowRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return entity.BorrowRequest{}, entity.ErrNotFound
	}
	return *r, nil
}

func (f *fakeRequests) MarkFulfilled(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return entity.ErrNotFound
	}
	if r.Status != entity.RequestApproved {
		return entity.ErrInvalidState
	}
	r.Status = entity.RequestFulfilled
	return nil
}

func (f *fakeRequests) status(id string) entity.RequestStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id].Status
}

// fakeFines returns a settable balance per user.
type fakeFines struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

func newFakeFines() *fakeFines {
	return &fakeFines{balances: make(map[string]decimal.Decimal)}
}

func (f *fakeFines) set(userID string, amount decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = amount
}

func (f *fakeFines) OutstandingFinesFor(_ context.Context, userID string, _ time.Time) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balances[userID]; ok {
		return b, nil
	}
	return decimal.Zero, nil
}

// bookTitles adapts memStore to circulation.Books.
type bookTitles struct {
	store *memStore
}

func (b bookTitles) GetBook(_ context.Context, bookID string) (entity.Book, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	book, ok := b.store.books[bookID]
	if !ok {
		return entity.Book{}, entity.ErrNotFound
	}
	return *book, nil
}
