package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/entity"
	"libraryapi/internal/notify"
	"libraryapi/internal/payment"
	"libraryapi/internal/settings"
)

// memPayments implements payment.Repository on a map.
type memPayments struct {
	mu       sync.Mutex
	payments map[string]*entity.Payment
}

func newMemPayments() *memPayments {
	return &memPayments{payments: make(map[string]*entity.Payment)}
}

func (m *memPayments) Create(_ context.Context, p entity.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = &p
	return nil
}

func (m *memPayments) Get(_ context.Context, id string) (entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return entity.Payment{}, entity.ErrNotFound
	}
	return *p, nil
}

func (m *memPayments) SumCompletedForTransaction(_ context.Context, transactionID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, p := range m.payments {
		if p.TransactionID != nil && *p.TransactionID == transactionID && p.Status == entity.PaymentCompleted {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (m *memPayments) SetStatus(_ context.Context, id string, from, to entity.PaymentStatus) (entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return entity.Payment{}, entity.ErrNotFound
	}
	if p.Status != from {
		return entity.Payment{}, entity.ErrInvalidState
	}
	p.Status = to
	return *p, nil
}

func (m *memPayments) ListByUser(_ context.Context, userID string) ([]entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// memLedger implements payment.Transactions with the same unsettled filter
// the Postgres query applies.
type memLedger struct {
	mu    sync.Mutex
	loans map[string]*entity.Transaction
}

func newMemLedger() *memLedger {
	return &memLedger{loans: make(map[string]*entity.Transaction)}
}

func (m *memLedger) put(t entity.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[t.ID] = &t
}

func (m *memLedger) GetTransaction(_ context.Context, id string) (entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.loans[id]
	if !ok {
		return entity.Transaction{}, entity.ErrNotFound
	}
	return *t, nil
}

func (m *memLedger) SetFinePaid(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.loans[id]
	if !ok {
		return entity.ErrNotFound
	}
	t.FinePaid = true
	return nil
}

func (m *memLedger) ListUnsettled(_ context.Context, userID string) ([]entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Transaction
	for _, t := range m.loans {
		if t.UserID != userID {
			continue
		}
		returnedUnpaid := t.Status == entity.TransactionReturned && !t.FinePaid && t.FineAmount.IsPositive()
		if returnedUnpaid || t.Status == entity.TransactionOverdue {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memLedger) finePaid(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loans[id].FinePaid
}

type capturedEvents struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *capturedEvents) Notify(_ context.Context, e notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *capturedEvents) kinds() []notify.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []notify.Kind
	for _, e := range c.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	svc    *payment.Service
	repo   *memPayments
	ledger *memLedger
	events *capturedEvents
}

func newFixture() fixture {
	repo := newMemPayments()
	ledger := newMemLedger()
	events := &capturedEvents{}
	svc := payment.NewService(repo, ledger, settings.Static{P: settings.Default()}, events)
	return fixture{svc: svc, repo: repo, ledger: ledger, events: events}
}

func returnedLoan(id, userID string, fineAmount string, finePaid bool) entity.Transaction {
	returned := time.Now().UTC().AddDate(0, 0, -1)
	return entity.Transaction{
		ID:         id,
		UserID:     userID,
		BookID:     "book-1",
		CopyID:     "copy-1",
		Status:     entity.TransactionReturned,
		DueDate:    returned.AddDate(0, 0, -7),
		ReturnDate: &returned,
		FineAmount: decimal.RequireFromString(fineAmount),
		FinePaid:   finePaid,
	}
}

func TestRecordPayment_FullFineSettlesLoan(t *testing.T) {
	f := newFixture()
	f.ledger.put(returnedLoan("loan-1", "member-1", "25", false))

	loanID := "loan-1"
	p, err := f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID:        "member-1",
		TransactionID: &loanID,
		Method:        entity.PaymentCash,
		Breakdown:     entity.PaymentBreakdown{LateFee: decimal.RequireFromString("25")},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentCompleted, p.Status)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("25")))
	assert.True(t, f.ledger.finePaid("loan-1"))
	assert.Contains(t, f.events.kinds(), notify.PaymentRecorded)

	owed, err := f.svc.OutstandingFinesFor(context.Background(), "member-1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, owed.IsZero(), "settled fine must not gate borrowing, got %s", owed)
}

func TestRecordPayment_PartialKeepsFineOpen(t *testing.T) {
	f := newFixture()
	f.ledger.put(returnedLoan("loan-1", "member-1", "25", false))
	loanID := "loan-1"

	_, err := f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID:        "member-1",
		TransactionID: &loanID,
		Method:        entity.PaymentCard,
		Breakdown:     entity.PaymentBreakdown{LateFee: decimal.RequireFromString("10")},
	})
	require.NoError(t, err)
	assert.False(t, f.ledger.finePaid("loan-1"), "partial payment must not settle the fine")

	owed, err := f.svc.OutstandingFinesFor(context.Background(), "member-1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, owed.Equal(decimal.RequireFromString("25")), "unsettled fine still gates in full, got %s", owed)

	// The remainder settles it.
	_, err = f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID:        "member-1",
		TransactionID: &loanID,
		Method:        entity.PaymentCard,
		Breakdown:     entity.PaymentBreakdown{LateFee: decimal.RequireFromString("15")},
	})
	require.NoError(t, err)
	assert.True(t, f.ledger.finePaid("loan-1"))
}

func TestRecordPayment_BreakdownSumsToAmount(t *testing.T) {
	f := newFixture()

	p, err := f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID: "member-1",
		Method: entity.PaymentOnline,
		Breakdown: entity.PaymentBreakdown{
			Deposit:     decimal.RequireFromString("100"),
			DeliveryFee: decimal.RequireFromString("20"),
		},
	})
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("120")))
	assert.Nil(t, p.TransactionID)
}

func TestRecordPayment_Validation(t *testing.T) {
	f := newFixture()
	f.ledger.put(returnedLoan("loan-1", "member-1", "25", false))
	loanID := "loan-1"

	_, err := f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID: "member-1",
		Method: entity.PaymentCash,
	})
	assert.Equal(t, "VALIDATION_FAILED", entity.CodeOf(err), "zero amount")

	_, err = f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID:    "member-1",
		Method:    entity.PaymentMethod("BARTER"),
		Breakdown: entity.PaymentBreakdown{LateFee: decimal.RequireFromString("5")},
	})
	assert.Equal(t, "VALIDATION_FAILED", entity.CodeOf(err), "unknown method")

	_, err = f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID:        "member-2",
		TransactionID: &loanID,
		Method:        entity.PaymentCash,
		Breakdown:     entity.PaymentBreakdown{LateFee: decimal.RequireFromString("5")},
	})
	assert.Equal(t, "VALIDATION_FAILED", entity.CodeOf(err), "user mismatch with loan")
}

func TestRecordPayment_DefaultsUserFromLoan(t *testing.T) {
	f := newFixture()
	f.ledger.put(returnedLoan("loan-1", "member-1", "25", false))
	loanID := "loan-1"

	p, err := f.svc.RecordPayment(context.Background(), payment.RecordParams{
		TransactionID: &loanID,
		Method:        entity.PaymentCash,
		Breakdown:     entity.PaymentBreakdown{LateFee: decimal.RequireFromString("25")},
	})
	require.NoError(t, err)
	assert.Equal(t, "member-1", p.UserID)
}

func TestRefundPayment(t *testing.T) {
	f := newFixture()

	p, err := f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID:    "member-1",
		Method:    entity.PaymentCash,
		Breakdown: entity.PaymentBreakdown{Deposit: decimal.RequireFromString("100")},
	})
	require.NoError(t, err)

	refunded, err := f.svc.RefundPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentRefunded, refunded.Status)

	_, err = f.svc.RefundPayment(context.Background(), p.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidState, "a refund is terminal")
}

func TestOutstandingFinesFor_CombinesFinalAndLiveFines(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	f.ledger.put(returnedLoan("loan-returned", "member-1", "25", false))
	// Overdue by 6 days: with 1 grace day at 5 per day the live fine is 25.
	f.ledger.put(entity.Transaction{
		ID:      "loan-overdue",
		UserID:  "member-1",
		BookID:  "book-2",
		CopyID:  "copy-2",
		Status:  entity.TransactionOverdue,
		DueDate: now.AddDate(0, 0, -6),
	})
	// Another member's debt is not ours.
	f.ledger.put(returnedLoan("loan-other", "member-2", "500", false))

	owed, err := f.svc.OutstandingFinesFor(context.Background(), "member-1", now)
	require.NoError(t, err)
	assert.True(t, owed.Equal(decimal.RequireFromString("50")), "got %s", owed)
}

func TestGet_OwnerOrStaffOnly(t *testing.T) {
	f := newFixture()

	p, err := f.svc.RecordPayment(context.Background(), payment.RecordParams{
		UserID:    "member-1",
		Method:    entity.PaymentCash,
		Breakdown: entity.PaymentBreakdown{Deposit: decimal.RequireFromString("100")},
	})
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), "member-2", entity.RoleMember, p.ID)
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	got, err := f.svc.Get(context.Background(), "member-1", entity.RoleMember, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.svc.Get(context.Background(), "staff-1", entity.RoleLibrarian, p.ID)
	assert.NoError(t, err)
}
