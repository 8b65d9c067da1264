// Package notify is the engine's outbound event port. Delivery channels
// (email, push) live behind the Notifier interface; the engine fires events
// and never waits on or fails with them.
package notify

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Kind string

const (
	RequestCreated  Kind = "request.created"
	RequestApproved Kind = "request.approved"
	RequestRejected Kind = "request.rejected"
	BookIssued      Kind = "book.issued"
	BookReturned    Kind = "book.returned"
	FineAssessed    Kind = "fine.assessed"
	PaymentRecorded Kind = "payment.recorded"
)

// Event carries the entity ids and human-readable context a delivery channel
// needs to render a message.
type Event struct {
	Kind          Kind
	UserID        string
	BookID        string
	BookTitle     string
	RequestID     string
	TransactionID string
	PaymentID     string
	Amount        decimal.Decimal
	Detail        string
}

// Notifier delivers events fire-and-forget. Implementations must not block
// the calling operation; retry and delivery tracking are their concern.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// LogNotifier writes events to the log. It is the default wiring until a
// real delivery channel is attached.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) {
	n.log.Info("notification",
		zap.String("kind", string(e.Kind)),
		zap.String("user_id", e.UserID),
		zap.String("book_id", e.BookID),
		zap.String("book_title", e.BookTitle),
		zap.String("request_id", e.RequestID),
		zap.String("transaction_id", e.TransactionID),
		zap.String("payment_id", e.PaymentID),
		zap.String("amount", e.Amount.String()),
		zap.String("detail", e.Detail),
	)
}
