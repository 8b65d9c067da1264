package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionIssued   TransactionStatus = "ISSUED"
	TransactionRenewed  TransactionStatus = "RENEWED"
	TransactionOverdue  TransactionStatus = "OVERDUE"
	TransactionReturned TransactionStatus = "RETURNED"
)

// Transaction is an active or historical loan of one specific copy.
type Transaction struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	BookID       string            `json:"book_id"`
	CopyID       string            `json:"copy_id"`
	Status       TransactionStatus `json:"status"`
	IssueDate    time.Time         `json:"issue_date"`
	DueDate      time.Time         `json:"due_date"`
	ReturnDate   *time.Time        `json:"return_date,omitempty"`
	RenewalCount int               `json:"renewal_count"`
	FineAmount   decimal.Decimal   `json:"fine_amount"`
	FinePaid     bool              `json:"fine_paid"`
	HomeDelivery bool              `json:"home_delivery"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Active reports whether the loan still holds its copy.
func (t Transaction) Active() bool {
	return t.Status != TransactionReturned
}
