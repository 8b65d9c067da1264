package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentOnline PaymentMethod = "ONLINE"
)

// PaymentBreakdown itemizes what a payment covers. Amount on the Payment is
// always the sum of these fields.
type PaymentBreakdown struct {
	LateFee      decimal.Decimal `json:"late_fee"`
	DamageCharge decimal.Decimal `json:"damage_charge"`
	Deposit      decimal.Decimal `json:"deposit"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
}

// Total sums the breakdown fields.
func (b PaymentBreakdown) Total() decimal.Decimal {
	return b.LateFee.Add(b.DamageCharge).Add(b.Deposit).Add(b.DeliveryFee)
}

// Payment is a monetary record against a transaction or a user. Completed
// payments are immutable except for the REFUNDED status transition.
type Payment struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	TransactionID *string          `json:"transaction_id,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Breakdown     PaymentBreakdown `json:"breakdown"`
	Method        PaymentMethod    `json:"method"`
	Status        PaymentStatus    `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
