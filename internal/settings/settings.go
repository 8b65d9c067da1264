// Package settings resolves stored configuration rows into the typed policy
// the circulation engine consumes. Rows carry a declared data type next to a
// string value; resolution happens once at this boundary, so the engine only
// ever sees numbers and booleans.
package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Policy is the fully-typed circulation configuration.
type Policy struct {
	LoanPeriodDays    int
	RenewalPeriodDays int
	MaxRenewals       int
	BorrowLimit       int
	GraceDays         int
	FinePerDay        decimal.Decimal
	MaxFine           decimal.Decimal
	DeliveryFee       decimal.Decimal
}

// Setting keys as stored in the settings table.
const (
	KeyLoanPeriodDays    = "loan_period_days"
	KeyRenewalPeriodDays = "renewal_period_days"
	KeyMaxRenewals       = "max_renewals"
	KeyBorrowLimit       = "borrow_limit"
	KeyGraceDays         = "grace_period_days"
	KeyFinePerDay        = "fine_per_day"
	KeyMaxFine           = "max_fine_amount"
	KeyDeliveryFee       = "home_delivery_fee"
)

// Declared value types on a settings row.
const (
	TypeInt     = "int"
	TypeDecimal = "decimal"
	TypeBool    = "bool"
)

// Default returns the policy used when a key is absent from storage.
func Default() Policy {
	return Policy{
		LoanPeriodDays:    14,
		RenewalPeriodDays: 7,
		MaxRenewals:       2,
		BorrowLimit:       5,
		GraceDays:         1,
		FinePerDay:        decimal.NewFromInt(5),
		MaxFine:           decimal.NewFromInt(500),
		DeliveryFee:       decimal.NewFromInt(20),
	}
}

// Row is one stored setting before resolution.
type Row struct {
	Key      string
	Value    string
	DataType string
}

// Resolve overlays rows onto the defaults. A row whose value does not parse
// under its declared type, or whose type tag is unknown, fails resolution
// outright rather than silently keeping the default.
func Resolve(rows []Row) (Policy, error) {
	p := Default()
	for _, row := range rows {
		if err := apply(&p, row); err != nil {
			return Policy{}, err
		}
	}
	return p, nil
}

func apply(p *Policy, row Row) error {
	switch row.Key {
	case KeyLoanPeriodDays:
		return setInt(&p.LoanPeriodDays, row)
	case KeyRenewalPeriodDays:
		return setInt(&p.RenewalPeriodDays, row)
	case KeyMaxRenewals:
		return setInt(&p.MaxRenewals, row)
	case KeyBorrowLimit:
		return setInt(&p.BorrowLimit, row)
	case KeyGraceDays:
		return setInt(&p.GraceDays, row)
	case KeyFinePerDay:
		return setDecimal(&p.FinePerDay, row)
	case KeyMaxFine:
		return setDecimal(&p.MaxFine, row)
	case KeyDeliveryFee:
		return setDecimal(&p.DeliveryFee, row)
	default:
		// unrelated settings (UI, notification templates) pass through
		return nil
	}
}

func setInt(dst *int, row Row) error {
	if row.DataType != TypeInt {
		return fmt.Errorf("setting %s: declared type %q, want %s", row.Key, row.DataType, TypeInt)
	}
	v, err := strconv.Atoi(row.Value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", row.Key, err)
	}
	if v < 0 {
		return fmt.Errorf("setting %s: must not be negative, got %d", row.Key, v)
	}
	*dst = v
	return nil
}

func setDecimal(dst *decimal.Decimal, row Row) error {
	if row.DataType != TypeDecimal {
		return fmt.Errorf("setting %s: declared type %q, want %s", row.Key, row.DataType, TypeDecimal)
	}
	v, err := decimal.NewFromString(row.Value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", row.Key, err)
	}
	if v.IsNegative() {
		return fmt.Errorf("setting %s: must not be negative, got %s", row.Key, v)
	}
	*dst = v
	return nil
}

// Source loads the resolved policy.
type Source interface {
	Policy(ctx context.Context) (Policy, error)
}

// Static is a Source backed by a fixed policy, for tests and bootstrap.
type Static struct {
	P Policy
}

func (s Static) Policy(context.Context) (Policy, error) { return s.P, nil }
