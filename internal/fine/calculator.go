// Package fine prices overdue loans. The calculator is a pure function of
// its inputs: callers supply the evaluation time explicitly, so the same
// call serves both the final fine at return time and "if returned today"
// previews.
package fine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Compute returns the fine owed for a loan due at dueDate and evaluated at
// the given time. Days are counted as whole 24h periods (partial days do not
// accrue), the first graceDays overdue days are free, and the result is
// capped at maxFine. Zero when at is not after dueDate.
func Compute(dueDate, at time.Time, graceDays int, perDay, maxFine decimal.Decimal) decimal.Decimal {
	if !at.After(dueDate) {
		return decimal.Zero
	}
	overdue := wholeDays(dueDate, at) - graceDays
	if overdue <= 0 {
		return decimal.Zero
	}
	amount := perDay.Mul(decimal.NewFromInt(int64(overdue)))
	if amount.GreaterThan(maxFine) {
		return maxFine
	}
	return amount
}

func wholeDays(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}
