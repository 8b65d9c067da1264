package fine_test

import (
	"testing"
	"time"

	"libraryapi/internal/fine"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestCompute(t *testing.T) {
	due := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	rate := d("5")
	cap := d("500")

	t.Run("zero at due date", func(t *testing.T) {
		got := fine.Compute(due, due, 1, rate, cap)
		assert.True(t, got.IsZero())
	})

	t.Run("zero before due date", func(t *testing.T) {
		got := fine.Compute(due, due.Add(-48*time.Hour), 1, rate, cap)
		assert.True(t, got.IsZero())
	})

	t.Run("zero inside grace period", func(t *testing.T) {
		got := fine.Compute(due, due.Add(24*time.Hour), 1, rate, cap)
		assert.True(t, got.IsZero())
	})

	t.Run("first day past grace charges one day, not grace plus one", func(t *testing.T) {
		got := fine.Compute(due, due.AddDate(0, 0, 2), 1, rate, cap)
		assert.True(t, got.Equal(rate), "got %s", got)
	})

	t.Run("partial day rounds down", func(t *testing.T) {
		at := due.AddDate(0, 0, 2).Add(23 * time.Hour)
		got := fine.Compute(due, at, 1, rate, cap)
		assert.True(t, got.Equal(rate), "got %s", got)
	})

	t.Run("loan returned six days late with one grace day", func(t *testing.T) {
		// issued day 0, due day 14, returned day 20: 6 days late, 5 chargeable
		got := fine.Compute(due, due.AddDate(0, 0, 6), 1, rate, cap)
		assert.True(t, got.Equal(d("25")), "got %s", got)
	})

	t.Run("capped at max fine", func(t *testing.T) {
		got := fine.Compute(due, due.AddDate(0, 0, 365), 1, rate, cap)
		assert.True(t, got.Equal(cap), "got %s", got)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		at := due.AddDate(0, 0, 9)
		first := fine.Compute(due, at, 2, rate, cap)
		second := fine.Compute(due, at, 2, rate, cap)
		assert.True(t, first.Equal(second))
	})
}
