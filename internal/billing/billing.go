// Package billing holds the monthly fee and per-day usage rate arithmetic.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"cybercafe/internal/models"
)

var (
	// DefaultMonthlyFee is the recurring charge each student owes per calendar month
	DefaultMonthlyFee = decimal.NewFromInt(3000)
	// DefaultRatePerDay prices usage sessions
	DefaultRatePerDay = decimal.NewFromInt(100)
)

// Plan is the pricing in effect for the desk
type Plan struct {
	MonthlyFee decimal.Decimal
	RatePerDay decimal.Decimal
}

// DefaultPlan returns the standard pricing
func DefaultPlan() Plan {
	return Plan{MonthlyFee: DefaultMonthlyFee, RatePerDay: DefaultRatePerDay}
}

// Balance is what is still owed this month, never below zero
func (p Plan) Balance(paid decimal.Decimal) decimal.Decimal {
	remaining := p.MonthlyFee.Sub(paid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsFullyPaid reports whether paid covers the monthly fee
func (p Plan) IsFullyPaid(paid decimal.Decimal) bool {
	return paid.GreaterThanOrEqual(p.MonthlyFee)
}

// AmountDue prices a usage session at the plan's daily rate
func (p Plan) AmountDue(s *models.UsageSession, now time.Time) decimal.Decimal {
	return s.AmountDue(now, p.RatePerDay)
}

// MonthStart returns midnight on the first day of now's month in loc
func MonthStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// SumSince totals the amounts of payments dated on or after since
func SumSince(payments []models.Payment, since time.Time) decimal.Decimal {
	cutoff := models.DateOf(since)
	total := decimal.Zero
	for _, p := range payments {
		if !models.DateOf(p.Date).Before(cutoff) {
			total = total.Add(p.Amount)
		}
	}
	return total
}
