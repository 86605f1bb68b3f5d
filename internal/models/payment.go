package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is money received from a student on a calendar date
type Payment struct {
	ID        int64
	StudentID int64
	Amount    decimal.Decimal
	// Balance is the outstanding monthly amount right after this payment
	Balance   decimal.Decimal
	Date      time.Time
	CreatedAt time.Time
}

// PaymentWithStudent includes the paying student for list pages
type PaymentWithStudent struct {
	Payment
	Student Student
}

func (p PaymentWithStudent) String() string {
	return fmt.Sprintf("%s - %s", p.Student.FirstName, p.Amount.StringFixed(2))
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// DATE columns are compared on this form in every dialect.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
