package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Student is a customer of the café, addressed externally by IDNumber
type Student struct {
	ID          int64
	FirstName   string
	LastName    string
	IDNumber    string
	PhoneNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName returns "First Last"
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (s Student) String() string {
	return fmt.Sprintf("%s %s %s", s.FirstName, s.LastName, s.IDNumber)
}

// StudentWithBalance pairs a student with this month's payment figures
type StudentWithBalance struct {
	Student
	AmountPaid decimal.Decimal
	Balance    decimal.Decimal
}

// StudentWithSessions pairs a student with their open and most recent closed session
type StudentWithSessions struct {
	Student
	ActiveSession *UsageSession
	LastSession   *UsageSession
}
