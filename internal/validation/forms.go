package validation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the format of date inputs
const DateLayout = "2006-01-02"

// StudentForm is the add/edit student form
type StudentForm struct {
	FirstName   string `form:"first_name" validate:"required,notblank,max=20"`
	LastName    string `form:"last_name" validate:"required,notblank,max=20"`
	IDNumber    string `form:"id_number" validate:"required,notblank,max=20"`
	PhoneNumber string `form:"phone_number" validate:"required,number,max=20"`
}

// Normalize trims surrounding whitespace from every field
func (f *StudentForm) Normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.IDNumber = strings.TrimSpace(f.IDNumber)
	f.PhoneNumber = strings.TrimSpace(f.PhoneNumber)
}

// Validate normalizes and checks the form
func (f *StudentForm) Validate() error {
	f.Normalize()
	return Struct(f)
}

// PaymentForm is the record payment form
type PaymentForm struct {
	IDNumber string `form:"id_number" validate:"required,notblank"`
	Amount   string `form:"amount" validate:"required,amount"`
	Date     string `form:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Validate normalizes and checks the form
func (f *PaymentForm) Validate() error {
	f.IDNumber = strings.TrimSpace(f.IDNumber)
	f.Amount = strings.TrimSpace(f.Amount)
	f.Date = strings.TrimSpace(f.Date)
	return Struct(f)
}

// ParsedAmount returns the amount of a validated form
func (f *PaymentForm) ParsedAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(f.Amount)
	return d
}

// ParsedDate returns the date of a validated form, or today in loc when left empty
func (f *PaymentForm) ParsedDate(now time.Time, loc *time.Location) time.Time {
	if f.Date == "" {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	}
	d, _ := time.Parse(DateLayout, f.Date)
	return d
}

// LoginForm is the operator sign-in form
type LoginForm struct {
	Username string `form:"username" validate:"required,notblank"`
	Password string `form:"password" validate:"required"`
}

// Validate checks the form
func (f *LoginForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	return Struct(f)
}
