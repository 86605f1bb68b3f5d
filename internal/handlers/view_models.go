package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"cybercafe/internal/billing"
	"cybercafe/internal/models"
	"cybercafe/internal/validation"
)

// Page carries what the header of every page needs
type Page struct {
	Title     string
	Operator  *models.Operator
	CSRFToken string
}

// Actions feeds the start/end session buttons for one student
type Actions struct {
	IDNumber  string
	CSRFToken string
}

// SessionView is a usage session measured at render time
type SessionView struct {
	ID        int64
	StartedAt time.Time
	EndedAt   *time.Time
	Open      bool
	Duration  string
	AmountDue decimal.Decimal
}

func newSessionView(s *models.UsageSession, now time.Time, plan billing.Plan) *SessionView {
	if s == nil {
		return nil
	}
	return &SessionView{
		ID:        s.ID,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Open:      s.IsActive(),
		Duration:  s.Duration(now),
		AmountDue: plan.AmountDue(s, now),
	}
}

type LoginViewData struct {
	Page
	Error    string
	Username string
}

type StudentRow struct {
	Student models.Student
	Active  *SessionView
	Last    *SessionView
	Actions Actions
}

type HomeViewData struct {
	Page
	Rows []StudentRow
}

type ActiveSessionRow struct {
	Student models.Student
	Session *SessionView
	Actions Actions
}

type ActiveSessionsViewData struct {
	Page
	Active []ActiveSessionRow
	Rows   []StudentRow
}

type StudentsViewData struct {
	Page
	Students []models.StudentWithBalance
}

type StudentFormViewData struct {
	Page
	Action    string
	CancelURL string
	Form      validation.StudentForm
	Errors    validation.Errors
}

type StudentDetailViewData struct {
	Page
	Student    *models.Student
	Payments   []models.Payment
	Sessions   []*SessionView
	AmountPaid decimal.Decimal
	Balance    decimal.Decimal
	Actions    Actions
}

type StudentPaymentsViewData struct {
	Page
	Student  *models.Student
	Payments []models.Payment
}

type PaymentsViewData struct {
	Page
	Payments      []models.PaymentWithStudent
	FullyPaid     []models.StudentWithBalance
	NoneFullyPaid string
}

type PaymentFormViewData struct {
	Page
	Students []models.Student
	Form     validation.PaymentForm
	Errors   validation.Errors
}

// studentForm reads the add/edit student fields from a parsed form
func studentForm(r *http.Request) validation.StudentForm {
	return validation.StudentForm{
		FirstName:   r.FormValue("first_name"),
		LastName:    r.FormValue("last_name"),
		IDNumber:    r.FormValue("id_number"),
		PhoneNumber: r.FormValue("phone_number"),
	}
}

// paymentForm reads the record payment fields from a parsed form
func paymentForm(r *http.Request) validation.PaymentForm {
	return validation.PaymentForm{
		IDNumber: r.FormValue("id_number"),
		Amount:   r.FormValue("amount"),
		Date:     r.FormValue("date"),
	}
}
