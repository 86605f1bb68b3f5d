package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"cybercafe/internal/billing"
	"cybercafe/internal/database"
	"cybercafe/internal/metrics"
	"cybercafe/internal/models"
	"cybercafe/internal/repository"
	"cybercafe/internal/validation"
)

// PaymentService records payments and reports monthly totals
type PaymentService struct {
	db          *database.DB
	studentRepo *repository.StudentRepository
	paymentRepo *repository.PaymentRepository
	plan        billing.Plan
	loc         *time.Location
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	db *database.DB,
	studentRepo *repository.StudentRepository,
	paymentRepo *repository.PaymentRepository,
	plan billing.Plan,
	loc *time.Location,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		db:          db,
		studentRepo: studentRepo,
		paymentRepo: paymentRepo,
		plan:        plan,
		loc:         loc,
		metrics:     m,
		now:         time.Now,
	}
}

// RecordPayment validates the form and stores a payment. The stored balance
// is what remains of the monthly fee for the payment's month once this
// payment is counted.
func (s *PaymentService) RecordPayment(ctx context.Context, form validation.PaymentForm) (*models.Payment, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		Amount: form.ParsedAmount(),
		Date:   form.ParsedDate(s.now(), s.loc),
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		students := s.studentRepo.WithTx(tx)
		payments := s.paymentRepo.WithTx(tx)

		student, err := students.LockStudentByIDNumber(ctx, form.IDNumber)
		if errors.Is(err, repository.ErrNotFound) {
			return fieldError("id_number", ErrUnknownStudent)
		}
		if err != nil {
			return err
		}
		payment.StudentID = student.ID

		from := time.Date(payment.Date.Year(), payment.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		earlier, err := payments.GetStudentPaymentsBetween(ctx, student.ID, from, from.AddDate(0, 1, 0))
		if err != nil {
			return err
		}
		paid := payment.Amount
		for _, p := range earlier {
			paid = paid.Add(p.Amount)
		}
		payment.Balance = s.plan.Balance(paid)

		return payments.CreatePayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentRecorded(payment.Amount.InexactFloat64())
	log.Info().
		Str("id_number", form.IDNumber).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("balance", payment.Balance.StringFixed(2)).
		Msg("payment recorded")
	return payment, nil
}

// Delete removes a payment
func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	if err := s.paymentRepo.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("payment %d: %w", id, err)
	}
	return nil
}

// List returns every payment with its student, newest first
func (s *PaymentService) List(ctx context.Context) ([]models.PaymentWithStudent, error) {
	return s.paymentRepo.GetAllPaymentsWithStudents(ctx)
}

// StudentPayments returns the student holding idNumber and their payments
func (s *PaymentService) StudentPayments(ctx context.Context, idNumber string) (*models.Student, []models.Payment, error) {
	student, err := s.studentRepo.GetStudentByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("student %s: %w", idNumber, err)
	}
	payments, err := s.paymentRepo.GetStudentPayments(ctx, student.ID)
	if err != nil {
		return nil, nil, err
	}
	return student, payments, nil
}

// MonthlyPaidTotal sums a student's payments dated on or after monthStart
func (s *PaymentService) MonthlyPaidTotal(ctx context.Context, studentID int64, monthStart time.Time) (decimal.Decimal, error) {
	payments, err := s.paymentRepo.GetStudentPayments(ctx, studentID)
	if err != nil {
		return decimal.Zero, err
	}
	return billing.SumSince(payments, monthStart), nil
}

// MonthlyTotals sums the current month's payments per student ID
func (s *PaymentService) MonthlyTotals(ctx context.Context) (map[int64]decimal.Decimal, error) {
	return monthlyTotals(ctx, s.paymentRepo, s.now(), s.loc)
}

// FullyPaidStudents lists students whose payments this month cover the fee
func (s *PaymentService) FullyPaidStudents(ctx context.Context) ([]models.StudentWithBalance, error) {
	totals, err := s.MonthlyTotals(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.studentRepo.GetAllStudents(ctx)
	if err != nil {
		return nil, err
	}

	var paid []models.StudentWithBalance
	for _, student := range students {
		total := totals[student.ID]
		if s.plan.IsFullyPaid(total) {
			paid = append(paid, models.StudentWithBalance{
				Student:    student,
				AmountPaid: total,
				Balance:    s.plan.Balance(total),
			})
		}
	}
	return paid, nil
}
