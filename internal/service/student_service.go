package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"cybercafe/internal/billing"
	"cybercafe/internal/metrics"
	"cybercafe/internal/models"
	"cybercafe/internal/repository"
	"cybercafe/internal/validation"
)

// StudentService handles student registration and the student pages
type StudentService struct {
	studentRepo *repository.StudentRepository
	paymentRepo *repository.PaymentRepository
	sessionRepo *repository.UsageSessionRepository
	plan        billing.Plan
	loc         *time.Location
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewStudentService creates a new student service
func NewStudentService(
	studentRepo *repository.StudentRepository,
	paymentRepo *repository.PaymentRepository,
	sessionRepo *repository.UsageSessionRepository,
	plan billing.Plan,
	loc *time.Location,
	m *metrics.Metrics,
) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		paymentRepo: paymentRepo,
		sessionRepo: sessionRepo,
		plan:        plan,
		loc:         loc,
		metrics:     m,
		now:         time.Now,
	}
}

// StudentDetail is everything shown on a student's page
type StudentDetail struct {
	Student    *models.Student
	Payments   []models.Payment
	Sessions   []models.UsageSession
	AmountPaid decimal.Decimal
	Balance    decimal.Decimal
}

// Register validates the form and adds a student
func (s *StudentService) Register(ctx context.Context, form validation.StudentForm) (*models.Student, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.studentRepo.IDNumberTaken(ctx, form.IDNumber, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fieldError("id_number", ErrDuplicateIDNumber)
	}

	student := &models.Student{
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		IDNumber:    form.IDNumber,
		PhoneNumber: form.PhoneNumber,
	}
	if err := s.studentRepo.CreateStudent(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("id_number", ErrDuplicateIDNumber)
		}
		return nil, err
	}

	s.metrics.StudentRegistered()
	log.Info().Str("id_number", student.IDNumber).Msg("student registered")
	return student, nil
}

// Update changes the student currently holding idNumber
func (s *StudentService) Update(ctx context.Context, idNumber string, form validation.StudentForm) (*models.Student, error) {
	student, err := s.studentRepo.GetStudentByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", idNumber, err)
	}

	if err := form.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.studentRepo.IDNumberTaken(ctx, form.IDNumber, student.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fieldError("id_number", ErrDuplicateIDNumber)
	}

	student.FirstName = form.FirstName
	student.LastName = form.LastName
	student.IDNumber = form.IDNumber
	student.PhoneNumber = form.PhoneNumber
	if err := s.studentRepo.UpdateStudent(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("id_number", ErrDuplicateIDNumber)
		}
		return nil, err
	}

	return student, nil
}

// Delete removes a student together with their payments and sessions
func (s *StudentService) Delete(ctx context.Context, idNumber string) error {
	student, err := s.studentRepo.GetStudentByIDNumber(ctx, idNumber)
	if err != nil {
		return fmt.Errorf("student %s: %w", idNumber, err)
	}
	if err := s.studentRepo.DeleteStudent(ctx, student.ID); err != nil {
		return err
	}

	s.metrics.StudentDeleted()
	log.Info().Str("id_number", idNumber).Msg("student deleted")
	return nil
}

// Get returns the student holding idNumber
func (s *StudentService) Get(ctx context.Context, idNumber string) (*models.Student, error) {
	student, err := s.studentRepo.GetStudentByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", idNumber, err)
	}
	return student, nil
}

// List returns every student
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	return s.studentRepo.GetAllStudents(ctx)
}

// ListWithBalances returns every student with the amount paid this month
// and what remains of the monthly fee
func (s *StudentService) ListWithBalances(ctx context.Context) ([]models.StudentWithBalance, error) {
	students, err := s.studentRepo.GetAllStudents(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := monthlyTotals(ctx, s.paymentRepo, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	result := make([]models.StudentWithBalance, 0, len(students))
	for _, student := range students {
		paid := totals[student.ID]
		result = append(result, models.StudentWithBalance{
			Student:    student,
			AmountPaid: paid,
			Balance:    s.plan.Balance(paid),
		})
	}
	return result, nil
}

// Detail returns a student's payments, sessions and this month's figures
func (s *StudentService) Detail(ctx context.Context, idNumber string) (*StudentDetail, error) {
	student, err := s.Get(ctx, idNumber)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.GetStudentPayments(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.GetStudentSessions(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	paid := billing.SumSince(payments, billing.MonthStart(s.now(), s.loc))
	return &StudentDetail{
		Student:    student,
		Payments:   payments,
		Sessions:   sessions,
		AmountPaid: paid,
		Balance:    s.plan.Balance(paid),
	}, nil
}

// monthlyTotals sums this month's payments per student ID
func monthlyTotals(ctx context.Context, repo *repository.PaymentRepository, now time.Time, loc *time.Location) (map[int64]decimal.Decimal, error) {
	payments, err := repo.GetPaymentsSince(ctx, billing.MonthStart(now, loc))
	if err != nil {
		return nil, err
	}

	totals := make(map[int64]decimal.Decimal)
	for _, p := range payments {
		totals[p.StudentID] = totals[p.StudentID].Add(p.Amount)
	}
	return totals, nil
}
