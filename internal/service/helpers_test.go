package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cybercafe/internal/billing"
	"cybercafe/internal/database"
	"cybercafe/internal/metrics"
	"cybercafe/internal/models"
	"cybercafe/internal/repository"
	"cybercafe/internal/validation"
)

// testEnv wires every service to a fresh SQLite database and a movable clock
type testEnv struct {
	db       *database.DB
	metrics  *metrics.Metrics
	clock    time.Time
	students *StudentService
	payments *PaymentService
	usage    *UsageService
	auth     *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "cafe.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	studentRepo := repository.NewStudentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	sessionRepo := repository.NewUsageSessionRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	plan := billing.DefaultPlan()
	m := metrics.New()

	env := &testEnv{
		db:      db,
		metrics: m,
		clock:   time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return env.clock }

	env.students = NewStudentService(studentRepo, paymentRepo, sessionRepo, plan, time.UTC, m)
	env.students.now = now
	env.payments = NewPaymentService(db, studentRepo, paymentRepo, plan, time.UTC, m)
	env.payments.now = now
	env.usage = NewUsageService(db, studentRepo, sessionRepo, plan, m)
	env.usage.now = now
	env.auth = NewAuthService(operatorRepo, time.Hour, m)
	env.auth.now = now

	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) register(t *testing.T, first, last, idNumber string) *models.Student {
	t.Helper()
	student, err := e.students.Register(context.Background(), validation.StudentForm{
		FirstName:   first,
		LastName:    last,
		IDNumber:    idNumber,
		PhoneNumber: "0700000000",
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", idNumber, err)
	}
	return student
}

func (e *testEnv) pay(t *testing.T, idNumber, amount, date string) *models.Payment {
	t.Helper()
	payment, err := e.payments.RecordPayment(context.Background(), validation.PaymentForm{
		IDNumber: idNumber,
		Amount:   amount,
		Date:     date,
	})
	if err != nil {
		t.Fatalf("RecordPayment(%s, %s) error = %v", idNumber, amount, err)
	}
	return payment
}
