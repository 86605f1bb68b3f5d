package repository

import (
	"context"
	"fmt"
	"time"

	"cybercafe/internal/database"
	"cybercafe/internal/models"
)

const paymentColumns = "p.id, p.student_id, p.amount, p.balance, p.date, p.created_at"

// PaymentRepository handles database operations for payments
type PaymentRepository struct {
	db database.DBTX
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db database.DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *PaymentRepository) WithTx(tx *database.Tx) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// CreatePayment inserts a payment. Date is stored as a calendar date.
func (r *PaymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	now := time.Now().UTC()
	payment.Date = models.DateOf(payment.Date)

	query := `
		INSERT INTO payments (student_id, amount, balance, date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		payment.StudentID, payment.Amount, payment.Balance, payment.Date, now)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	payment.ID = id
	payment.CreatedAt = now
	return nil
}

// DeletePayment removes a payment
func (r *PaymentRepository) DeletePayment(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireAffected(result)
}

// GetAllPaymentsWithStudents lists every payment, newest first, with its student
func (r *PaymentRepository) GetAllPaymentsWithStudents(ctx context.Context) ([]models.PaymentWithStudent, error) {
	query := `
		SELECT ` + paymentColumns + `, ` + prefixed("s", studentColumns) + `
		FROM payments p
		JOIN students s ON s.id = p.student_id
		ORDER BY p.date DESC, p.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []models.PaymentWithStudent
	for rows.Next() {
		var pw models.PaymentWithStudent
		if err := rows.Scan(
			&pw.ID, &pw.StudentID, &pw.Amount, &pw.Balance, &pw.Date, &pw.CreatedAt,
			&pw.Student.ID, &pw.Student.FirstName, &pw.Student.LastName, &pw.Student.IDNumber,
			&pw.Student.PhoneNumber, &pw.Student.CreatedAt, &pw.Student.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, pw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// GetStudentPayments lists a student's payments, newest first
func (r *PaymentRepository) GetStudentPayments(ctx context.Context, studentID int64) ([]models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments p WHERE p.student_id = ? ORDER BY p.date DESC, p.id DESC"
	return r.list(ctx, query, studentID)
}

// GetPaymentsSince lists payments dated on or after since, across all students
func (r *PaymentRepository) GetPaymentsSince(ctx context.Context, since time.Time) ([]models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments p WHERE p.date >= ? ORDER BY p.date ASC, p.id ASC"
	return r.list(ctx, query, models.DateOf(since))
}

// GetStudentPaymentsBetween lists a student's payments dated in [from, to)
func (r *PaymentRepository) GetStudentPaymentsBetween(ctx context.Context, studentID int64, from, to time.Time) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments p
		WHERE p.student_id = ? AND p.date >= ? AND p.date < ?
		ORDER BY p.date ASC, p.id ASC
	`
	return r.list(ctx, query, studentID, models.DateOf(from), models.DateOf(to))
}

// GetAllPayments lists every payment in insertion order
func (r *PaymentRepository) GetAllPayments(ctx context.Context) ([]models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments p ORDER BY p.id ASC"
	return r.list(ctx, query)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	payment := &models.Payment{}
	err := row.Scan(
		&payment.ID,
		&payment.StudentID,
		&payment.Amount,
		&payment.Balance,
		&payment.Date,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return payment, nil
}
