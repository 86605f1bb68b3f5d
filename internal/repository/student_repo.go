package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cybercafe/internal/database"
	"cybercafe/internal/models"
)

const studentColumns = "id, first_name, last_name, id_number, phone_number, created_at, updated_at"

// StudentRepository handles database operations for students
type StudentRepository struct {
	db database.DBTX
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db database.DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *StudentRepository) WithTx(tx *database.Tx) *StudentRepository {
	return &StudentRepository{db: tx}
}

// CreateStudent inserts a new student and fills in its ID and timestamps
func (r *StudentRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO students (first_name, last_name, id_number, phone_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		student.FirstName, student.LastName, student.IDNumber, student.PhoneNumber, now, now)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	student.ID = id
	student.CreatedAt = now
	student.UpdatedAt = now
	return nil
}

// GetStudentByIDNumber retrieves a student by identification number
func (r *StudentRepository) GetStudentByIDNumber(ctx context.Context, idNumber string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id_number = ?"
	return r.getOne(ctx, query, idNumber)
}

// LockStudentByIDNumber retrieves a student and, where the dialect supports
// it, holds a row lock until the surrounding transaction ends
func (r *StudentRepository) LockStudentByIDNumber(ctx context.Context, idNumber string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id_number = ?" + r.db.GetDialect().ForUpdate()
	return r.getOne(ctx, query, idNumber)
}

// GetStudentByID retrieves a student by internal ID
func (r *StudentRepository) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = ?"
	return r.getOne(ctx, query, id)
}

func (r *StudentRepository) getOne(ctx context.Context, query string, args ...any) (*models.Student, error) {
	student, err := scanStudent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

// IDNumberTaken reports whether another student already uses idNumber.
// excludeID skips the student being edited; pass 0 when registering.
func (r *StudentRepository) IDNumberTaken(ctx context.Context, idNumber string, excludeID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM students WHERE id_number = ? AND id <> ?"
	if err := r.db.QueryRowContext(ctx, query, idNumber, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check id number: %w", err)
	}
	return count > 0, nil
}

// GetAllStudents retrieves every student in registration order
func (r *StudentRepository) GetAllStudents(ctx context.Context) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students ORDER BY id ASC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return students, nil
}

// UpdateStudent saves a student's editable fields
func (r *StudentRepository) UpdateStudent(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	query := `
		UPDATE students
		SET first_name = ?, last_name = ?, id_number = ?, phone_number = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		student.FirstName, student.LastName, student.IDNumber, student.PhoneNumber, now, student.ID)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update student: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	student.UpdatedAt = now
	return nil
}

// DeleteStudent removes a student; payments and usage sessions cascade
func (r *StudentRepository) DeleteStudent(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return requireAffected(result)
}

func scanStudent(row rowScanner) (*models.Student, error) {
	student := &models.Student{}
	err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.IDNumber,
		&student.PhoneNumber,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return student, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
