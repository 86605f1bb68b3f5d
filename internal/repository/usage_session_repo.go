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

const usageSessionColumns = "u.id, u.student_id, u.started_at, u.ended_at"

// UsageSessionRepository handles database operations for usage sessions
type UsageSessionRepository struct {
	db database.DBTX
}

// NewUsageSessionRepository creates a new usage session repository
func NewUsageSessionRepository(db database.DBTX) *UsageSessionRepository {
	return &UsageSessionRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *UsageSessionRepository) WithTx(tx *database.Tx) *UsageSessionRepository {
	return &UsageSessionRepository{db: tx}
}

// CreateSession opens a session for a student. ErrDuplicate means the
// student already has an open one.
func (r *UsageSessionRepository) CreateSession(ctx context.Context, studentID int64, startedAt time.Time) (*models.UsageSession, error) {
	startedAt = startedAt.UTC()
	query := "INSERT INTO usage_sessions (student_id, started_at) VALUES (?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, studentID, startedAt)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create usage session: %w", err)
	}

	return &models.UsageSession{
		ID:        id,
		StudentID: studentID,
		StartedAt: startedAt,
	}, nil
}

// GetOpenSession returns the student's most recent open session
func (r *UsageSessionRepository) GetOpenSession(ctx context.Context, studentID int64) (*models.UsageSession, error) {
	query := `
		SELECT ` + usageSessionColumns + `
		FROM usage_sessions u
		WHERE u.student_id = ? AND u.ended_at IS NULL
		ORDER BY u.started_at DESC, u.id DESC
		LIMIT 1
	`
	session, err := scanUsageSession(r.db.QueryRowContext(ctx, query, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}
	return session, nil
}

// CloseSession sets the end time of an open session. Closed sessions are
// never touched again; closing one returns ErrNotFound.
func (r *UsageSessionRepository) CloseSession(ctx context.Context, sessionID int64, endedAt time.Time) error {
	query := "UPDATE usage_sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL"
	result, err := r.db.ExecContext(ctx, query, endedAt.UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to close usage session: %w", err)
	}
	return requireAffected(result)
}

// GetOpenSessionsWithStudents lists every open session with its student
func (r *UsageSessionRepository) GetOpenSessionsWithStudents(ctx context.Context) ([]models.UsageSessionWithStudent, error) {
	query := `
		SELECT ` + usageSessionColumns + `, ` + prefixed("s", studentColumns) + `
		FROM usage_sessions u
		JOIN students s ON s.id = u.student_id
		WHERE u.ended_at IS NULL
		ORDER BY u.started_at ASC, u.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.UsageSessionWithStudent
	for rows.Next() {
		var sw models.UsageSessionWithStudent
		var endedAt sql.NullTime
		if err := rows.Scan(
			&sw.ID, &sw.StudentID, &sw.StartedAt, &endedAt,
			&sw.Student.ID, &sw.Student.FirstName, &sw.Student.LastName, &sw.Student.IDNumber,
			&sw.Student.PhoneNumber, &sw.Student.CreatedAt, &sw.Student.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan open session: %w", err)
		}
		if endedAt.Valid {
			sw.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate open sessions: %w", err)
	}

	return sessions, nil
}

// GetLastClosedSessions returns each student's most recently ended session, keyed by student ID
func (r *UsageSessionRepository) GetLastClosedSessions(ctx context.Context) (map[int64]*models.UsageSession, error) {
	query := `
		SELECT ` + usageSessionColumns + `
		FROM usage_sessions u
		WHERE u.ended_at IS NOT NULL
		  AND u.ended_at = (
			SELECT MAX(u2.ended_at) FROM usage_sessions u2 WHERE u2.student_id = u.student_id
		  )
		ORDER BY u.id DESC
	`
	sessions, err := r.list(ctx, query)
	if err != nil {
		return nil, err
	}

	last := make(map[int64]*models.UsageSession, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		if _, seen := last[s.StudentID]; !seen {
			last[s.StudentID] = s
		}
	}
	return last, nil
}

// GetStudentSessions lists a student's sessions, newest first
func (r *UsageSessionRepository) GetStudentSessions(ctx context.Context, studentID int64) ([]models.UsageSession, error) {
	query := "SELECT " + usageSessionColumns + " FROM usage_sessions u WHERE u.student_id = ? ORDER BY u.started_at DESC, u.id DESC"
	return r.list(ctx, query, studentID)
}

// GetAllSessions lists every session in insertion order
func (r *UsageSessionRepository) GetAllSessions(ctx context.Context) ([]models.UsageSession, error) {
	query := "SELECT " + usageSessionColumns + " FROM usage_sessions u ORDER BY u.id ASC"
	return r.list(ctx, query)
}

func (r *UsageSessionRepository) list(ctx context.Context, query string, args ...any) ([]models.UsageSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.UsageSession
	for rows.Next() {
		session, err := scanUsageSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage sessions: %w", err)
	}

	return sessions, nil
}

func scanUsageSession(row rowScanner) (*models.UsageSession, error) {
	session := &models.UsageSession{}
	var endedAt sql.NullTime
	if err := row.Scan(&session.ID, &session.StudentID, &session.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	return session, nil
}
