package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"cybercafe/internal/billing"
	"cybercafe/internal/database"
	"cybercafe/internal/metrics"
	"cybercafe/internal/models"
	"cybercafe/internal/repository"
)

// UsageService opens and closes timed usage sessions
type UsageService struct {
	db          *database.DB
	studentRepo *repository.StudentRepository
	sessionRepo *repository.UsageSessionRepository
	plan        billing.Plan
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewUsageService creates a new usage service
func NewUsageService(
	db *database.DB,
	studentRepo *repository.StudentRepository,
	sessionRepo *repository.UsageSessionRepository,
	plan billing.Plan,
	m *metrics.Metrics,
) *UsageService {
	return &UsageService{
		db:          db,
		studentRepo: studentRepo,
		sessionRepo: sessionRepo,
		plan:        plan,
		metrics:     m,
		now:         time.Now,
	}
}

// Now is the time sessions are measured against
func (s *UsageService) Now() time.Time {
	return s.now()
}

// Plan is the pricing used for amounts due
func (s *UsageService) Plan() billing.Plan {
	return s.plan
}

// StartSession checks a student in. A student with an open session gets
// ErrSessionAlreadyOpen and nothing is created.
func (s *UsageService) StartSession(ctx context.Context, idNumber string) (*models.UsageSession, error) {
	var session *models.UsageSession

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		students := s.studentRepo.WithTx(tx)
		sessions := s.sessionRepo.WithTx(tx)

		student, err := students.LockStudentByIDNumber(ctx, idNumber)
		if err != nil {
			return fmt.Errorf("student %s: %w", idNumber, err)
		}

		_, err = sessions.GetOpenSession(ctx, student.ID)
		if err == nil {
			return ErrSessionAlreadyOpen
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		session, err = sessions.CreateSession(ctx, student.ID, s.now())
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrSessionAlreadyOpen
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SessionStarted()
	log.Info().Str("id_number", idNumber).Int64("session_id", session.ID).Msg("usage session started")
	return session, nil
}

// EndSession checks a student out by closing their most recent open
// session. Without an open session it does nothing and returns nil, nil.
func (s *UsageService) EndSession(ctx context.Context, idNumber string) (*models.UsageSession, error) {
	student, err := s.studentRepo.GetStudentByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", idNumber, err)
	}

	session, err := s.sessionRepo.GetOpenSession(ctx, student.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	endedAt := s.now().UTC()
	if endedAt.Before(session.StartedAt) {
		endedAt = session.StartedAt
	}

	// Closed by a concurrent request between the read and the update
	if err := s.sessionRepo.CloseSession(ctx, session.ID, endedAt); errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	session.EndedAt = &endedAt

	s.metrics.SessionEnded()
	log.Info().
		Str("id_number", idNumber).
		Int64("session_id", session.ID).
		Str("duration", session.Duration(endedAt)).
		Msg("usage session ended")
	return session, nil
}

// ActiveSessions lists every open session with its student
func (s *UsageService) ActiveSessions(ctx context.Context) ([]models.UsageSessionWithStudent, error) {
	return s.sessionRepo.GetOpenSessionsWithStudents(ctx)
}

// StudentsWithSessions lists every student with their open session, if
// any, and their most recently closed one
func (s *UsageService) StudentsWithSessions(ctx context.Context) ([]models.StudentWithSessions, error) {
	students, err := s.studentRepo.GetAllStudents(ctx)
	if err != nil {
		return nil, err
	}

	open, err := s.sessionRepo.GetOpenSessionsWithStudents(ctx)
	if err != nil {
		return nil, err
	}
	openByStudent := make(map[int64]*models.UsageSession, len(open))
	for i := range open {
		openByStudent[open[i].StudentID] = &open[i].UsageSession
	}

	last, err := s.sessionRepo.GetLastClosedSessions(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.StudentWithSessions, 0, len(students))
	for _, student := range students {
		result = append(result, models.StudentWithSessions{
			Student:       student,
			ActiveSession: openByStudent[student.ID],
			LastSession:   last[student.ID],
		})
	}
	return result, nil
}
