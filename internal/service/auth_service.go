package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"cybercafe/internal/credentials"
	"cybercafe/internal/metrics"
	"cybercafe/internal/models"
	"cybercafe/internal/repository"
	"cybercafe/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUsernameTaken      = errors.New("username already taken")
)

// AuthService handles operator sign-in and session lifecycle
type AuthService struct {
	operatorRepo    *repository.OperatorRepository
	sessionDuration time.Duration
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(operatorRepo *repository.OperatorRepository, sessionDuration time.Duration, m *metrics.Metrics) *AuthService {
	return &AuthService{
		operatorRepo:    operatorRepo,
		sessionDuration: sessionDuration,
		metrics:         m,
		now:             time.Now,
	}
}

// CreateOperator adds a desk account
func (s *AuthService) CreateOperator(ctx context.Context, username, password string) (*models.Operator, error) {
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	operator, err := s.operatorRepo.CreateOperator(ctx, username, passwordHash)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return operator, nil
}

// EnsureBootstrapOperator creates the first operator when none exist yet.
// An empty password is replaced by a generated one that is logged once.
// It reports whether an account was created.
func (s *AuthService) EnsureBootstrapOperator(ctx context.Context, username, password string) (bool, error) {
	count, err := s.operatorRepo.CountOperators(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if username == "" {
		log.Warn().Msg("no operators exist; set BOOTSTRAP_USERNAME to create one")
		return false, nil
	}
	if password == "" {
		generated, err := credentials.GeneratePassword(16)
		if err != nil {
			return false, err
		}
		password = generated
		log.Warn().Str("username", username).Str("password", password).Msg("generated bootstrap operator password")
	}

	if _, err := s.CreateOperator(ctx, username, password); err != nil {
		return false, fmt.Errorf("failed to create bootstrap operator: %w", err)
	}
	log.Info().Str("username", username).Msg("bootstrap operator created")
	return true, nil
}

// Login authenticates an operator and creates a session
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.AuthSession, *models.Operator, error) {
	operator, err := s.operatorRepo.GetOperatorByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.Login("failure")
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get operator: %w", err)
	}

	if !security.CheckPassword(password, operator.PasswordHash) {
		s.metrics.Login("failure")
		return nil, nil, ErrInvalidCredentials
	}

	sessionID := security.GenerateSessionID()
	expiresAt := s.now().Add(s.sessionDuration)
	session, err := s.operatorRepo.CreateSession(ctx, sessionID, operator.ID, expiresAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.metrics.Login("success")
	return session, operator, nil
}

// ValidateSession checks if a session is valid and returns its operator
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.Operator, error) {
	session, err := s.operatorRepo.GetSession(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.operatorRepo.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	operator, err := s.operatorRepo.GetOperatorByID(ctx, session.OperatorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}

	return operator, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.operatorRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	n, err := s.operatorRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	if n > 0 {
		log.Info().Int64("removed", n).Msg("expired operator sessions cleaned up")
	}
	return nil
}
