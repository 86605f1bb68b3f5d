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

// OperatorRepository handles database operations for operators and their sessions
type OperatorRepository struct {
	db database.DBTX
}

// NewOperatorRepository creates a new operator repository
func NewOperatorRepository(db database.DBTX) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// CreateOperator inserts a new operator
func (r *OperatorRepository) CreateOperator(ctx context.Context, username, passwordHash string) (*models.Operator, error) {
	now := time.Now().UTC()
	query := "INSERT INTO operators (username, password_hash, created_at) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, username, passwordHash, now)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}

	return &models.Operator{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// CountOperators returns how many operators exist
func (r *OperatorRepository) CountOperators(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operators").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count operators: %w", err)
	}
	return count, nil
}

// GetOperatorByUsername retrieves an operator by username
func (r *OperatorRepository) GetOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	query := "SELECT id, username, password_hash, created_at FROM operators WHERE username = ?"
	return r.getOne(ctx, query, username)
}

// GetOperatorByID retrieves an operator by ID
func (r *OperatorRepository) GetOperatorByID(ctx context.Context, id int64) (*models.Operator, error) {
	query := "SELECT id, username, password_hash, created_at FROM operators WHERE id = ?"
	return r.getOne(ctx, query, id)
}

// GetAllOperators lists every operator ordered by ID
func (r *OperatorRepository) GetAllOperators(ctx context.Context) ([]models.Operator, error) {
	query := "SELECT id, username, password_hash, created_at FROM operators ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	defer rows.Close()

	var operators []models.Operator
	for rows.Next() {
		var operator models.Operator
		if err := rows.Scan(&operator.ID, &operator.Username, &operator.PasswordHash, &operator.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, operator)
	}
	return operators, rows.Err()
}

func (r *OperatorRepository) getOne(ctx context.Context, query string, args ...any) (*models.Operator, error) {
	operator := &models.Operator{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&operator.ID,
		&operator.Username,
		&operator.PasswordHash,
		&operator.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return operator, nil
}

// CreateSession creates a new session for an operator
func (r *OperatorRepository) CreateSession(ctx context.Context, sessionID string, operatorID int64, expiresAt time.Time) (*models.AuthSession, error) {
	now := time.Now().UTC()
	query := "INSERT INTO auth_sessions (id, operator_id, expires_at, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, sessionID, operatorID, expiresAt.UTC(), now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.AuthSession{
		ID:         sessionID,
		OperatorID: operatorID,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
	}, nil
}

// GetSession retrieves a session by ID
func (r *OperatorRepository) GetSession(ctx context.Context, sessionID string) (*models.AuthSession, error) {
	query := "SELECT id, operator_id, expires_at, created_at FROM auth_sessions WHERE id = ?"
	session := &models.AuthSession{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.OperatorID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database
func (r *OperatorRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and reports how many went
func (r *OperatorRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
