package models

import "time"

// Operator is a desk account that can sign in and manage students
type Operator struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// AuthSession represents an authenticated operator session
type AuthSession struct {
	ID         string
	OperatorID int64
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// IsExpired checks if the session has expired
func (s *AuthSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
