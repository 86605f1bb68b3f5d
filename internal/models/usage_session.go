package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is derived from EndedAt; there is no separate flag to drift
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// UsageSession is a timed check-in of a student. Open while EndedAt is nil.
type UsageSession struct {
	ID        int64
	StudentID int64
	StartedAt time.Time
	EndedAt   *time.Time
}

// Status reports whether the session is open or closed
func (s *UsageSession) Status() SessionStatus {
	if s.EndedAt == nil {
		return SessionOpen
	}
	return SessionClosed
}

// IsOpen reports whether the session is still running
func (s *UsageSession) IsOpen() bool {
	return s.Status() == SessionOpen
}

// Elapsed returns end (or now, while open) minus start. Never negative.
func (s *UsageSession) Elapsed(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	d := end.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Duration formats the elapsed time as "HH hrs MM mins"
func (s *UsageSession) Duration(now time.Time) string {
	return FormatDuration(s.Elapsed(now))
}

// AmountDue bills the raw elapsed time at ratePerDay, rounded to cents
func (s *UsageSession) AmountDue(now time.Time, ratePerDay decimal.Decimal) decimal.Decimal {
	elapsed := decimal.NewFromInt(int64(s.Elapsed(now)))
	day := decimal.NewFromInt(int64(24 * time.Hour))
	return elapsed.Div(day).Mul(ratePerDay).Round(2)
}

// FormatDuration renders d as zero-padded hours and minutes. Hours past 99
// keep all their digits.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalMinutes := int64(d / time.Minute)
	return fmt.Sprintf("%02d hrs %02d mins", totalMinutes/60, totalMinutes%60)
}

// UsageSessionWithStudent includes the student for the active sessions page
type UsageSessionWithStudent struct {
	UsageSession
	Student Student
}

// IsActive reports whether the student is still checked in on this session
func (s *UsageSession) IsActive() bool {
	return s.IsOpen()
}
