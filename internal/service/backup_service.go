package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"cybercafe/internal/database"
	"cybercafe/internal/models"
	"cybercafe/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version       string               `json:"version"`
	ExportedAt    time.Time            `json:"exported_at"`
	DatabaseType  string               `json:"database_type"`
	Operators     []OperatorBackup     `json:"operators"`
	Students      []StudentBackup      `json:"students"`
	Payments      []PaymentBackup      `json:"payments"`
	UsageSessions []UsageSessionBackup `json:"usage_sessions"`
}

// OperatorBackup represents an operator record for backup
type OperatorBackup struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudentBackup represents a student record for backup
type StudentBackup struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IDNumber    string    `json:"id_number"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaymentBackup represents a payment record for backup
type PaymentBackup struct {
	ID        int64           `json:"id"`
	StudentID int64           `json:"student_id"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Date      string          `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
}

// UsageSessionBackup represents a usage session record for backup
type UsageSessionBackup struct {
	ID        int64      `json:"id"`
	StudentID int64      `json:"student_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db           *database.DB
	operatorRepo *repository.OperatorRepository
	studentRepo  *repository.StudentRepository
	paymentRepo  *repository.PaymentRepository
	sessionRepo  *repository.UsageSessionRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:           db,
		operatorRepo: repository.NewOperatorRepository(db),
		studentRepo:  repository.NewStudentRepository(db),
		paymentRepo:  repository.NewPaymentRepository(db),
		sessionRepo:  repository.NewUsageSessionRepository(db),
	}
}

// Export writes every operator, student, payment and usage session as JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.MigrationsSubdir(),
	}

	operators, err := s.operatorRepo.GetAllOperators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export operators: %w", err)
	}
	for _, o := range operators {
		backup.Operators = append(backup.Operators, OperatorBackup{
			ID:           o.ID,
			Username:     o.Username,
			PasswordHash: o.PasswordHash,
			CreatedAt:    o.CreatedAt,
		})
	}

	students, err := s.studentRepo.GetAllStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export students: %w", err)
	}
	for _, st := range students {
		backup.Students = append(backup.Students, StudentBackup{
			ID:          st.ID,
			FirstName:   st.FirstName,
			LastName:    st.LastName,
			IDNumber:    st.IDNumber,
			PhoneNumber: st.PhoneNumber,
			CreatedAt:   st.CreatedAt,
			UpdatedAt:   st.UpdatedAt,
		})
	}

	payments, err := s.paymentRepo.GetAllPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export payments: %w", err)
	}
	for _, p := range payments {
		backup.Payments = append(backup.Payments, PaymentBackup{
			ID:        p.ID,
			StudentID: p.StudentID,
			Amount:    p.Amount,
			Balance:   p.Balance,
			Date:      p.Date.Format(time.DateOnly),
			CreatedAt: p.CreatedAt,
		})
	}

	sessions, err := s.sessionRepo.GetAllSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export usage sessions: %w", err)
	}
	for _, us := range sessions {
		backup.UsageSessions = append(backup.UsageSessions, UsageSessionBackup{
			ID:        us.ID,
			StudentID: us.StudentID,
			StartedAt: us.StartedAt,
			EndedAt:   us.EndedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Info().
		Int("operators", len(backup.Operators)).
		Int("students", len(backup.Students)).
		Int("payments", len(backup.Payments)).
		Int("usage_sessions", len(backup.UsageSessions)).
		Msg("database exported")
	return backup, nil
}

// Import restores a backup in one transaction. With clear set, existing
// rows are removed first; otherwise the backup is merged and conflicting
// IDs fail the import.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Info().Str("version", backup.Version).Time("exported_at", backup.ExportedAt).Msg("importing backup")

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clear {
			if err := clearTables(ctx, tx); err != nil {
				return err
			}
		}

		for _, o := range backup.Operators {
			query := "INSERT INTO operators (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)"
			if _, err := tx.ExecContext(ctx, query, o.ID, o.Username, o.PasswordHash, o.CreatedAt); err != nil {
				return fmt.Errorf("failed to import operator %d: %w", o.ID, err)
			}
		}

		for _, st := range backup.Students {
			query := `
				INSERT INTO students (id, first_name, last_name, id_number, phone_number, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`
			if _, err := tx.ExecContext(ctx, query,
				st.ID, st.FirstName, st.LastName, st.IDNumber, st.PhoneNumber, st.CreatedAt, st.UpdatedAt); err != nil {
				return fmt.Errorf("failed to import student %s: %w", st.IDNumber, err)
			}
		}

		for _, p := range backup.Payments {
			date, err := time.Parse(time.DateOnly, p.Date)
			if err != nil {
				return fmt.Errorf("payment %d has invalid date %q: %w", p.ID, p.Date, err)
			}
			query := "INSERT INTO payments (id, student_id, amount, balance, date, created_at) VALUES (?, ?, ?, ?, ?, ?)"
			if _, err := tx.ExecContext(ctx, query, p.ID, p.StudentID, p.Amount, p.Balance, models.DateOf(date), p.CreatedAt); err != nil {
				return fmt.Errorf("failed to import payment %d: %w", p.ID, err)
			}
		}

		for _, us := range backup.UsageSessions {
			var endedAt any
			if us.EndedAt != nil {
				endedAt = us.EndedAt.UTC()
			}
			query := "INSERT INTO usage_sessions (id, student_id, started_at, ended_at) VALUES (?, ?, ?, ?)"
			if _, err := tx.ExecContext(ctx, query, us.ID, us.StudentID, us.StartedAt.UTC(), endedAt); err != nil {
				return fmt.Errorf("failed to import usage session %d: %w", us.ID, err)
			}
		}

		for _, table := range []string{"operators", "students", "payments", "usage_sessions"} {
			if q := tx.GetDialect().ResetSequenceQuery(table); q != "" {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					return fmt.Errorf("failed to reset %s sequence: %w", table, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("operators", len(backup.Operators)).
		Int("students", len(backup.Students)).
		Int("payments", len(backup.Payments)).
		Int("usage_sessions", len(backup.UsageSessions)).
		Msg("database import completed")
	return &backup, nil
}

// clearTables deletes every row, children before parents
func clearTables(ctx context.Context, tx *database.Tx) error {
	tables := []string{"usage_sessions", "payments", "students", "auth_sessions", "operators"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		log.Debug().Str("table", table).Msg("cleared table")
	}
	return nil
}
