package database

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN enables foreign keys", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Path: "cafe.db"})
		if !strings.HasPrefix(dsn, "cafe.db?") {
			t.Errorf("DSN() = %q, want cafe.db? prefix", dsn)
		}
		if !strings.Contains(dsn, "_foreign_keys=on") {
			t.Errorf("DSN() = %q, missing _foreign_keys=on", dsn)
		}
	})

	t.Run("DSN appends to existing query", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Path: "file:cafe.db?cache=shared"})
		if !strings.HasPrefix(dsn, "file:cafe.db?cache=shared&") {
			t.Errorf("DSN() = %q", dsn)
		}
	})

	t.Run("ForUpdate", func(t *testing.T) {
		if dialect.ForUpdate() != "" {
			t.Errorf("ForUpdate() = %q, want empty", dialect.ForUpdate())
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		if !dialect.IsUniqueViolation(&pq.Error{Code: "23505"}) {
			t.Error("expected 23505 to be a unique violation")
		}
		if dialect.IsUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Error("foreign key violation should not be a unique violation")
		}
		if dialect.IsUniqueViolation(errors.New("boom")) {
			t.Error("plain error should not be a unique violation")
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN forces parseTime", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{URL: "cafe:secret@tcp(localhost:3306)/cafe"})
		if !strings.Contains(dsn, "parseTime=true") {
			t.Errorf("DSN() = %q, missing parseTime=true", dsn)
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		if !dialect.IsUniqueViolation(&mysql.MySQLError{Number: 1062}) {
			t.Error("expected 1062 to be a unique violation")
		}
		if dialect.IsUniqueViolation(&mysql.MySQLError{Number: 1451}) {
			t.Error("1451 should not be a unique violation")
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM students WHERE id_number = ?",
			expected: "SELECT * FROM students WHERE id_number = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM students WHERE id_number = ?",
			expected: "SELECT * FROM students WHERE id_number = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO payments (student_id, amount, date) VALUES (?, ?, ?)",
			expected: "INSERT INTO payments (student_id, amount, date) VALUES ($1, $2, $3)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE usage_sessions SET ended_at = ? WHERE id = ?",
			expected: "UPDATE usage_sessions SET ended_at = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `
-- first table; with a semicolon in the comment
CREATE TABLE a (id INTEGER);

CREATE TABLE b (id INTEGER);
`
	stmts := splitStatements(content)
	if len(stmts) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (id INTEGER)" {
		t.Errorf("stmts[0] = %q", stmts[0])
	}
}

func TestResetSequenceQuery(t *testing.T) {
	if q := NewSQLiteDialect().ResetSequenceQuery("students"); q != "" {
		t.Errorf("SQLite ResetSequenceQuery() = %q, want empty", q)
	}
	if q := NewMySQLDialect().ResetSequenceQuery("students"); q != "" {
		t.Errorf("MySQL ResetSequenceQuery() = %q, want empty", q)
	}

	q := NewPostgresDialect().ResetSequenceQuery("payments")
	if !strings.Contains(q, "pg_get_serial_sequence('payments', 'id')") || !strings.Contains(q, "MAX(id) FROM payments") {
		t.Errorf("PostgreSQL ResetSequenceQuery() = %q", q)
	}
}
