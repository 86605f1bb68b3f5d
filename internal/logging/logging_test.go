package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	original := log.Logger
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	})
}

func TestSetupWriterJSON(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer

	if err := SetupWriter(&buf, "warn", "json"); err != nil {
		t.Fatalf("SetupWriter() error = %v", err)
	}
	log.Info().Msg("hidden")
	log.Warn().Str("id_number", "A100").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "shown" || entry["id_number"] != "A100" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestSetupWriterConsole(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer

	if err := SetupWriter(&buf, "", "console"); err != nil {
		t.Fatalf("SetupWriter() error = %v", err)
	}
	log.Info().Msg("desk open")
	if !strings.Contains(buf.String(), "desk open") {
		t.Errorf("console output missing message: %q", buf.String())
	}
}

func TestSetupWriterInvalid(t *testing.T) {
	restoreLogger(t)

	if err := SetupWriter(&bytes.Buffer{}, "loud", "json"); err == nil {
		t.Error("expected error for invalid level")
	}
	if err := SetupWriter(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected error for invalid format")
	}
}
