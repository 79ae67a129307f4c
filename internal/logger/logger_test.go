package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToLogFile(t *testing.T) {
	dir := t.TempDir()

	log, err := New(Config{Level: "debug", LogDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info().Str("key", "value").Msg("hello")

	data, err := os.ReadFile(filepath.Join(dir, "tutor.log"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"message":"hello"`) {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	dir := t.TempDir()

	log, err := New(Config{Level: "error", LogDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info().Msg("dropped")

	data, err := os.ReadFile(filepath.Join(dir, "tutor.log"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "dropped") {
		t.Errorf("info entry should be filtered at error level: %s", data)
	}
}

func TestNewWithoutWriters(t *testing.T) {
	log, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Nop logger must be safe to use.
	log.Error().Msg("nowhere")
}

func TestNewBadLevelDefaultsToInfo(t *testing.T) {
	dir := t.TempDir()

	log, err := New(Config{Level: "nonsense", LogDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info().Msg("kept")

	data, err := os.ReadFile(filepath.Join(dir, "tutor.log"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "kept") {
		t.Errorf("info entry should pass at default level: %s", data)
	}
}
