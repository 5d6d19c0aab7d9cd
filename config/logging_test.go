package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLoggingWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duskwire.log")

	logger, err := SetupLogging(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("SetupLogging: %v", err)
	}
	logger.Info("hello", "peer", "1.2.3.4")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"hello"`) {
		t.Fatalf("expected JSON log line, got %q", b)
	}
	if !strings.Contains(string(b), `"peer":"1.2.3.4"`) {
		t.Fatalf("expected attr in JSON log line, got %q", b)
	}
}

func TestSetupLoggingStdoutOnlyWhenPathEmpty(t *testing.T) {
	logger, err := SetupLogging("", slog.LevelInfo)
	if err != nil {
		t.Fatalf("SetupLogging: %v", err)
	}
	if logger == nil {
		t.Fatal("expected a non-nil logger")
	}
}

func TestDiscardLoggerNeverPanics(t *testing.T) {
	logger := DiscardLogger()
	logger.Info("should be dropped silently")
}
