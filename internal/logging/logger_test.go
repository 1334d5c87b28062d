package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"celpress/internal/logging"
)

func TestJSONLoggerFieldNames(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "celpress.log")
	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	scoped := logging.NewComponentLogger(logger, "publish")
	scoped.Info("publish cycle complete",
		logging.String(logging.FieldEventType, "publish_ok"),
		logging.Int("rebuilt_frames", 2),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("parse log line: %v (%q)", err, content)
	}

	if entry["event"] != "publish cycle complete" {
		t.Fatalf("event = %v", entry["event"])
	}
	if entry["level"] != "info" {
		t.Fatalf("level = %v, want lowercase info", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("missing ts field")
	}
	if entry[logging.FieldComponent] != "publish" {
		t.Fatalf("component = %v", entry[logging.FieldComponent])
	}
	if entry["rebuilt_frames"] != float64(2) {
		t.Fatalf("rebuilt_frames = %v", entry["rebuilt_frames"])
	}
}

func TestConsoleLoggerFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	scoped := logging.NewComponentLogger(logger, "watcher")
	scoped.Info("watcher started", logging.String("lock_file", "/tmp/celpress.lock"))
	scoped.Debug("suppressed at info level")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)

	if !strings.Contains(text, "INFO watcher: watcher started") {
		t.Fatalf("unexpected console line: %q", text)
	}
	if !strings.Contains(text, "lock_file=/tmp/celpress.lock") {
		t.Fatalf("missing kv pair: %q", text)
	}
	if strings.Contains(text, "suppressed at info level") {
		t.Fatalf("debug line leaked: %q", text)
	}
	if lines := strings.Count(text, "\n"); lines != 1 {
		t.Fatalf("expected one log line, got %d", lines)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("goes nowhere", logging.Error(nil))
}
