package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "yovod.log")
	var console bytes.Buffer

	logger, err := New(logPath, "main", Options{Console: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "hello" || entry["session"] != "main" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("entry missing ts")
	}
	if !strings.Contains(console.String(), "hello") {
		t.Errorf("console output missing message: %q", console.String())
	}
}

func TestNewLevelFilters(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "yovod.log")
	var console bytes.Buffer

	logger, err := New(logPath, "main", Options{Level: "warn", Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	_ = logger.Sync()

	if strings.Contains(console.String(), "dropped") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(console.String(), "kept") {
		t.Error("warn line missing")
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "x.log"), "main", Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
