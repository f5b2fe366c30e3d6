package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"info", INFO},
		{"", INFO},
		{"bogus", INFO},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "taskpilot-logger-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	l, err := New(Config{Dir: tmpDir, Level: INFO, KeepDays: 7})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Close()

	if l.level != INFO {
		t.Errorf("Expected level INFO, got %v", l.level)
	}
	if l.keepDays != 7 {
		t.Errorf("Expected keepDays 7, got %d", l.keepDays)
	}
}

func TestLoggerWritesAndFilters(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "taskpilot-logger-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	l, err := New(Config{Dir: tmpDir, Level: INFO, KeepDays: 3})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	l.Debug("hidden %d", 1)
	l.Info("visible %s", "entry")
	l.Error("broken: %v", os.ErrNotExist)
	l.Close()

	logFile := filepath.Join(tmpDir, "taskpilot-"+time.Now().Format("2006-01-02")+".log")
	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	text := string(content)
	if strings.Contains(text, "hidden") {
		t.Error("DEBUG entry should be filtered at INFO level")
	}
	if !strings.Contains(text, "visible entry") {
		t.Error("INFO entry missing from log file")
	}
	if !strings.Contains(text, "[ERROR]") {
		t.Error("ERROR entry missing from log file")
	}
}
