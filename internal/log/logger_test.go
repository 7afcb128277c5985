package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, FormatJSON, "INFO")

	logger.Info("hello", "dataset", "ds1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record["msg"] != "hello" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["dataset"] != "ds1" {
		t.Errorf("dataset = %v", record["dataset"])
	}
}

func TestNewWithWriter_PrettyLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, FormatPretty, "WARN")

	logger.Info("suppressed")
	logger.Warn("visible", "file", "a.csv")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info record should be suppressed at WARN level")
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "WRN") {
		t.Errorf("expected warning output, got %q", out)
	}
	if !strings.Contains(out, "file=") {
		t.Errorf("expected attr in output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
