package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormatInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "production",
		Level:       slog.LevelInfo,
	})

	log.Info("server started", "port", "8080")

	out := buf.String()
	if !strings.Contains(out, `"msg":"server started"`) {
		t.Errorf("expected JSON output, got: %s", out)
	}
	if !strings.Contains(out, `"port":"8080"`) {
		t.Errorf("expected port attribute, got: %s", out)
	}
}

func TestNew_PrettyFormatInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "development",
		Level:       slog.LevelInfo,
	})

	log.Info("cache hit", "key", "planet_data_Earth")

	out := buf.String()
	if !strings.Contains(out, "cache hit") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "key=planet_data_Earth") {
		t.Errorf("expected key=value attribute, got: %s", out)
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Format:      "pretty",
		Level:       slog.LevelWarn,
	})

	log.Debug("should not appear")
	log.Info("should not appear either")
	log.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("expected debug/info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("expected warn to pass, got: %s", out)
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "json",
		Level:  slog.LevelInfo,
	})

	log.WithError(errTest{}).Error("operation failed")

	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error attribute, got: %s", buf.String())
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
