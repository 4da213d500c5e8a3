package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "json")

	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug level to be enabled")
	}
	l.Info("pairing started", slog.String("tenant_id", "42"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "pairing started" || record["tenant_id"] != "42" {
		t.Fatalf("unexpected record: %#v", record)
	}
}

func TestNewTextHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")

	l.Info("dropped")
	l.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn record missing, got %q", out)
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := New(&buf, "info", "text").With("request_id", "12345")

	ctx := WithContext(context.Background(), custom)
	FromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "request_id=12345") {
		t.Fatalf("expected request_id attribute, got %q", buf.String())
	}
	if FromContext(context.Background()) != L {
		t.Fatal("expected global logger for bare context")
	}
}

func TestWithTenant(t *testing.T) {
	var buf bytes.Buffer
	WithTenant(New(&buf, "info", "text"), "t-1").Info("x")
	if !strings.Contains(buf.String(), "tenant_id=t-1") {
		t.Fatalf("expected tenant_id attribute, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%s) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
