package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	logger := New(Config{})

	if logger.minLevel != LevelInfo {
		t.Errorf("expected minLevel INFO, got %s", logger.minLevel)
	}
	if logger.output == nil {
		t.Error("expected output to be set")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelWarn})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry Entry
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry: %v", err)
	}
	if entry.Level != LevelWarn {
		t.Errorf("expected level WARN, got %s", entry.Level)
	}
	if entry.Message != "warn message" {
		t.Errorf("expected message 'warn message', got %s", entry.Message)
	}
}

func TestErrorIncludesError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelDebug})

	logger.Error("operation failed", errors.New("connection refused"))

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry: %v", err)
	}
	if entry.Error != "connection refused" {
		t.Errorf("expected error 'connection refused', got %s", entry.Error)
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelDebug})

	logger.WithFields(map[string]interface{}{"media_id": "m1", "position_ms": 5000}).Info("progress updated")

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry: %v", err)
	}
	if entry.Context["media_id"] != "m1" {
		t.Errorf("expected media_id m1, got %v", entry.Context["media_id"])
	}
}

func TestContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, MinLevel: LevelDebug})

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithUserID(ctx, "user-456")
	logger.InfoContext(ctx, "handling request")

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry: %v", err)
	}
	if entry.Context["request_id"] != "req-123" {
		t.Errorf("expected request_id req-123, got %v", entry.Context["request_id"])
	}
	if entry.Context["user_id"] != "user-456" {
		t.Errorf("expected user_id user-456, got %v", entry.Context["user_id"])
	}
}

func TestSetAppLogger(t *testing.T) {
	var buf bytes.Buffer
	replacement := New(Config{Output: &buf, MinLevel: LevelDebug})

	original := AppLogger()
	SetAppLogger(replacement)
	defer SetAppLogger(original)

	AppLogger().Info("through replacement")
	if !strings.Contains(buf.String(), "through replacement") {
		t.Error("expected replacement logger to receive messages")
	}
}
