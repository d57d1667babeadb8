package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
		{"invalid falls back to info", "loud", zerolog.InfoLevel},
		{"empty falls back to info", "", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger := New(&bytes.Buffer{}, tt.level)
			if logger.GetLevel() != tt.expected {
				t.Errorf("New(%q) level = %v, want %v", tt.level, logger.GetLevel(), tt.expected)
			}
		})
	}
}

func TestNewEmitsJSONForNonTerminal(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, "info")
	logger.Info().Str("key", "value").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message field, got %q", out)
	}
}

func TestWithComponentAndRunID(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := WithRunID(WithComponent(New(&buf, "info"), "pool"), "run-42")
	logger.Info().Msg("tagged")

	out := buf.String()
	if !strings.Contains(out, `"component":"pool"`) {
		t.Errorf("expected component tag, got %q", out)
	}
	if !strings.Contains(out, `"run_id":"run-42"`) {
		t.Errorf("expected run_id tag, got %q", out)
	}
}

func TestLoggerAdapters(t *testing.T) {
	t.Parallel()

	t.Run("zerolog adapter", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := NewLogger(&buf, "server")
		l.Printf("listening on %s", ":8080")
		l.Println("started")

		out := buf.String()
		if !strings.Contains(out, "listening on :8080") {
			t.Errorf("Printf output missing, got %q", out)
		}
		if !strings.Contains(out, "started") {
			t.Errorf("Println output missing, got %q", out)
		}
		if !strings.Contains(out, `"component":"server"`) {
			t.Errorf("component tag missing, got %q", out)
		}
	})

	t.Run("std adapter", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := NewStdLoggerAdapter(log.New(&buf, "", 0))
		l.Printf("value=%d", 7)
		if !strings.Contains(buf.String(), "value=7") {
			t.Errorf("std adapter output missing, got %q", buf.String())
		}
	})
}

func TestNopDiscards(t *testing.T) {
	t.Parallel()
	logger := Nop()
	// Must not panic and must not be enabled at any level.
	logger.Error().Msg("dropped")
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("Nop logger level = %v, want disabled", logger.GetLevel())
	}
}
