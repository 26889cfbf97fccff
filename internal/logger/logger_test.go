package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// captureStdout builds a production logger whose stdout sink is a pipe and
// returns the decoded first line written by fn.
func captureStdout(t *testing.T, opts []Option, fn func(*zap.Logger)) map[string]interface{} {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	log, err := New("production", opts...)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	fn(log)
	_ = log.Sync()
	w.Close()

	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read log line: %v", err)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	return entry
}

func TestProductionLoggerWritesJSONWithService(t *testing.T) {
	entry := captureStdout(t, []Option{WithService("showroom-api")}, func(l *zap.Logger) {
		l.Info("listing created", zap.String("listing_id", "abc"))
	})

	if entry["service"] != "showroom-api" {
		t.Errorf("service field = %v, want showroom-api", entry["service"])
	}
	if entry["msg"] != "listing created" {
		t.Errorf("msg field = %v", entry["msg"])
	}
	if entry["listing_id"] != "abc" {
		t.Errorf("listing_id field = %v", entry["listing_id"])
	}
	if _, ok := entry["level"]; !ok {
		t.Error("level field missing")
	}
}

func TestWithLevel(t *testing.T) {
	log, err := New("development", WithLevel("warn"))
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}

	// Unknown levels keep the environment default.
	log, err = New("development", WithLevel("loud"))
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger should keep debug enabled")
	}
}

func TestNewWithDefaults(t *testing.T) {
	t.Setenv("SERVER_ENV", "")
	t.Setenv("LOG_LEVEL", "error")

	log := NewWithDefaults("imagejanitor")
	if log == nil {
		t.Fatal("Logger should not be nil")
	}
	if log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("LOG_LEVEL should be honored")
	}
}

// Feature: car-showroom, Property 4: Error logs keep their context fields
func TestProperty_ErrorLogsIncludeContext(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("error entries carry the error field and the message", prop.ForAll(
		func(message string, errorMsg string) bool {
			entry := captureStdout(t, nil, func(l *zap.Logger) {
				l.Error(message, zap.String("error", errorMsg))
			})
			return entry["error"] == errorMsg && entry["msg"] == message
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
