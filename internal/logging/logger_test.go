package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(min Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(min)
	logger.SetOutput(log.New(&buf, "", 0))
	return logger, &buf
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug allowed at debug", LevelDebug, LevelDebug, true},
		{"debug blocked at info", LevelInfo, LevelDebug, false},
		{"info allowed at info", LevelInfo, LevelInfo, true},
		{"info blocked at warn", LevelWarn, LevelInfo, false},
		{"warn allowed at warn", LevelWarn, LevelWarn, true},
		{"warn blocked at error", LevelError, LevelWarn, false},
		{"error allowed at error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(tt.minLevel)

			switch tt.logLevel {
			case LevelDebug:
				logger.Debug("test message")
			case LevelInfo:
				logger.Info("test message")
			case LevelWarn:
				logger.Warn("test message")
			case LevelError:
				logger.Error("test message")
			}

			if tt.shouldLog {
				assert.Contains(t, buf.String(), "test message")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLoggerWith(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.With("task", "01H9ZK").Warn("retry scheduled")

	output := buf.String()
	assert.Contains(t, output, "WARN: retry scheduled")
	assert.Contains(t, output, "task=01H9ZK")
}

func TestLoggerWithFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.WithFields(map[string]interface{}{
		"task":   "01H9ZK",
		"action": "rules-only",
	}).Error("execution failed")

	output := buf.String()
	assert.Contains(t, output, "ERROR: execution failed")
	assert.Contains(t, output, "task=01H9ZK")
	assert.Contains(t, output, "action=rules-only")
}

func TestLoggerInlineKeyVals(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.Warn("failed to persist state", "error", errors.New("disk full"), "retry", 3)

	output := buf.String()
	assert.Contains(t, output, "WARN: failed to persist state")
	assert.Contains(t, output, `error="disk full"`)
	assert.Contains(t, output, "retry=3")
}

func TestLoggerFieldsSorted(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.Info("ordered", "zeta", 1, "alpha", 2)

	output := buf.String()
	assert.Less(t, strings.Index(output, "alpha="), strings.Index(output, "zeta="))
}

func TestLoggerChainingPreservesFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.With("task", "01H9ZK").With("workflow", "batch").Info("starting")

	output := buf.String()
	assert.Contains(t, output, "task=01H9ZK")
	assert.Contains(t, output, "workflow=batch")
}

func TestLoggerOriginalUnmodified(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	_ = logger.With("task", "01H9ZK")
	logger.Info("original logger")

	assert.NotContains(t, buf.String(), "task=01H9ZK")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"simple string", "hello", "hello"},
		{"string with spaces", "hello world", `"hello world"`},
		{"integer", 42, "42"},
		{"error", errors.New("oops"), `"oops"`},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatValue(tt.input))
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(log.New(&buf, "", 0))
	SetLevel(LevelWarn)

	Debug("debug message")
	assert.Empty(t, buf.String())

	Warn("warn message")
	assert.Contains(t, buf.String(), "WARN: warn message")

	buf.Reset()

	With("component", "state").Error("save failed")
	assert.Contains(t, buf.String(), "component=state")
}
