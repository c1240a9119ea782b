package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ripper/pkg/config"
)

func newBufferLogger(t *testing.T, level int) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: level, Name: "root"}, &buf, false)
	require.NoError(t, err)
	return l, &buf
}

func logEverySeverity(l Logger) {
	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")
	l.Critical("critical message")
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		level    int
		expected zerolog.Level
		wantErr  bool
	}{
		{0, zerolog.Disabled, false},
		{1, zerolog.FatalLevel, false},
		{2, zerolog.ErrorLevel, false},
		{3, zerolog.WarnLevel, false},
		{4, zerolog.InfoLevel, false},
		{5, zerolog.DebugLevel, false},
		{6, zerolog.Disabled, true},
		{-1, zerolog.Disabled, true},
	}

	for _, tt := range tests {
		level, err := LevelFor(tt.level)
		if tt.wantErr {
			assert.Error(t, err, "level %d", tt.level)
			continue
		}
		require.NoError(t, err, "level %d", tt.level)
		assert.Equal(t, tt.expected, level, "level %d", tt.level)
	}
}

func TestLevelZeroSuppressesEverything(t *testing.T) {
	l, buf := newBufferLogger(t, config.LogLevelDisabled)

	logEverySeverity(l)
	l.CriticalWithFields("critical with fields", map[string]interface{}{"k": "v"})

	assert.Empty(t, buf.String())
}

func TestLevelFiveLogsEverySeverity(t *testing.T) {
	l, buf := newBufferLogger(t, config.LogLevelDebug)

	logEverySeverity(l)

	output := buf.String()
	for _, msg := range []string{"debug message", "info message", "warn message", "error message", "critical message"} {
		assert.Contains(t, output, msg)
	}
	assert.Len(t, strings.Split(strings.TrimSpace(output), "\n"), 5)
}

func TestLevelThresholds(t *testing.T) {
	tests := []struct {
		level    int
		expected []string
		absent   []string
	}{
		{1, []string{"critical message"}, []string{"error message", "warn message"}},
		{2, []string{"critical message", "error message"}, []string{"warn message"}},
		{3, []string{"warn message"}, []string{"info message"}},
		{4, []string{"info message"}, []string{"debug message"}},
	}

	for _, tt := range tests {
		l, buf := newBufferLogger(t, tt.level)
		logEverySeverity(l)

		for _, msg := range tt.expected {
			assert.Contains(t, buf.String(), msg, "level %d", tt.level)
		}
		for _, msg := range tt.absent {
			assert.NotContains(t, buf.String(), msg, "level %d", tt.level)
		}
	}
}

func TestRecordLayout(t *testing.T) {
	l, buf := newBufferLogger(t, config.LogLevelDebug)

	l.Critical("Failed to parse configuration file!")
	l.Warn("Directory exists")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], " root CRITICAL Failed to parse configuration file!")
	assert.Contains(t, lines[1], " root WARNING Directory exists")
	assert.NotContains(t, lines[0], "logger=")
}

func TestWithFields(t *testing.T) {
	l, buf := newBufferLogger(t, config.LogLevelInfo)

	l.WithField("field1", "value1").
		WithFields(map[string]interface{}{"count": 4}).
		Info("chained fields")

	output := buf.String()
	assert.Contains(t, output, "chained fields")
	assert.Contains(t, output, "field1=value1")
	assert.Contains(t, output, "count=4")
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t, config.LogLevelError)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("disk full")).Error("write failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ripper.log")

	l, err := New(&config.LoggingConfig{Level: config.LogLevelInfo, File: path, Name: "root"})
	require.NoError(t, err)

	l.Info("Starting log")
	require.NoError(t, Close(l))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "root INFO Starting log")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: 9})
	assert.Error(t, err)
}

func TestLogRequest(t *testing.T) {
	l := NewTestLogger()

	LogRequest(l, "GET", "http://example.com/a", 200, 1.5)
	LogRequest(l, "GET", "http://example.com/b", 404, 2.5)

	assert.Len(t, l.GetMessagesByLevel("DEBUG"), 1)
	warnings := l.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 1)
	assert.Equal(t, 404, warnings[0].Fields["status_code"])
}

func TestTestLoggerSharesRecorder(t *testing.T) {
	l := NewTestLogger()

	child := l.WithField("node", "item")
	child.WithError(errors.New("boom")).Error("failed")
	l.Info("plain")

	messages := l.GetMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, "item", messages[0].Fields["node"])
	assert.EqualError(t, messages[0].Error, "boom")
	assert.True(t, l.HasError())
	assert.True(t, l.HasMessage("plain"))

	l.Clear()
	assert.Empty(t, l.GetMessages())
}
