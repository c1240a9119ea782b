package logger

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a logger implementation for testing that captures all log messages
type TestLogger struct {
	rec    *recorder
	fields map[string]interface{}
	err    error
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// recorder is shared by a TestLogger and every logger derived from it
type recorder struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
	zerolog  zerolog.Logger
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{
		rec: &recorder{zerolog: zerolog.Nop()},
	}
}

func (l *TestLogger) Debug(msg string)    { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)     { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)     { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string)    { l.log("ERROR", msg, nil) }
func (l *TestLogger) Critical(msg string) { l.log("CRITICAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *TestLogger) CriticalWithFields(msg string, fields map[string]interface{}) {
	l.log("CRITICAL", msg, fields)
}

// WithError adds an error to the logger context
func (l *TestLogger) WithError(err error) Logger {
	return &TestLogger{rec: l.rec, fields: l.fields, err: err}
}

// WithField adds a field to the logger context
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields adds multiple fields to the logger context
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &TestLogger{rec: l.rec, fields: l.mergeFields(fields), err: l.err}
}

// GetZerolog returns the underlying zerolog instance
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return &l.rec.zerolog
}

// log captures a log message
func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	merged := l.mergeFields(fields)

	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	l.rec.messages = append(l.rec.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  merged,
		Error:   l.err,
	})

	// Also write to buffer for debugging
	fmt.Fprintf(&l.rec.buffer, "[%s] %s", level, msg)
	if len(merged) > 0 {
		fmt.Fprintf(&l.rec.buffer, " fields=%v", merged)
	}
	if l.err != nil {
		fmt.Fprintf(&l.rec.buffer, " error=%v", l.err)
	}
	fmt.Fprintln(&l.rec.buffer)
}

func (l *TestLogger) mergeFields(additional map[string]interface{}) map[string]interface{} {
	if len(l.fields) == 0 && len(additional) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(l.fields)+len(additional))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range additional {
		merged[k] = v
	}
	return merged
}

// GetMessages returns all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	messages := make([]LogMessage, len(l.rec.messages))
	copy(messages, l.rec.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	var filtered []LogMessage
	for _, msg := range l.rec.messages {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	for _, msg := range l.rec.messages {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	l.rec.messages = l.rec.messages[:0]
	l.rec.buffer.Reset()
}

// String returns all log messages as a string
func (l *TestLogger) String() string {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	return l.rec.buffer.String()
}
