package logger

import (
	"github.com/rs/zerolog"
)

// Enter debug-logs entry into a function
func Enter(l Logger, fn string) {
	l.Debug("Entering " + fn)
}

// Return debug-logs return from a function
func Return(l Logger, fn string) {
	l.Debug(fn + " returning")
}

// LogRequest logs HTTP request information.
// Non-2xx responses are not errors for the caller, so they stay at warning.
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	if statusCode >= 200 && statusCode < 400 {
		l.DebugWithFields("HTTP request completed", fields)
	} else {
		l.WarnWithFields("HTTP request returned non-success status", fields)
	}
}

// LogSave logs a file write, or the write a dry run skipped
func LogSave(l Logger, path, sourceURL string, size int64, dryRun bool) {
	fields := map[string]interface{}{
		"path":    path,
		"url":     sourceURL,
		"dry_run": dryRun,
	}

	if dryRun {
		l.InfoWithFields("Dry run. Not writing file", fields)
		return
	}

	fields["size"] = size
	l.InfoWithFields("File saved", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                             {}
func (n *nopLogger) Info(msg string)                                              {}
func (n *nopLogger) Warn(msg string)                                              {}
func (n *nopLogger) Error(msg string)                                             {}
func (n *nopLogger) Critical(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger               { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger              { return n }
func (n *nopLogger) WithError(err error) Logger                                   { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{})    {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})     {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})     {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{})    {}
func (n *nopLogger) CriticalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                                  { return nil }
