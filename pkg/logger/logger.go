package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"ripper/pkg/config"
)

// NameFieldName is the field carrying the logger name in every record
const NameFieldName = "logger"

// Logger defines the interface for logging operations
type Logger interface {
	// Basic logging methods
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Critical(msg string)

	// Logging with fields
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	// Structured logging methods with fields
	DebugWithFields(msg string, fields map[string]interface{})
	InfoWithFields(msg string, fields map[string]interface{})
	WarnWithFields(msg string, fields map[string]interface{})
	ErrorWithFields(msg string, fields map[string]interface{})
	CriticalWithFields(msg string, fields map[string]interface{})

	// Get the underlying zerolog instance (for advanced usage)
	GetZerolog() *zerolog.Logger
}

// zerologLogger implements the Logger interface using zerolog
type zerologLogger struct {
	logger *zerolog.Logger
	fields map[string]interface{}
	closer io.Closer
}

// LevelFor maps a numeric command line level to a zerolog level.
// 0 disables output, 1 is critical only and 5 is debug.
func LevelFor(level int) (zerolog.Level, error) {
	switch level {
	case config.LogLevelDisabled:
		return zerolog.Disabled, nil
	case config.LogLevelCritical:
		return zerolog.FatalLevel, nil
	case config.LogLevelError:
		return zerolog.ErrorLevel, nil
	case config.LogLevelWarning:
		return zerolog.WarnLevel, nil
	case config.LogLevelInfo:
		return zerolog.InfoLevel, nil
	case config.LogLevelDebug:
		return zerolog.DebugLevel, nil
	default:
		return zerolog.Disabled, fmt.Errorf("unknown log level: %d", level)
	}
}

// New creates a new Logger instance based on the provided configuration.
// Without a file, records go to standard output.
func New(cfg *config.LoggingConfig) (Logger, error) {
	if cfg.File == "" {
		return NewWithWriter(cfg, os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
	}

	file, err := setupFileOutput(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup file output: %w", err)
	}

	l, err := NewWithWriter(cfg, file, false)
	if err != nil {
		file.Close()
		return nil, err
	}
	l.(*zerologLogger).closer = file
	return l, nil
}

// NewWithWriter creates a Logger writing single-line records to out
func NewWithWriter(cfg *config.LoggingConfig, out io.Writer, color bool) (Logger, error) {
	level, err := LevelFor(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "root"
	}

	// Configure time format
	zerolog.TimeFieldFormat = time.RFC3339

	output := zerolog.ConsoleWriter{
		Out:           out,
		NoColor:       !color,
		TimeFormat:    "2006-01-02 15:04:05",
		PartsOrder:    []string{zerolog.TimestampFieldName, NameFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FieldsExclude: []string{NameFieldName},
		FormatLevel:   formatLevel(color),
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str(NameFieldName, name).
		Logger()

	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}, nil
}

// formatLevel renders zerolog levels with the names the numeric levels use
func formatLevel(color bool) zerolog.Formatter {
	return func(i interface{}) string {
		if i == nil {
			return ""
		}
		level := strings.ToUpper(fmt.Sprintf("%s", i))
		switch level {
		case "DEBUG":
			return paint(color, "\033[37m", "DEBUG")
		case "INFO":
			return paint(color, "\033[32m", "INFO")
		case "WARN":
			return paint(color, "\033[33m", "WARNING")
		case "ERROR":
			return paint(color, "\033[31m", "ERROR")
		case "FATAL":
			return paint(color, "\033[35m", "CRITICAL")
		default:
			return level
		}
	}
}

func paint(color bool, code, text string) string {
	if !color {
		return text
	}
	return code + text + "\033[0m"
}

// setupFileOutput opens the log file for appending
func setupFileOutput(cfg *config.LoggingConfig) (*os.File, error) {
	// Create log directory if it doesn't exist
	dir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}

// Close releases the log file, if any
func Close(l Logger) error {
	if zl, ok := l.(*zerologLogger); ok && zl.closer != nil {
		return zl.closer.Close()
	}
	return nil
}

// Debug logs a debug message
func (l *zerologLogger) Debug(msg string) {
	event := l.logger.Debug()
	l.addFields(event).Msg(msg)
}

// Info logs an info message
func (l *zerologLogger) Info(msg string) {
	event := l.logger.Info()
	l.addFields(event).Msg(msg)
}

// Warn logs a warning message
func (l *zerologLogger) Warn(msg string) {
	event := l.logger.Warn()
	l.addFields(event).Msg(msg)
}

// Error logs an error message
func (l *zerologLogger) Error(msg string) {
	event := l.logger.Error()
	l.addFields(event).Msg(msg)
}

// Critical logs at the most severe level without exiting
func (l *zerologLogger) Critical(msg string) {
	event := l.logger.WithLevel(zerolog.FatalLevel)
	l.addFields(event).Msg(msg)
}

// WithField adds a single field to the logger
func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields adds multiple fields to the logger
func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	newLogger := &zerologLogger{
		logger: l.logger,
		fields: make(map[string]interface{}, len(l.fields)+len(fields)),
		closer: l.closer,
	}

	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}

	return newLogger
}

// WithError adds an error field to the logger
func (l *zerologLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// DebugWithFields logs a debug message with fields
func (l *zerologLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.Debug()
	l.addFieldsFromMap(event, fields).Msg(msg)
}

// InfoWithFields logs an info message with fields
func (l *zerologLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.Info()
	l.addFieldsFromMap(event, fields).Msg(msg)
}

// WarnWithFields logs a warning message with fields
func (l *zerologLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.Warn()
	l.addFieldsFromMap(event, fields).Msg(msg)
}

// ErrorWithFields logs an error message with fields
func (l *zerologLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.Error()
	l.addFieldsFromMap(event, fields).Msg(msg)
}

// CriticalWithFields logs a critical message with fields
func (l *zerologLogger) CriticalWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.WithLevel(zerolog.FatalLevel)
	l.addFieldsFromMap(event, fields).Msg(msg)
}

// GetZerolog returns the underlying zerolog instance
func (l *zerologLogger) GetZerolog() *zerolog.Logger {
	return l.logger
}

// addFields adds stored fields to a zerolog event
func (l *zerologLogger) addFields(event *zerolog.Event) *zerolog.Event {
	for key, value := range l.fields {
		event = addFieldToEvent(event, key, value)
	}
	return event
}

// addFieldsFromMap adds fields from a map to a zerolog event
func (l *zerologLogger) addFieldsFromMap(event *zerolog.Event, fields map[string]interface{}) *zerolog.Event {
	event = l.addFields(event)
	for key, value := range fields {
		event = addFieldToEvent(event, key, value)
	}
	return event
}

// addFieldToEvent adds a single field to a zerolog event with type checking.
// Disabled events are nil and accept every call.
func addFieldToEvent(event *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return event.Str(key, v)
	case int:
		return event.Int(key, v)
	case int64:
		return event.Int64(key, v)
	case float64:
		return event.Float64(key, v)
	case bool:
		return event.Bool(key, v)
	case time.Time:
		return event.Time(key, v)
	case time.Duration:
		return event.Dur(key, v)
	case error:
		return event.AnErr(key, v)
	case []string:
		return event.Strs(key, v)
	default:
		return event.Interface(key, v)
	}
}
