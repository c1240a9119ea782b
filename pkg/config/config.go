package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Log levels accepted on the command line. 0 disables logging, 5 is debug.
const (
	LogLevelDisabled = 0
	LogLevelCritical = 1
	LogLevelError    = 2
	LogLevelWarning  = 3
	LogLevelInfo     = 4
	LogLevelDebug    = 5
)

// Invocation holds everything the command line hands to the controller
type Invocation struct {
	// Path to the JSON-formatted configuration file
	ConfigPath string `yaml:"config" json:"config"`

	// Runs without making any changes to the file system
	DryRun bool `yaml:"dry_run" json:"dry_run"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level int    `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	Name  string `yaml:"name" json:"name"`
}

// SessionConfig holds the optional "session" section of a configuration document
type SessionConfig struct {
	UserAgent         string            `yaml:"user_agent" json:"user_agent"`
	Headers           map[string]string `yaml:"headers" json:"headers"`
	Timeout           time.Duration     `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int               `yaml:"requests_per_minute" json:"requests_per_minute"`
	FailOnStatus      bool              `yaml:"fail_on_status" json:"fail_on_status"`
}

// DefaultUserAgent is sent when the configuration does not name one
const DefaultUserAgent = "ripper/1.0 (+batch downloader)"

// DefaultInvocation returns an Invocation with the command line defaults
func DefaultInvocation() *Invocation {
	return &Invocation{
		DryRun: false,
		Logging: LoggingConfig{
			Level: LogLevelDisabled,
			File:  "",
			Name:  "root",
		},
	}
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		UserAgent:         DefaultUserAgent,
		Headers:           map[string]string{},
		Timeout:           0, // no timeout
		RequestsPerMinute: 0, // unlimited
		FailOnStatus:      false,
	}
}

// LoadFromEnv loads invocation settings from environment variables
func (inv *Invocation) LoadFromEnv() error {
	if dryRun := os.Getenv("RIPPER_DRY_RUN"); dryRun != "" {
		val, err := strconv.ParseBool(dryRun)
		if err != nil {
			return fmt.Errorf("invalid RIPPER_DRY_RUN %q: %w", dryRun, err)
		}
		inv.DryRun = val
	}

	if level := os.Getenv("RIPPER_LOG_LEVEL"); level != "" {
		val, err := strconv.Atoi(strings.TrimSpace(level))
		if err != nil {
			return fmt.Errorf("invalid RIPPER_LOG_LEVEL %q: %w", level, err)
		}
		inv.Logging.Level = val
	}

	if logFile := os.Getenv("RIPPER_LOG_FILE"); logFile != "" {
		inv.Logging.File = logFile
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the invocation.
// Only flags present in the map are applied.
func (inv *Invocation) MergeCommandLineFlags(flags map[string]interface{}) {
	if configPath, ok := flags["config"].(string); ok && configPath != "" {
		inv.ConfigPath = configPath
	}
	if dryRun, ok := flags["dry-run"].(bool); ok {
		inv.DryRun = dryRun
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		inv.Logging.File = logFile
	}
	if logLevel, ok := flags["log-level"].(int); ok {
		inv.Logging.Level = logLevel
	}
}

// Validate checks if the invocation is usable
func (inv *Invocation) Validate() error {
	var errs []error

	if inv.ConfigPath == "" {
		errs = append(errs, errors.New("configuration file path is required"))
	}
	if inv.Logging.Level < LogLevelDisabled || inv.Logging.Level > LogLevelDebug {
		errs = append(errs, fmt.Errorf("log level must be between %d and %d, got %d",
			LogLevelDisabled, LogLevelDebug, inv.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// LoadInvocation builds the invocation from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Defaults
func LoadInvocation(configPath string, flags map[string]interface{}) (*Invocation, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ripper.env"))

	inv := DefaultInvocation()
	inv.ConfigPath = configPath

	if err := inv.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	inv.MergeCommandLineFlags(flags)

	if err := inv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invocation: %w", err)
	}

	return inv, nil
}
