// Package logger provides a structured logging interface for ripper.
//
// It wraps the zerolog library and renders single-line records of the form
//
//	2016-05-01 12:00:00 root INFO Fetching http://example.com key=value
//
// Levels are selected with the numeric scale used on the command line:
//
//	0  disabled (nothing is written)
//	1  critical
//	2  error
//	3  warning
//	4  info
//	5  debug
//
// Loggers are passed explicitly to the controller and to every ripper node;
// there is no package-level logger.
//
// Basic Usage:
//
//	log, err := logger.New(&config.LoggingConfig{Level: 4, Name: "root"})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close(log)
//
//	log.Info("Starting log")
//	log.WithField("url", url).Warn("Unexpected status")
//
// Tests can use NewTestLogger to capture records, or NewNopLogger to drop them.
package logger
