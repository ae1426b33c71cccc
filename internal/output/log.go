// Package output provides terminal output utilities for cephadm-build.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// logPrefix is attached to every line, mirroring the tag the shell build
// scripts grep for.
const logPrefix = "cephadm-build"

// logger is the global logger instance.
var logger = newLogger(os.Stderr, LogConfig{})

// detailOut receives unformatted multi-line error details.
var detailOut io.Writer = os.Stderr

// LogConfig controls logger construction.
type LogConfig struct {
	// Verbose enables debug level, caller reporting and forces timestamps on.
	Verbose bool

	// Timestamps controls timestamp display. nil means the default (on).
	Timestamps *bool
}

func (c LogConfig) timestamps() bool {
	if c.Verbose {
		return true
	}
	if c.Timestamps != nil {
		return *c.Timestamps
	}
	return true
}

func newLogger(w io.Writer, cfg LogConfig) *log.Logger {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          logPrefix,
		ReportTimestamp: cfg.timestamps(),
		ReportCaller:    cfg.Verbose,
		TimeFormat:      "15:04:05",
	})
}

// SetupLogging configures the global logger.
func SetupLogging(cfg LogConfig) {
	logger = newLogger(os.Stderr, cfg)
	detailOut = os.Stderr
}

// SetOutput redirects the global logger, keeping its level and options.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
	detailOut = w
}

// Logger returns the global logger.
func Logger() *log.Logger {
	return logger
}

// BuildLogger returns a child logger scoped to a single build invocation.
func BuildLogger(buildID string) *log.Logger {
	return logger.WithPrefix(logPrefix + " " + buildID)
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	logger.Error(msg, keyvals...)
}

// Details writes multi-line error details to stderr as plain text.
func Details(msg string) {
	fmt.Fprintln(detailOut, strings.TrimRight(msg, "\n"))
}
