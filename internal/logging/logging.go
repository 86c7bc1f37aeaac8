package logging

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

const (
	logPrefix   = "Mathviz"
	logFileName = "mathviz.log"
)

type AppLogger struct {
	logger *log.Logger
	debug  bool
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// GetDefault returns the process-wide logger, creating it on first use.
func GetDefault() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

// Package-level convenience functions for quick logging
func Info(msg string, keyvals ...interface{}) {
	GetDefault().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	GetDefault().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	GetDefault().Error(msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	GetDefault().Debug(msg, keyvals...)
}

func LogMessage(msg tea.Msg) {
	GetDefault().LogMessage(msg)
}

func LogPerformance(operation string, start time.Time) {
	GetDefault().LogPerformance(operation, start)
}

// NewAppLogger builds the application logger. With DEBUG set it logs everything to
// mathviz.log in the working directory, truncated on each run. Otherwise it writes
// warnings and errors to stderr. Nothing is ever written to stdout, which the MCP
// stdio transport owns.
func NewAppLogger() *AppLogger {
	debug := os.Getenv("DEBUG") != ""

	if !debug {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          logPrefix,
		})
		logger.SetLevel(levelFromEnv(log.WarnLevel))
		return &AppLogger{logger: logger}
	}

	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current working directory: %v", err))
	}
	logPath := filepath.Join(cwd, logFileName)

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		panic(fmt.Sprintf("Failed to create debug log file: %v", err))
	}

	logger := log.NewWithOptions(logFile, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          logPrefix,
	})
	logger.SetLevel(log.DebugLevel)
	logger.Info("Debug logging enabled", "log_file", logPath)

	return &AppLogger{logger: logger, debug: true}
}

// NewWriterLogger logs at level to w. Used by the CLI when --verbose routes logs to stderr.
func NewWriterLogger(w io.Writer, level log.Level) *AppLogger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          logPrefix,
	})
	logger.SetLevel(level)
	return &AppLogger{logger: logger, debug: level <= log.DebugLevel}
}

// levelFromEnv reads MATHVIZ_LOG_LEVEL, falling back to def.
func levelFromEnv(def log.Level) log.Level {
	raw := os.Getenv("MATHVIZ_LOG_LEVEL")
	if raw == "" {
		return def
	}
	level, err := log.ParseLevel(raw)
	if err != nil {
		return def
	}
	return level
}

// With returns a child logger that adds keyvals to every entry.
func (al *AppLogger) With(keyvals ...interface{}) *AppLogger {
	return &AppLogger{logger: al.logger.With(keyvals...), debug: al.debug}
}

func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	if al.debug {
		al.logger.Debug(msg, keyvals...)
	}
}

// LogMessage records a bubbletea message (debug only).
func (al *AppLogger) LogMessage(msg tea.Msg) {
	if !al.debug {
		return
	}

	al.logger.Debug("Message received",
		"type", fmt.Sprintf("%T", msg),
		"content", fmt.Sprintf("%+v", msg),
	)
}

func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	if al.debug {
		al.logger.Debug("Performance",
			"operation", operation,
			"duration", time.Since(start),
		)
	}
}

// LogStateTransition records a TUI state change (debug only).
func (al *AppLogger) LogStateTransition(component, from, to string) {
	if al.debug {
		al.logger.Debug("State transition",
			"component", component,
			"from", from,
			"to", to,
		)
	}
}

// LogUserAction records a TUI user action (debug only).
func (al *AppLogger) LogUserAction(action, context string) {
	if al.debug {
		al.logger.Debug("User action",
			"action", action,
			"context", context,
		)
	}
}

// LogStage records how one pipeline stage finished.
func (al *AppLogger) LogStage(stage string, start time.Time, err error) {
	if err != nil {
		al.logger.Warn("Stage failed", "stage", stage, "duration", time.Since(start), "error", err)
		return
	}
	if al.debug {
		al.logger.Debug("Stage complete", "stage", stage, "duration", time.Since(start))
	}
}

// LogAccess records a file access decision. Denials are always logged.
func (al *AppLogger) LogAccess(op, path string, allowed bool) {
	if !allowed {
		al.logger.Warn("Access denied", "op", op, "path", path)
		return
	}
	if al.debug {
		al.logger.Debug("Access granted", "op", op, "path", path)
	}
}

// StandardLog adapts the logger for libraries that take a *log.Logger. Entries are
// logged at error level.
func (al *AppLogger) StandardLog() *stdlog.Logger {
	return al.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
}

// NewTestLogger creates a debug logger that writes to a buffer.
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "Test",
	})
	logger.SetLevel(log.DebugLevel)

	return &AppLogger{
		logger: logger,
		debug:  true,
	}, &buf
}
