// jsonlog.go - Leveled structured logging backed by zerolog.
package server

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log entry
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Logger writes leveled, structured entries.
type Logger struct {
	zl zerolog.Logger
}

// DefaultLogger is the logger used by the package-level helpers.
var DefaultLogger = NewLogger(os.Stdout, LogLevelInfo, LogFormatText)

// NewLogger builds a Logger writing to w. format is "json" or "text".
func NewLogger(w io.Writer, level LogLevel, format string) *Logger {
	if format != LogFormatJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}

	zl := zerolog.New(w).
		Level(zerologLevel(level)).
		With().
		Timestamp().
		Str("service", "csv-server").
		Logger()

	return &Logger{zl: zl}
}

// ParseLogLevel maps a configuration string to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug, nil
	case LogLevelInfo, "":
		return LogLevelInfo, nil
	case LogLevelWarn:
		return LogLevelWarn, nil
	case LogLevelError:
		return LogLevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// ConfigureLogging replaces DefaultLogger with one writing to stdout.
func ConfigureLogging(level, format string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	DefaultLogger = NewLogger(os.Stdout, lvl, format)
	return nil
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) log(e *zerolog.Event, msg string, fields map[string]any, err error) {
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	if err != nil {
		e = e.Err(err)
	}
	e.Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]any) {
	l.log(l.zl.Debug(), msg, fields, nil)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]any) {
	l.log(l.zl.Info(), msg, fields, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]any) {
	l.log(l.zl.Warn(), msg, fields, nil)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]any, err error) {
	l.log(l.zl.Error(), msg, fields, err)
}

// Global logging functions

// Debug logs a debug message
func Debug(msg string, fields map[string]any) {
	DefaultLogger.Debug(msg, fields)
}

// Info logs an info message
func Info(msg string, fields map[string]any) {
	DefaultLogger.Info(msg, fields)
}

// Warn logs a warning message
func Warn(msg string, fields map[string]any) {
	DefaultLogger.Warn(msg, fields)
}

// Error logs an error message
func Error(msg string, fields map[string]any, err error) {
	DefaultLogger.Error(msg, fields, err)
}
