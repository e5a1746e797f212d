package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = map[string]LogLevel{
	"ERROR": LogLevelError,
	"WARN":  LogLevelWarn,
	"INFO":  LogLevelInfo,
	"DEBUG": LogLevelDebug,
	"TRACE": LogLevelTrace,
}

// ParseLogLevel maps a level name (case-insensitive) to a LogLevel.
func ParseLogLevel(s string) (LogLevel, bool) {
	level, ok := levelNames[strings.ToUpper(strings.TrimSpace(s))]
	return level, ok
}

// Logger provides leveled logging with an optional component tag
type Logger struct {
	level     LogLevel
	component string
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewLoggerFromString creates a logger from a level name, defaulting to INFO.
func NewLoggerFromString(levelStr string) *Logger {
	level, ok := ParseLogLevel(levelStr)
	if !ok {
		level = LogLevelInfo
	}
	return &Logger{level: level}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	return NewLoggerFromString(os.Getenv("LOG_LEVEL"))
}

// With returns a logger that tags every line with [component].
func (l *Logger) With(component string) *Logger {
	return &Logger{level: l.level, component: component}
}

func (l *Logger) printf(tag string, format string, args []interface{}) {
	prefix := "[" + tag + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	log.Printf(prefix+format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.level >= LogLevelError {
		l.printf("ERROR", format, args)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogLevelWarn {
		l.printf("WARN", format, args)
	}
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		l.printf("INFO", format, args)
	}
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.printf("DEBUG", format, args)
	}
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LogLevelTrace {
		l.printf("TRACE", format, args)
	}
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
