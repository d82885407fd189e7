// Package logger provides a basic leveled implementation of core.Logger
// writing key=value lines through the standard log package.
package logger

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/everbloom/storefront/core"
)

// LogLevel orders log severities
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// SimpleLogger is a structured logger built on the standard library
type SimpleLogger struct {
	level  LogLevel
	fields map[string]interface{}
}

// New creates a logger at the given level ("debug", "info", "warn",
// "error"; anything else maps to info).
func New(level string) *SimpleLogger {
	l := &SimpleLogger{
		level:  InfoLevel,
		fields: map[string]interface{}{},
	}
	l.SetLevel(level)
	return l
}

// NewFromEnv creates a logger using STOREFRONT_LOG_LEVEL
func NewFromEnv() *SimpleLogger {
	return New(os.Getenv("STOREFRONT_LOG_LEVEL"))
}

// SetLevel sets the logging level
func (l *SimpleLogger) SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.level = DebugLevel
	case "WARN", "WARNING":
		l.level = WarnLevel
	case "ERROR":
		l.level = ErrorLevel
	default:
		l.level = InfoLevel
	}
}

// WithFields returns a logger carrying additional permanent fields
func (l *SimpleLogger) WithFields(fields map[string]interface{}) *SimpleLogger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &SimpleLogger{level: l.level, fields: merged}
}

// Debug logs a debug message
func (l *SimpleLogger) Debug(msg string, fields map[string]interface{}) {
	if l.level <= DebugLevel {
		l.log("DEBUG", msg, fields)
	}
}

// Info logs an info message
func (l *SimpleLogger) Info(msg string, fields map[string]interface{}) {
	if l.level <= InfoLevel {
		l.log("INFO", msg, fields)
	}
}

// Warn logs a warning message
func (l *SimpleLogger) Warn(msg string, fields map[string]interface{}) {
	if l.level <= WarnLevel {
		l.log("WARN", msg, fields)
	}
}

// Error logs an error message
func (l *SimpleLogger) Error(msg string, fields map[string]interface{}) {
	if l.level <= ErrorLevel {
		l.log("ERROR", msg, fields)
	}
}

func (l *SimpleLogger) log(level, msg string, fields map[string]interface{}) {
	parts := []string{fmt.Sprintf("[%s]", level), msg}

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, merged[k]))
	}

	log.Println(strings.Join(parts, " "))
}

var _ core.Logger = (*SimpleLogger)(nil)
