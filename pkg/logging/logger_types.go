package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Level represents a log level
type Level int

const (
	// DebugLevel carries per-phase engine detail
	DebugLevel Level = iota
	// InfoLevel is the default; one line per clustering run
	InfoLevel
	// WarnLevel flags degraded but recoverable behavior
	WarnLevel
	// ErrorLevel reports failed runs
	ErrorLevel
)

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

// String returns the string representation of a log level
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel converts a case-insensitive level name to a Level.
// An unknown name yields InfoLevel together with an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DebugLevel, nil
	case "INFO", "":
		return InfoLevel, nil
	case "WARN", "WARNING":
		return WarnLevel, nil
	case "ERROR":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that prepends fields to every entry
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger writes one JSON object per line
type JSONLogger struct {
	mu     *sync.Mutex
	writer io.Writer
	level  *Level
	fields []Field
}

// LogEntry is the wire shape of one log line
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything; engines default to it
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field)    {}
func (NopLogger) Info(string, ...Field)     {}
func (NopLogger) Warn(string, ...Field)     {}
func (NopLogger) Error(string, ...Field)    {}
func (n NopLogger) With(...Field) Logger    { return n }
func (NopLogger) SetLevel(Level)            {}
func (NopLogger) GetLevel() Level           { return ErrorLevel + 1 }

// NewNopLogger creates a logger that discards all output
func NewNopLogger() Logger {
	return NopLogger{}
}

// TimedOperation measures a phase or run and logs it on completion
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
