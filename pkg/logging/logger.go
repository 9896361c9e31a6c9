package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &JSONLogger{
		mu:     &sync.Mutex{},
		writer: writer,
		level:  &level,
	}
}

func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < *l.level {
		return
	}

	entry := LogEntry{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		// call-site fields win over preset ones
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.writer, "{\"level\":\"ERROR\",\"msg\":\"unencodable log entry: %v\"}\n", err)
		return
	}
	data = append(data, '\n')
	_, _ = l.writer.Write(data)
}

// Debug logs a debug-level message
func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }

// Info logs an info-level message
func (l *JSONLogger) Info(msg string, fields ...Field) { l.log(InfoLevel, msg, fields...) }

// Warn logs a warning-level message
func (l *JSONLogger) Warn(msg string, fields ...Field) { l.log(WarnLevel, msg, fields...) }

// Error logs an error-level message
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

// With creates a child logger sharing the writer, lock and level of its parent.
func (l *JSONLogger) With(fields ...Field) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)

	return &JSONLogger{
		mu:     l.mu,
		writer: l.writer,
		level:  l.level,
		fields: merged,
	}
}

// SetLevel sets the minimum log level for this logger and its children
func (l *JSONLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.level = level
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.level
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// DefaultLogger returns the process-wide logger, writing to stderr at the
// level named by LOG_LEVEL (INFO when unset or unknown).
func DefaultLogger() Logger {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	if logger != nil {
		return logger
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
		defaultLogger = NewJSONLogger(os.Stderr, level)
	}
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Info logs through the default logger
func Info(msg string, fields ...Field) { DefaultLogger().Info(msg, fields...) }

// Warn logs through the default logger
func Warn(msg string, fields ...Field) { DefaultLogger().Warn(msg, fields...) }

// ErrorLog logs through the default logger. Named to avoid clashing with the Error field.
func ErrorLog(msg string, fields ...Field) { DefaultLogger().Error(msg, fields...) }

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed reports the time since the operation started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at debug level with its latency and any extra fields
func (t *TimedOperation) End(extra ...Field) time.Duration {
	elapsed := t.Elapsed()
	fields := make([]Field, 0, len(t.fields)+len(extra)+1)
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	fields = append(fields, Latency(elapsed))
	t.logger.Debug(t.msg, fields...)
	return elapsed
}

// EndError logs the operation as failed
func (t *TimedOperation) EndError(err error) time.Duration {
	elapsed := t.Elapsed()
	fields := make([]Field, 0, len(t.fields)+2)
	fields = append(fields, t.fields...)
	fields = append(fields, Latency(elapsed), Error(err))
	t.logger.Error(t.msg, fields...)
	return elapsed
}
