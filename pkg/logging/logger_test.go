package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()

	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to unmarshal log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{" Warning ", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClusteringFields(t *testing.T) {
	tests := []struct {
		field Field
		key   string
		value any
	}{
		{Phase("refine"), "phase", "refine"},
		{Iteration(3), "iteration", 3},
		{Nodes(10), "nodes", int64(10)},
		{Communities(4), "communities", int64(4)},
		{Moves(7), "moves", int64(7)},
		{Modularity(0.25), "modularity", 0.25},
		{RunID("abc"), "run_id", "abc"},
		{Duration("took", 2 * time.Second), "took", "2s"},
		{Error(errors.New("boom")), "error", "boom"},
		{Error(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("field = %+v, want {%s %v}", tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("Levels = %s,%s, want WARN,ERROR", entries[0].Level, entries[1].Level)
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(Component("leiden"), Iteration(1))

	parent.SetLevel(ErrorLevel)
	child.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatal("child logger should follow the parent's level")
	}

	parent.SetLevel(DebugLevel)
	child.Debug("phase done", Iteration(2), Moves(5))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].Fields
	if fields["component"] != "leiden" {
		t.Errorf("component = %v, want leiden", fields["component"])
	}
	// call-site field overrides the preset one
	if fields["iteration"] != float64(2) {
		t.Errorf("iteration = %v, want 2", fields["iteration"])
	}
	if fields["moves"] != float64(5) {
		t.Errorf("moves = %v, want 5", fields["moves"])
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("bare")

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, exists := raw["fields"]; exists {
		t.Error("Expected fields key to be omitted when empty")
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	op := StartTimer(logger, "local move", Phase("local_move"))
	op.End(Moves(3))
	StartTimer(logger, "aggregate", Phase("aggregate")).EndError(errors.New("cancelled"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "DEBUG" || entries[0].Fields["latency"] == nil {
		t.Errorf("End entry = %+v, want DEBUG with latency", entries[0])
	}
	if entries[0].Fields["moves"] != float64(3) {
		t.Errorf("moves = %v, want 3", entries[0].Fields["moves"])
	}
	if entries[1].Level != "ERROR" || entries[1].Fields["error"] != "cancelled" {
		t.Errorf("EndError entry = %+v", entries[1])
	}
}

func TestDefaultLoggerReplacement(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	defer SetDefaultLogger(nil)

	Info("info msg")
	Warn("warn msg")
	ErrorLog("error msg")

	entries := decodeLines(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
}

func TestNopLogger(t *testing.T) {
	var logger Logger = NewNopLogger()
	logger.With(Phase("x")).Error("ignored")
	if logger.GetLevel() <= ErrorLevel {
		t.Error("NopLogger should report a level above ErrorLevel")
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("iteration finished", Iteration(i), Communities(42))
	}
}
