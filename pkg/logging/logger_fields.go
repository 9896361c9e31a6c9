package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

// Clustering field helpers

func Component(name string) Field {
	return String("component", name)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Phase(name string) Field {
	return String("phase", name)
}

func Iteration(i int) Field {
	return Int("iteration", i)
}

func Nodes(n int64) Field {
	return Int64("nodes", n)
}

func Communities(n int64) Field {
	return Int64("communities", n)
}

func Moves(n int64) Field {
	return Int64("moves", n)
}

func Modularity(q float64) Field {
	return Float64("modularity", q)
}
