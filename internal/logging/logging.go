package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger is a deliberately small, framework-agnostic logging interface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for building a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err builds the conventional "error" field from err.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

var levels = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// StdoutLogger is a tiny, structured logger that prints JSON lines.
// It writes to stdout unless constructed with NewWriterLogger.
type StdoutLogger struct {
	component string
	fields    []Field
	minLevel  int

	mu  *sync.Mutex
	out io.Writer
}

// NewStdoutLogger creates a new StdoutLogger. component is included on every line.
func NewStdoutLogger(component string) *StdoutLogger {
	return NewWriterLogger(component, os.Stdout, "debug")
}

// NewWriterLogger creates a JSON line logger writing to out, dropping entries
// below level ("debug", "info", "warn", "error"). Unknown levels mean debug.
func NewWriterLogger(component string, out io.Writer, level string) *StdoutLogger {
	return &StdoutLogger{
		component: component,
		minLevel:  levels[level],
		mu:        &sync.Mutex{},
		out:       out,
	}
}

func (s *StdoutLogger) log(level string, msg string, fields ...Field) {
	if levels[level] < s.minLevel {
		return
	}
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any, len(s.fields)+len(fields))
	for _, f := range s.fields {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	enc, err := json.Marshal(entry)
	if err != nil {
		// Fallback simple formatting if JSON marshal fails
		fmt.Fprintf(s.out, "%s %s %v\n", level, msg, m)
		return
	}
	fmt.Fprintln(s.out, string(enc))
}

func (s *StdoutLogger) Debug(msg string, fields ...Field) {
	s.log("debug", msg, fields...)
}

func (s *StdoutLogger) Info(msg string, fields ...Field) {
	s.log("info", msg, fields...)
}

func (s *StdoutLogger) Warn(msg string, fields ...Field) {
	s.log("warn", msg, fields...)
}

func (s *StdoutLogger) Error(msg string, fields ...Field) {
	s.log("error", msg, fields...)
}

// With returns a child logger. A "component" field replaces the component
// name; every other field is attached to each line the child writes.
func (s *StdoutLogger) With(fields ...Field) Logger {
	child := &StdoutLogger{
		component: s.component,
		fields:    append([]Field(nil), s.fields...),
		minLevel:  s.minLevel,
		mu:        s.mu,
		out:       s.out,
	}
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.fields = append(child.fields, f)
	}
	return child
}
