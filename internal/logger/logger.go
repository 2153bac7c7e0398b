// Package logger provides a simple logging interface for serialmon components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// DebugEnv is the environment variable that enables debug output.
const DebugEnv = "SERIALMON_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// envLogger implements Logger and logs through the standard log package.
// Debug messages are only printed when SERIALMON_DEBUG is set.
type envLogger struct {
	prefix string
}

// NewEnvLogger creates a logger that respects the SERIALMON_DEBUG environment variable.
// The prefix is prepended to all log messages (e.g., "[device]" or "[ingest]").
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: prefix}
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	if os.Getenv(DebugEnv) != "" {
		log.Printf(l.prefix+" "+format, args...)
	}
}

func (l *envLogger) Info(format string, args ...interface{}) {
	log.Printf(l.prefix+" "+format, args...)
}

func (l *envLogger) Warn(format string, args ...interface{}) {
	log.Printf(l.prefix+" WARN: "+format, args...)
}

func (l *envLogger) Error(format string, args ...interface{}) {
	log.Printf(l.prefix+" ERROR: "+format, args...)
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// It is safe for concurrent use; the read loop logs from its own goroutine.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) {
	l.record("debug", format, args...)
}

func (l *BufferLogger) Info(format string, args ...interface{}) {
	l.record("info", format, args...)
}

func (l *BufferLogger) Warn(format string, args ...interface{}) {
	l.record("warn", format, args...)
}

func (l *BufferLogger) Error(format string, args ...interface{}) {
	l.record("error", format, args...)
}

// Messages returns a copy of the captured messages.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains returns true if a message at level contains substr.
func (l *BufferLogger) Contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewEnvLogger("[serialmon]")
)

// Default returns the package-level default logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger for the package.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
