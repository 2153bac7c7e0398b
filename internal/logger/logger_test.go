package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{
			name:      "logs when SERIALMON_DEBUG is set",
			envValue:  "1",
			expectLog: true,
		},
		{
			name:      "logs when SERIALMON_DEBUG is any value",
			envValue:  "true",
			expectLog: true,
		},
		{
			name:      "does not log when SERIALMON_DEBUG is empty",
			envValue:  "",
			expectLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Capture log output
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			// Set environment
			if tt.envValue != "" {
				t.Setenv(DebugEnv, tt.envValue)
			} else {
				t.Setenv(DebugEnv, "")
			}

			l := NewEnvLogger("[test]")
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] test message arg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[info-test]")
	l.Info("info message %d", 42)

	assert.Contains(t, buf.String(), "[info-test] info message 42")
}

func TestEnvLogger_Warn(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[warn-test]")
	l.Warn("warning message")

	assert.Contains(t, buf.String(), "[warn-test] WARN: warning message")
}

func TestEnvLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[error-test]")
	l.Error("error message")

	assert.Contains(t, buf.String(), "[error-test] ERROR: error message")
}

func TestNoopLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Empty(t, buf.String(), "noop logger should not produce any output")
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	msgs := l.Messages()
	require.Len(t, msgs, 4)

	assert.Equal(t, LogMessage{Level: "debug", Message: "debug msg"}, msgs[0])
	assert.Equal(t, LogMessage{Level: "info", Message: "info msg"}, msgs[1])
	assert.Equal(t, LogMessage{Level: "warn", Message: "warn msg"}, msgs[2])
	assert.Equal(t, LogMessage{Level: "error", Message: "error msg"}, msgs[3])
}

func TestBufferLogger_HasLevel(t *testing.T) {
	l := NewBufferLogger()

	assert.False(t, l.HasLevel("debug"))
	assert.False(t, l.HasLevel("error"))

	l.Debug("test")
	assert.True(t, l.HasLevel("debug"))
	assert.False(t, l.HasLevel("error"))

	l.Error("test")
	assert.True(t, l.HasLevel("error"))
}

func TestBufferLogger_Contains(t *testing.T) {
	l := NewBufferLogger()
	l.Warn("parse failed for %q", "{bad json}")

	assert.True(t, l.Contains("warn", "{bad json}"))
	assert.False(t, l.Contains("error", "{bad json}"))
	assert.False(t, l.Contains("warn", "something else"))
}

func TestBufferLogger_Clear(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("test1")
	l.Info("test2")
	require.Len(t, l.Messages(), 2)

	l.Clear()
	assert.Empty(t, l.Messages())
}

func TestBufferLogger_ConcurrentWrites(t *testing.T) {
	l := NewBufferLogger()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Info("worker %d line %d", n, j)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.Messages(), 400)
}

func TestDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	// Default should return a logger
	d := Default()
	assert.NotNil(t, d)

	// SetDefault should change the default
	buf := NewBufferLogger()
	SetDefault(buf)

	assert.Equal(t, buf, Default())
}

func TestLoggerInterface(t *testing.T) {
	// Verify all implementations satisfy the interface
	_ = NewEnvLogger("")
	_ = Noop()
	_ = NewBufferLogger()
}

func TestEnvLogger_FormatStrings(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[fmt]")

	// Test various format specifiers
	l.Info("int: %d, string: %s, float: %.2f", 42, "hello", 3.14159)

	output := buf.String()
	assert.True(t, strings.Contains(output, "int: 42"))
	assert.True(t, strings.Contains(output, "string: hello"))
	assert.True(t, strings.Contains(output, "float: 3.14"))
}
