package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrTransport,
		ErrRead,
		ErrParse,
		ErrDisconnect,
		ErrExec,
		ErrServe,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .serialmon.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "transport error",
			code:       ErrTransport,
			message:    "No serial ports found",
			suggestion: "Plug in the device and try again",
		},
		{
			name:       "disconnect error",
			code:       ErrDisconnect,
			message:    "Closing the port failed",
			suggestion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	err := WrapWithCode(
		errors.New("permission denied"),
		ErrTransport,
		"Failed to connect",
		"Add your user to the dialout group",
	)

	output := err.Error()
	lines := strings.Split(output, "\n")

	assert.True(t, strings.HasPrefix(lines[0], "✗"), "first line should start with failure symbol")
	assert.Contains(t, lines[0], "Failed to connect")
	assert.Contains(t, output, "permission denied")
	assert.Contains(t, output, "dialout group")
}

func TestErrorFormatting_NoSuggestion(t *testing.T) {
	err := New(ErrExec, "Command failed", "")
	assert.Equal(t, "✗ Command failed\n", err.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("input/output error")
	wrapped := Wrap(cause, "Read Error")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrRead, wrapped.Code, "Wrap should default to ErrRead code")
	assert.Equal(t, "Read Error", wrapped.Message)
	assert.Equal(t, cause, wrapped.Cause)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Failed to connect", New(ErrTransport, "Failed to connect", "hint").Summary())

	wrapped := WrapWithCode(errors.New("busy"), ErrTransport, "Failed to connect", "hint")
	assert.Equal(t, "Failed to connect: busy", wrapped.Summary())
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(ErrParse, "bad record", ""))

	var smErr *Error
	require.True(t, errors.As(wrapped, &smErr))
	assert.Equal(t, ErrParse, smErr.Code)
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrRead))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestIsAbort(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"aborted sentinel", ErrAborted, true},
		{"wrapped aborted", fmt.Errorf("pipe: %w", ErrAborted), true},
		{"context canceled", context.Canceled, true},
		{"structured with canceled cause", WrapWithCode(context.Canceled, ErrRead, "Read Error", ""), true},
		{"deadline is not an abort", context.DeadlineExceeded, false},
		{"plain read failure", errors.New("device unplugged"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAbort(tt.err))
		})
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "", Summarize(nil))
	assert.Equal(t, "plain", Summarize(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapWithCode(errors.New("busy"), ErrTransport, "Failed to connect", "close the other program"))
	assert.Equal(t, "Failed to connect: busy", Summarize(wrapped))
}
