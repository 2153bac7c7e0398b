package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig     = "CONFIG"
	ErrTransport  = "TRANSPORT"
	ErrRead       = "READ"
	ErrParse      = "PARSE"
	ErrDisconnect = "DISCONNECT"
	ErrExec       = "EXEC"
	ErrServe      = "SERVE"
)

// ErrAborted marks a read that ended because teardown was requested.
// It is an expected outcome of a disconnect, not a fault.
var ErrAborted = errors.New("read aborted")

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrRead code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrRead,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Summary returns a single-line form of the error suitable for a status bar.
// The cause is appended after a colon when present.
func (e *Error) Summary() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var smErr *Error
	if errors.As(err, &smErr) {
		return smErr.Code == code
	}
	return false
}

// IsAbort reports whether err is the cancellation-induced outcome of a teardown.
// Such errors are suppressed from user-visible surfaces.
func IsAbort(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}

// Summarize returns the single-line form of any error. Structured errors use
// Summary; everything else falls back to Error().
func Summarize(err error) string {
	if err == nil {
		return ""
	}
	var smErr *Error
	if errors.As(err, &smErr) {
		return smErr.Summary()
	}
	return err.Error()
}
