package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/rileyhilliard/serialmon/internal/errors"
)

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Cause      string `json:"cause,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
	ErrCodeTransportFailed = "TRANSPORT_FAILED"
	ErrCodeReadFailed      = "READ_FAILED"
	ErrCodeServeFailed     = "SERVE_FAILED"
	ErrCodeUnknown         = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var structured *errors.Error
	if stderrors.As(err, &structured) {
		out := &JSONError{
			Code:       mapErrorCode(structured.Code),
			Message:    structured.Message,
			Suggestion: structured.Suggestion,
		}
		if structured.Cause != nil {
			out.Cause = structured.Cause.Error()
		}
		return out
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode string) string {
	switch internalCode {
	case errors.ErrConfig:
		return ErrCodeConfigInvalid
	case errors.ErrTransport:
		return ErrCodeTransportFailed
	case errors.ErrRead, errors.ErrDisconnect:
		return ErrCodeReadFailed
	case errors.ErrServe:
		return ErrCodeServeFailed
	}
	return ErrCodeUnknown
}
