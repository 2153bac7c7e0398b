package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseError reports a line that looked structured but is not a flat
// mapping of string keys to numbers.
type ParseError struct {
	Line   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %q: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %q: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LooksStructured reports whether line is delimited like an object.
func LooksStructured(line string) bool {
	return strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}")
}

// Decode strictly decodes line into a flat numeric mapping. It returns either
// the complete mapping or a *ParseError, never a partial result.
//
// Every value must be a JSON number. Strings, booleans, null, arrays and
// nested objects are rejected. An empty object decodes to an empty mapping.
func Decode(line string) (map[string]float64, error) {
	if !LooksStructured(line) {
		return nil, &ParseError{Line: line, Reason: "not an object"}
	}

	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()

	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Line: line, Reason: "malformed object", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Line: line, Reason: "trailing data"}
	}

	fields := make(map[string]float64, len(raw))
	for key, value := range raw {
		n, err := number(value)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("field %q is not a number", key), Err: err}
		}
		fields[key] = n
	}
	return fields, nil
}

func number(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	switch raw[0] {
	case '"', '{', '[', 't', 'f', 'n':
		return 0, fmt.Errorf("got %s", kind(raw[0]))
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n.Float64()
}

func kind(b byte) string {
	switch b {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	default:
		return "null"
	}
}
