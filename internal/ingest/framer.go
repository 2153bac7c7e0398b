package ingest

import "strings"

// Framer reassembles newline-delimited lines from arbitrarily chunked text.
// An incomplete trailing fragment is held until a later chunk finishes it.
//
// A Framer is owned by one read loop and is not safe for concurrent use.
type Framer struct {
	buf strings.Builder
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Push appends chunk to the accumulation buffer and returns every line it
// completed, trimmed and in arrival order. Lines that are empty after
// trimming are dropped.
func (f *Framer) Push(chunk string) []string {
	if chunk == "" {
		return nil
	}
	if !strings.Contains(chunk, "\n") {
		f.buf.WriteString(chunk)
		return nil
	}

	f.buf.WriteString(chunk)
	segments := strings.Split(f.buf.String(), "\n")

	// The final segment may be a partial line; keep it for the next chunk.
	rest := segments[len(segments)-1]
	f.buf.Reset()
	f.buf.WriteString(rest)

	var lines []string
	for _, seg := range segments[:len(segments)-1] {
		line := strings.TrimSpace(seg)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Pending returns the buffered, not yet terminated fragment.
func (f *Framer) Pending() string {
	return f.buf.String()
}

// Reset discards any buffered fragment.
func (f *Framer) Reset() {
	f.buf.Reset()
}
