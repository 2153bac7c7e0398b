package ingest

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFramer_Push(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		want    []string
		pending string
	}{
		{
			name:   "single complete line",
			chunks: []string{"hello\n"},
			want:   []string{"hello"},
		},
		{
			name:   "line split across chunks",
			chunks: []string{`{"temp":2`, "5}\n{\"hum\":60}\n"},
			want:   []string{`{"temp":25}`, `{"hum":60}`},
		},
		{
			name:    "incomplete tail is held",
			chunks:  []string{"a\nb"},
			want:    []string{"a"},
			pending: "b",
		},
		{
			name:   "whitespace trimmed and empty lines dropped",
			chunks: []string{"  a  \r\n\n   \n\tb\t\n"},
			want:   []string{"a", "b"},
		},
		{
			name:   "delimiter alone in its own chunk",
			chunks: []string{"abc", "\n", "def", "\n"},
			want:   []string{"abc", "def"},
		},
		{
			name:    "no delimiter at all",
			chunks:  []string{"abc", "def"},
			pending: "abcdef",
		},
		{
			name:   "empty chunks ignored",
			chunks: []string{"", "x\n", ""},
			want:   []string{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFramer()
			var got []string
			for _, c := range tt.chunks {
				got = append(got, f.Push(c)...)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.pending, f.Pending())
		})
	}
}

func TestFramer_Reset(t *testing.T) {
	f := NewFramer()
	f.Push("partial")
	f.Reset()
	assert.Empty(t, f.Pending())
	assert.Equal(t, []string{"fresh"}, f.Push("fresh\n"))
}

// Any fragmentation of the same stream must yield the same lines.
func TestFramer_ChunkBoundaryIndependence(t *testing.T) {
	stream := "{\"temp\":25}\n  not-json \r\n\n{bad json}\n{\"hum\":60,\"temp\":21.5}\nlast line\n"
	want := frameAll([]string{stream})
	assert.Equal(t, []string{`{"temp":25}`, "not-json", "{bad json}", `{"hum":60,"temp":21.5}`, "last line"}, want)

	// Every single split point.
	for i := 0; i <= len(stream); i++ {
		assert.Equal(t, want, frameAll([]string{stream[:i], stream[i:]}), "split at %d", i)
	}

	// Byte at a time.
	assert.Equal(t, want, frameAll(strings.Split(stream, "")))

	// Random fragmentations.
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 200; n++ {
		var chunks []string
		rest := stream
		for len(rest) > 0 {
			size := 1 + rng.Intn(8)
			if size > len(rest) {
				size = len(rest)
			}
			chunks = append(chunks, rest[:size])
			rest = rest[size:]
		}
		assert.Equal(t, want, frameAll(chunks))
	}
}

func frameAll(chunks []string) []string {
	f := NewFramer()
	var lines []string
	for _, c := range chunks {
		lines = append(lines, f.Push(c)...)
	}
	return lines
}
