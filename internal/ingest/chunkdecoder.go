package ingest

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ChunkDecoder converts raw transport bytes to text. A multi-byte UTF-8
// sequence split across reads is held back until its remaining bytes
// arrive; invalid sequences become U+FFFD.
type ChunkDecoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

// NewChunkDecoder returns a decoder for a UTF-8 byte stream.
func NewChunkDecoder() *ChunkDecoder {
	return &ChunkDecoder{
		t:   unicode.UTF8.NewDecoder(),
		dst: make([]byte, 4096),
	}
}

// Decode returns the text completed by p. Bytes of an unfinished rune are
// kept for the next call.
func (d *ChunkDecoder) Decode(p []byte) (string, error) {
	src := append(d.pending, p...)
	d.pending = nil

	var out []byte
	for len(src) > 0 {
		nDst, nSrc, err := d.t.Transform(d.dst, src, false)
		out = append(out, d.dst[:nDst]...)
		src = src[nSrc:]

		switch err {
		case nil:
			if len(src) > 0 && nSrc == 0 && nDst == 0 {
				d.pending = append(d.pending, src...)
				return string(out), nil
			}
		case transform.ErrShortDst:
			if nSrc == 0 && nDst == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
		case transform.ErrShortSrc:
			d.pending = append(d.pending, src...)
			return string(out), nil
		default:
			d.Reset()
			return string(out), err
		}
	}
	return string(out), nil
}

// Flush returns any held bytes as replacement text and resets the decoder.
func (d *ChunkDecoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	out, _, _ := transform.Bytes(unicode.UTF8.NewDecoder(), d.pending)
	d.Reset()
	return string(out)
}

// Reset discards held bytes.
func (d *ChunkDecoder) Reset() {
	d.pending = nil
	d.t.Reset()
}
