package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkDecoder_ASCII(t *testing.T) {
	d := NewChunkDecoder()
	out, err := d.Decode([]byte("{\"temp\":25}\n"))
	require.NoError(t, err)
	assert.Equal(t, "{\"temp\":25}\n", out)
}

func TestChunkDecoder_RuneSplitAcrossReads(t *testing.T) {
	d := NewChunkDecoder()
	raw := []byte("°C\n") // U+00B0 is two bytes

	first, err := d.Decode(raw[:1])
	require.NoError(t, err)
	assert.Empty(t, first, "half a rune is held back")

	rest, err := d.Decode(raw[1:])
	require.NoError(t, err)
	assert.Equal(t, "°C\n", rest)
}

func TestChunkDecoder_EveryByteBoundary(t *testing.T) {
	text := "temp=21.5°C 湿度=60%\n"
	raw := []byte(text)

	for i := 0; i <= len(raw); i++ {
		d := NewChunkDecoder()
		a, err := d.Decode(raw[:i])
		require.NoError(t, err)
		b, err := d.Decode(raw[i:])
		require.NoError(t, err)
		assert.Equal(t, text, a+b, "split at %d", i)
	}
}

func TestChunkDecoder_InvalidBytesReplaced(t *testing.T) {
	d := NewChunkDecoder()
	out, err := d.Decode([]byte{'a', 0xff, 'b'})
	require.NoError(t, err)
	assert.Equal(t, "a�b", out)
}

func TestChunkDecoder_LargeChunk(t *testing.T) {
	d := NewChunkDecoder()
	raw := make([]byte, 10000)
	for i := range raw {
		raw[i] = 'x'
	}
	out, err := d.Decode(raw)
	require.NoError(t, err)
	assert.Len(t, out, 10000)
}

func TestChunkDecoder_FlushAndReset(t *testing.T) {
	d := NewChunkDecoder()
	_, err := d.Decode([]byte{0xe6}) // first byte of a three-byte rune
	require.NoError(t, err)
	assert.Equal(t, "�", d.Flush())
	assert.Empty(t, d.Flush())

	_, err = d.Decode([]byte{0xe6})
	require.NoError(t, err)
	d.Reset()
	out, err := d.Decode([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
