package testing

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/serialmon/internal/serialport"
)

func TestFakePort_ReadFedChunk(t *testing.T) {
	p := NewFakePort("/dev/fake0", serialport.BaudRate)
	p.Feed("hello")

	buf := make([]byte, 16)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
	assert.Equal(t, 5, p.BytesServed())
}

func TestFakePort_ReadSplitsLargeChunk(t *testing.T) {
	p := NewFakePort("/dev/fake0", serialport.BaudRate)
	p.Feed("abcdef")

	buf := make([]byte, 4)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf[:n]))

	n, err = p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(buf[:n]))
}

func TestFakePort_ReadTimeout(t *testing.T) {
	p := NewFakePort("/dev/fake0", serialport.BaudRate)
	require.NoError(t, p.SetReadTimeout(5*time.Millisecond))

	n, err := p.Read(make([]byte, 8))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestFakePort_CloseUnblocksRead(t *testing.T) {
	p := NewFakePort("/dev/fake0", serialport.BaudRate)
	require.NoError(t, p.SetReadTimeout(0))

	done := make(chan error, 1)
	go func() {
		_, err := p.Read(make([]byte, 8))
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Close())

	select {
	case err := <-done:
		assert.True(t, serialport.IsClosed(err))
	case <-time.After(time.Second):
		t.Fatal("read was not unblocked by Close")
	}
	assert.True(t, p.Closed())
}

func TestFakePort_Fail(t *testing.T) {
	p := NewFakePort("/dev/fake0", serialport.BaudRate)
	p.Fail(io.EOF)

	_, err := p.Read(make([]byte, 8))
	assert.ErrorIs(t, err, io.EOF)
}

func TestFakePort_CloseError(t *testing.T) {
	p := NewFakePort("/dev/fake0", serialport.BaudRate)
	p.SetCloseError(errors.New("busy"))

	assert.EqualError(t, p.Close(), "busy")
	assert.EqualError(t, p.Close(), "busy")
	assert.Equal(t, 2, p.CloseCalls())
	assert.True(t, p.Closed())
}

func TestFakeTransport(t *testing.T) {
	tr := NewFakeTransport("/dev/ttyUSB0", "/dev/ttyACM0")

	ports, err := tr.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, ports)

	port, err := tr.Open("/dev/ttyUSB0", serialport.BaudRate)
	require.NoError(t, err)
	assert.Same(t, tr.LastPort(), port)
	assert.Equal(t, []OpenCall{{Name: "/dev/ttyUSB0", Baud: 115200}}, tr.Calls())

	tr.SetOpenError(errors.New("denied"))
	_, err = tr.Open("/dev/ttyACM0", serialport.BaudRate)
	assert.EqualError(t, err, "denied")
	assert.Len(t, tr.Opened(), 1)

	tr.SetListError(errors.New("enum failed"))
	_, err = tr.List()
	assert.Error(t, err)
	assert.Equal(t, 2, tr.ListCalls)
}
