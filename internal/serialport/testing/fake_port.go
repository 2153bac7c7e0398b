// Package testing provides test doubles for the serialport package.
package testing

import (
	"sync"
	"time"

	"github.com/rileyhilliard/serialmon/internal/serialport"
)

// FakePort is an in-memory serialport.Port. Tests push data with Feed and
// inject failures with Fail; Read honours the read timeout the same way the
// real driver does, returning (0, nil) when it elapses.
type FakePort struct {
	Name string
	Baud int

	mu          sync.Mutex
	rest        []byte
	timeout     time.Duration
	closeErr    error
	closeCalls  int
	readCalls   int
	bytesServed int

	data      chan []byte
	errs      chan error
	closed    chan struct{}
	closeOnce sync.Once
}

// NewFakePort creates an open fake port.
func NewFakePort(name string, baud int) *FakePort {
	return &FakePort{
		Name:    name,
		Baud:    baud,
		timeout: 10 * time.Millisecond,
		data:    make(chan []byte, 256),
		errs:    make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

// Feed queues chunk for a future Read. Each Feed is delivered as its own
// chunk, possibly split if the reader's buffer is smaller.
func (p *FakePort) Feed(chunk string) {
	p.data <- []byte(chunk)
}

// FeedBytes queues raw bytes.
func (p *FakePort) FeedBytes(b []byte) {
	dup := make([]byte, len(b))
	copy(dup, b)
	p.data <- dup
}

// Fail makes a pending or future Read return err.
func (p *FakePort) Fail(err error) {
	select {
	case p.errs <- err:
	default:
	}
}

// SetCloseError makes Close return err.
func (p *FakePort) SetCloseError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeErr = err
}

// Read implements serialport.Port.
func (p *FakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	p.readCalls++
	if len(p.rest) > 0 {
		n := copy(b, p.rest)
		p.rest = p.rest[n:]
		p.bytesServed += n
		p.mu.Unlock()
		return n, nil
	}
	timeout := p.timeout
	p.mu.Unlock()

	select {
	case <-p.closed:
		return 0, serialport.ErrPortClosed
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-p.closed:
		return 0, serialport.ErrPortClosed
	case err := <-p.errs:
		return 0, err
	case chunk := <-p.data:
		p.mu.Lock()
		defer p.mu.Unlock()
		n := copy(b, chunk)
		p.rest = append(p.rest, chunk[n:]...)
		p.bytesServed += n
		return n, nil
	case <-expired:
		return 0, nil
	}
}

// SetReadTimeout implements serialport.Port.
func (p *FakePort) SetReadTimeout(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = d
	return nil
}

// Close implements serialport.Port. Pending reads are unblocked.
func (p *FakePort) Close() error {
	p.mu.Lock()
	p.closeCalls++
	err := p.closeErr
	p.mu.Unlock()

	p.closeOnce.Do(func() { close(p.closed) })
	return err
}

// Closed reports whether Close has been called.
func (p *FakePort) Closed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// CloseCalls returns how many times Close was called.
func (p *FakePort) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}

// ReadCalls returns how many times Read was called.
func (p *FakePort) ReadCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readCalls
}

// BytesServed returns how many bytes Read has handed out.
func (p *FakePort) BytesServed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytesServed
}

// Queued returns how many fed chunks have not been read yet.
func (p *FakePort) Queued() int {
	return len(p.data)
}
