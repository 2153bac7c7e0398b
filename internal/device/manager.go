// Package device owns the serial connection lifecycle: opening the transport,
// running the single read loop that feeds the ingestion pipeline, and tearing
// everything down again without ever getting stuck.
package device

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/ingest"
	"github.com/rileyhilliard/serialmon/internal/serialport"
)

// Manager drives one serial connection at a time.
//
// Connect and Disconnect are serialized. At most one read loop exists; a
// Connect while one is active is a no-op. Disconnect is idempotent and always
// ends in Disconnected, even when closing the transport fails.
type Manager struct {
	transport serialport.Transport
	sink      ingest.Sink
	opts      Options

	// opMu serializes lifecycle operations.
	opMu sync.Mutex

	mu       sync.RWMutex
	state    State
	lastErr  string
	portName string
	loop     *readLoop
}

// readLoop is the state of one connection's reader. The stop flag and the
// port are written only by the Manager; the loop only reads them.
type readLoop struct {
	port   serialport.Port
	stop   atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc

	exited   chan struct{} // read loop returned
	pipeDone chan struct{} // pipe task returned
	finished chan struct{} // teardown for this loop complete
}

// New creates a Manager that reads from transport and writes parsed output
// to sink.
func New(transport serialport.Transport, sink ingest.Sink, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = defaultOptions().Logger
	}
	return &Manager{
		transport: transport,
		sink:      sink,
		opts:      o,
		portName:  o.PortName,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connected reports whether a read loop is running.
func (m *Manager) Connected() bool {
	return m.State() == Reading
}

// LastError returns the user-visible message of the most recent connect or
// read failure, or "" when there is none.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Port returns the configured or most recently opened device name.
func (m *Manager) Port() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.portName
}

// SetPort changes the device used by the next Connect. An empty name means
// enumerate.
func (m *Manager) SetPort(name string) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	m.opts.PortName = name
	m.portName = name
	m.mu.Unlock()
}

// Done returns a channel closed once the current connection has been fully
// torn down. With no connection it returns a closed channel.
func (m *Manager) Done() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loop == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return m.loop.finished
}

// Connect opens the transport and schedules the read loop. It returns once
// the loop has been started, not once data has arrived. Calling Connect while
// a connection is active does nothing.
func (m *Manager) Connect(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if st := m.State(); st != Disconnected {
		m.opts.Logger.Debug("connect ignored in state %s", st)
		return nil
	}

	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
	m.setState(Connecting)

	name, err := m.resolvePort(ctx)
	if err != nil {
		return m.failConnect(err)
	}
	if err := ctx.Err(); err != nil {
		return m.failConnect(err)
	}

	port, err := m.transport.Open(name, serialport.BaudRate)
	if err != nil {
		return m.failConnect(errors.WrapWithCode(err, errors.ErrTransport,
			"Failed to connect", serialport.Hint(err)))
	}
	if err := port.SetReadTimeout(m.opts.ReadTimeout); err != nil {
		_ = port.Close()
		return m.failConnect(errors.WrapWithCode(err, errors.ErrTransport,
			"Failed to connect", "The driver rejected the read timeout."))
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	loop := &readLoop{
		port:     port,
		ctx:      loopCtx,
		cancel:   cancel,
		exited:   make(chan struct{}),
		pipeDone: make(chan struct{}),
		finished: make(chan struct{}),
	}

	m.mu.Lock()
	m.loop = loop
	m.portName = name
	m.mu.Unlock()

	m.opts.Metrics.ConnectAttempt(true)
	m.opts.Logger.Info("connected to %s at %d baud", name, serialport.BaudRate)
	m.setState(Reading)

	go m.run(loop)
	return nil
}

// Disconnect stops the read loop, closes the transport and waits for the
// pipe task to finish. It returns once the state is Disconnected. A close
// failure is logged and returned as a DISCONNECT error but never prevents
// the state reset. ctx bounds only the wait for the pipe task.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	loop := m.loop
	m.mu.RUnlock()

	if loop == nil {
		m.setState(Disconnected)
		return nil
	}
	return m.teardown(ctx, loop)
}

// run executes the read loop and, when the loop ends on its own (read error
// or end of stream), performs the same teardown Disconnect would.
func (m *Manager) run(loop *readLoop) {
	err := m.readLoop(loop)

	if err != nil && !stderrors.Is(err, io.EOF) {
		readErr := errors.WrapWithCode(err, errors.ErrRead, "Read Error", "")
		m.mu.Lock()
		m.lastErr = readErr.Summary()
		m.mu.Unlock()
		m.opts.Metrics.ReadFailed()
		m.opts.Logger.Error("read loop on %s failed: %v", m.Port(), err)
	} else if err != nil {
		m.opts.Logger.Info("device %s closed the stream", m.Port())
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	current := m.loop == loop
	m.mu.RUnlock()
	if !current {
		// Disconnect already tore this loop down.
		return
	}
	_ = m.teardown(context.Background(), loop)
}

// readLoop consumes decoded chunks until stopped or the pipe task fails. It
// returns nil when stopped, io.EOF at end of stream, or the read error.
func (m *Manager) readLoop(loop *readLoop) error {
	defer close(loop.exited)

	chunks := make(chan string)
	pipeErr := make(chan error, 1)
	go m.pipe(loop, chunks, pipeErr)

	framer := ingest.NewFramer()
	parser := ingest.NewParser(m.sink, m.opts.Logger, m.opts.Metrics)

	for {
		if loop.stop.Load() {
			return nil
		}
		select {
		case <-loop.ctx.Done():
			return nil
		case chunk := <-chunks:
			// A chunk that raced a stop request is dropped.
			if loop.stop.Load() {
				return nil
			}
			parser.HandleAll(framer.Push(chunk))
		case err := <-pipeErr:
			if loop.stop.Load() || errors.IsAbort(err) {
				return nil
			}
			return err
		}
	}
}

// pipe reads raw bytes from the transport, decodes them to text and hands
// them to the read loop. Read timeouts return (0, nil) and give the pipe a
// chance to observe cancellation.
func (m *Manager) pipe(loop *readLoop, chunks chan<- string, errc chan<- error) {
	defer close(loop.pipeDone)

	decoder := ingest.NewChunkDecoder()
	buf := make([]byte, m.opts.BufferSize)

	for {
		if err := loop.ctx.Err(); err != nil {
			errc <- errors.ErrAborted
			return
		}

		n, err := loop.port.Read(buf)
		if n > 0 {
			m.opts.Metrics.ChunkReceived(n, time.Now())
			text, derr := decoder.Decode(buf[:n])
			if derr != nil {
				m.opts.Logger.Warn("decode error on %s: %v", m.Port(), derr)
			}
			if text != "" {
				select {
				case chunks <- text:
				case <-loop.ctx.Done():
					errc <- errors.ErrAborted
					return
				}
			}
		}
		if err != nil {
			if loop.stop.Load() || loop.ctx.Err() != nil {
				err = fmt.Errorf("%w: %v", errors.ErrAborted, err)
			}
			errc <- err
			return
		}
	}
}

// teardown must be called with opMu held.
func (m *Manager) teardown(ctx context.Context, loop *readLoop) error {
	start := time.Now()
	m.setState(Disconnecting)

	loop.stop.Store(true)
	loop.cancel()
	<-loop.exited

	var result error
	if err := loop.port.Close(); err != nil && !serialport.IsClosed(err) {
		result = errors.WrapWithCode(err, errors.ErrDisconnect, "Failed to close port", "")
		m.opts.Metrics.CloseFailed()
		m.opts.Logger.Warn("closing %s: %v", m.Port(), err)
	}

	select {
	case <-loop.pipeDone:
	case <-ctx.Done():
		m.opts.Logger.Warn("pipe task for %s still running after %v", m.Port(), time.Since(start))
	}

	m.mu.Lock()
	m.loop = nil
	m.mu.Unlock()
	close(loop.finished)

	m.setState(Disconnected)
	m.opts.Metrics.Disconnected(time.Since(start))
	m.opts.Logger.Debug("disconnected from %s in %v", m.Port(), time.Since(start))
	return result
}

func (m *Manager) failConnect(err error) error {
	var structured *errors.Error
	if !stderrors.As(err, &structured) {
		structured = errors.WrapWithCode(err, errors.ErrTransport, "Failed to connect", "")
	}

	m.mu.Lock()
	m.lastErr = structured.Summary()
	m.mu.Unlock()

	m.opts.Metrics.ConnectAttempt(false)
	m.opts.Logger.Error("connect failed: %s", structured.Summary())
	m.setState(Disconnected)
	return structured
}

func (m *Manager) resolvePort(ctx context.Context) (string, error) {
	m.mu.RLock()
	name := m.opts.PortName
	m.mu.RUnlock()
	if name != "" {
		return name, nil
	}

	ports, err := m.transport.List()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrTransport,
			"Failed to connect", "Port enumeration failed. Pass the device with --port.")
	}

	switch len(ports) {
	case 0:
		return "", errors.WrapWithCode(stderrors.New("no serial ports found"), errors.ErrTransport,
			"Failed to connect", "Plug in the device or pass it with --port.")
	case 1:
		return ports[0], nil
	}

	if m.opts.Select == nil {
		return "", errors.WrapWithCode(fmt.Errorf("%d serial ports found", len(ports)), errors.ErrTransport,
			"Failed to connect", "Choose one with --port.")
	}
	choice, err := m.opts.Select(ctx, ports)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrTransport, "Failed to connect", "")
	}
	return choice, nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	changed := m.state != s
	m.state = s
	m.mu.Unlock()

	if !changed {
		return
	}
	m.opts.Metrics.SetState(int(s))
	m.opts.Logger.Debug("state -> %s", s)
	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(s)
	}
}
