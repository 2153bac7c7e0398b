package testing

import (
	"sync"

	"github.com/rileyhilliard/serialmon/internal/serialport"
)

// OpenCall records one Open invocation.
type OpenCall struct {
	Name string
	Baud int
}

// FakeTransport simulates device enumeration and opening.
type FakeTransport struct {
	mu      sync.Mutex
	ports   []string
	listErr error
	openErr error
	opened  []*FakePort

	// Tracking for assertions
	OpenCalls []OpenCall
	ListCalls int
}

// NewFakeTransport creates a transport that lists the given port names.
func NewFakeTransport(ports ...string) *FakeTransport {
	return &FakeTransport{ports: ports}
}

// SetPorts replaces the enumerated port names.
func (t *FakeTransport) SetPorts(ports ...string) *FakeTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ports = ports
	return t
}

// SetOpenError makes Open fail with err. Pass nil to clear.
func (t *FakeTransport) SetOpenError(err error) *FakeTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openErr = err
	return t
}

// SetListError makes List fail with err.
func (t *FakeTransport) SetListError(err error) *FakeTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listErr = err
	return t
}

// Open implements serialport.Transport.
func (t *FakeTransport) Open(name string, baud int) (serialport.Port, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.OpenCalls = append(t.OpenCalls, OpenCall{Name: name, Baud: baud})
	if t.openErr != nil {
		return nil, t.openErr
	}
	port := NewFakePort(name, baud)
	t.opened = append(t.opened, port)
	return port, nil
}

// List implements serialport.Transport.
func (t *FakeTransport) List() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ListCalls++
	if t.listErr != nil {
		return nil, t.listErr
	}
	out := make([]string, len(t.ports))
	copy(out, t.ports)
	return out, nil
}

// LastPort returns the most recently opened port, or nil.
func (t *FakeTransport) LastPort() *FakePort {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.opened) == 0 {
		return nil
	}
	return t.opened[len(t.opened)-1]
}

// Opened returns every port opened so far.
func (t *FakeTransport) Opened() []*FakePort {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*FakePort, len(t.opened))
	copy(out, t.opened)
	return out
}

// Calls returns a copy of recorded Open calls.
func (t *FakeTransport) Calls() []OpenCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]OpenCall, len(t.OpenCalls))
	copy(out, t.OpenCalls)
	return out
}
