// Package session is the application root for one serial monitor process.
// It constructs the store, the connection manager and the widget registry,
// wires them together, and disposes of them in order on Close.
package session

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rileyhilliard/serialmon/internal/config"
	"github.com/rileyhilliard/serialmon/internal/device"
	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/metrics"
	"github.com/rileyhilliard/serialmon/internal/serialport"
	"github.com/rileyhilliard/serialmon/internal/store"
	"github.com/rileyhilliard/serialmon/internal/widget"
)

// Status is the lifecycle summary shown in status bars.
type Status struct {
	State     device.State `json:"state" msgpack:"state"`
	Connected bool         `json:"connected" msgpack:"connected"`
	Port      string       `json:"port" msgpack:"port"`
	Error     string       `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Snapshot combines the store contents with display configuration.
type Snapshot struct {
	store.Snapshot
	Status        Status          `json:"status" msgpack:"status"`
	Widgets       []widget.Widget `json:"widgets" msgpack:"widgets"`
	AvailableKeys []string        `json:"available_keys" msgpack:"available_keys"`
}

// Option configures a Session.
type Option func(*options)

type options struct {
	log      logger.Logger
	registry prometheus.Registerer
	selector device.SelectFunc
	storeOps []store.Option
}

// WithLogger sets the logger used by every component.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRegistry enables metrics on reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithSelector sets the port picker used when several ports are present.
func WithSelector(fn device.SelectFunc) Option {
	return func(o *options) { o.selector = fn }
}

// WithStoreOptions passes options to the store constructor.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) { o.storeOps = append(o.storeOps, opts...) }
}

// Session owns the store, manager and widget registry.
type Session struct {
	store     *store.Store
	manager   *device.Manager
	widgets   *registryWithEvents
	log       logger.Logger
	transport serialport.Transport

	closeOnce sync.Once
	closeErr  error
}

// New builds a session from cfg. Widgets listed in cfg are registered
// immediately; invalid entries are logged and skipped.
func New(cfg *config.Config, transport serialport.Transport, opts ...Option) *Session {
	o := options{log: logger.Noop()}
	for _, opt := range opts {
		opt(&o)
	}

	st := store.New(o.storeOps...)
	m := metrics.New(o.registry)

	s := &Session{
		store:     st,
		log:       o.log,
		transport: transport,
	}
	s.widgets = newRegistryWithEvents(widget.NewRegistry(), st)

	s.manager = device.New(transport, st,
		device.WithPort(cfg.Port),
		device.WithReadTimeout(cfg.ReadTimeout),
		device.WithSelector(o.selector),
		device.WithLogger(o.log),
		device.WithMetrics(m),
		device.WithStateListener(func(device.State) { st.Touch() }),
	)

	for _, spec := range cfg.Widgets {
		if _, err := s.widgets.Add(spec); err != nil {
			o.log.Warn("skipping configured widget %q: %v", spec.DataKey, err)
		}
	}
	return s
}

// Store exposes the bounded store to display collaborators.
func (s *Session) Store() *store.Store { return s.store }

// Manager exposes the connection manager.
func (s *Session) Manager() *device.Manager { return s.manager }

// Transport returns the transport the session opens ports with.
func (s *Session) Transport() serialport.Transport { return s.transport }

// Connect opens the configured device.
func (s *Session) Connect(ctx context.Context) error {
	return s.manager.Connect(ctx)
}

// ConnectPort switches to port, then connects. An active connection to a
// different port is torn down first.
func (s *Session) ConnectPort(ctx context.Context, port string) error {
	if port != "" && port != s.manager.Port() {
		if err := s.manager.Disconnect(ctx); err != nil {
			s.log.Warn("disconnect before switching port: %v", err)
		}
		s.manager.SetPort(port)
	}
	return s.manager.Connect(ctx)
}

// Disconnect closes the device.
func (s *Session) Disconnect(ctx context.Context) error {
	return s.manager.Disconnect(ctx)
}

// ClearAll empties logs and history. Widgets are kept.
func (s *Session) ClearAll() {
	s.store.ClearAll()
}

// AddWidget registers a chart.
func (s *Session) AddWidget(spec widget.Spec) (widget.Widget, error) {
	return s.widgets.Add(spec)
}

// RemoveWidget drops a chart and reports whether it existed.
func (s *Session) RemoveWidget(id string) bool {
	return s.widgets.Remove(id)
}

// Widgets lists charts in insertion order.
func (s *Session) Widgets() []widget.Widget {
	return s.widgets.List()
}

// Status reports the connection lifecycle.
func (s *Session) Status() Status {
	st := s.manager.State()
	return Status{
		State:     st,
		Connected: st == device.Reading,
		Port:      s.manager.Port(),
		Error:     s.manager.LastError(),
	}
}

// Snapshot captures store contents, status and widgets.
func (s *Session) Snapshot() Snapshot {
	snap := s.store.Snapshot()
	return Snapshot{
		Snapshot:      snap,
		Status:        s.Status(),
		Widgets:       s.widgets.List(),
		AvailableKeys: widget.AvailableKeys(snap.History),
	}
}

// Subscribe is store.Subscribe; it also fires on status and widget changes.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	return s.store.Subscribe()
}

// Close disconnects and disposes of the store. Safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.manager.Disconnect(ctx)
		s.store.Close()
	})
	return s.closeErr
}

// registryWithEvents nudges store subscribers when widgets change so a
// single subscription covers everything a display shows.
type registryWithEvents struct {
	*widget.Registry
	st *store.Store
}

func newRegistryWithEvents(r *widget.Registry, st *store.Store) *registryWithEvents {
	return &registryWithEvents{Registry: r, st: st}
}

func (r *registryWithEvents) Add(spec widget.Spec) (widget.Widget, error) {
	w, err := r.Registry.Add(spec)
	if err == nil {
		r.st.Touch()
	}
	return w, err
}

func (r *registryWithEvents) Remove(id string) bool {
	ok := r.Registry.Remove(id)
	if ok {
		r.st.Touch()
	}
	return ok
}
