package device

import (
	"context"
	"time"

	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/metrics"
)

const (
	// DefaultReadTimeout bounds each transport read so the pipe task can
	// observe cancellation even when the device is silent.
	DefaultReadTimeout = 100 * time.Millisecond

	// DefaultBufferSize is the transport read buffer.
	DefaultBufferSize = 1024
)

// SelectFunc chooses one port when enumeration finds several.
type SelectFunc func(ctx context.Context, ports []string) (string, error)

// Options configures a Manager.
type Options struct {
	// PortName is the device to open. Empty means enumerate.
	PortName string
	// Select picks among several enumerated ports.
	Select SelectFunc
	// ReadTimeout is the transport poll interval.
	ReadTimeout time.Duration
	// BufferSize is the per-read buffer size.
	BufferSize int
	// OnStateChange is called after every transition. It must not call
	// Connect, Disconnect or SetPort.
	OnStateChange func(State)

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Option mutates Options.
type Option func(*Options)

func WithPort(name string) Option {
	return func(o *Options) { o.PortName = name }
}

func WithSelector(fn SelectFunc) Option {
	return func(o *Options) { o.Select = fn }
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ReadTimeout = d
		}
	}
}

func WithBufferSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.BufferSize = n
		}
	}
}

func WithStateListener(fn func(State)) Option {
	return func(o *Options) { o.OnStateChange = fn }
}

func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

func defaultOptions() Options {
	return Options{
		ReadTimeout: DefaultReadTimeout,
		BufferSize:  DefaultBufferSize,
		Logger:      logger.Noop(),
	}
}
