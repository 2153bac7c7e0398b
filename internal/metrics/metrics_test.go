package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilRegistryDisables(t *testing.T) {
	m := New(nil)
	assert.Nil(t, m)

	// Every method must be safe on a nil receiver.
	assert.NotPanics(t, func() {
		m.ChunkReceived(10, time.Now())
		m.LineReceived()
		m.RecordDecoded()
		m.ParseFailed()
		m.ReadFailed()
		m.ConnectAttempt(true)
		m.Disconnected(time.Millisecond)
		m.CloseFailed()
		m.SetState(2)
	})
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ChunkReceived(5, time.Unix(1700000000, 0))
	m.ChunkReceived(7, time.Unix(1700000001, 0))
	m.LineReceived()
	m.LineReceived()
	m.RecordDecoded()
	m.ParseFailed()
	m.ReadFailed()
	m.ConnectAttempt(true)
	m.ConnectAttempt(false)
	m.ConnectAttempt(false)
	m.CloseFailed()
	m.SetState(2)

	assert.Equal(t, float64(12), testutil.ToFloat64(m.bytesReceived))
	assert.Equal(t, float64(1700000001), testutil.ToFloat64(m.lastActivity))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.linesReceived))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.recordsDecoded))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.parseErrors))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.readErrors))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.connects.WithLabelValues("ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.connects.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.closeErrors))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.state))
}

func TestDisconnected_ObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Disconnected(20 * time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.disconnects))
	assert.Equal(t, 1, testutil.CollectAndCount(m.teardown))
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestNewRegistry_IncludesRuntimeCollectors(t *testing.T) {
	reg := NewRegistry()
	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "go_goroutines" {
			found = true
		}
	}
	assert.True(t, found)
}
