package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rileyhilliard/serialmon/internal/config"
	"github.com/rileyhilliard/serialmon/internal/device"
	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/serialport"
	sptesting "github.com/rileyhilliard/serialmon/internal/serialport/testing"
	"github.com/rileyhilliard/serialmon/internal/session"
	"github.com/rileyhilliard/serialmon/internal/store"
	"github.com/rileyhilliard/serialmon/internal/widget"
)

type fixture struct {
	session   *session.Session
	transport *sptesting.FakeTransport
	server    *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Port = "/dev/ttyFAKE0"
	cfg.ReadTimeout = 5 * time.Millisecond

	reg := prometheus.NewRegistry()
	tr := sptesting.NewFakeTransport("/dev/ttyFAKE0", "/dev/ttyFAKE1")
	s := session.New(cfg, tr, session.WithRegistry(reg))
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	return &fixture{
		session:   s,
		transport: tr,
		server:    New(Dependencies{Session: s, Gatherer: reg}),
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStatus_Idle(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var st session.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, device.Disconnected, st.State)
	assert.False(t, st.Connected)
	assert.Equal(t, "/dev/ttyFAKE0", st.Port)
	assert.Contains(t, rec.Body.String(), `"state":"disconnected"`)
}

func TestConnectStreamDisconnect(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/connect", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"state":"reading"`)

	f.transport.LastPort().Feed("{\"temp\":25.5}\nboot ok\n")
	require.Eventually(t, func() bool {
		return len(f.session.Snapshot().Logs) == 2
	}, 2*time.Second, time.Millisecond)

	rec = f.do(t, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Logs          []map[string]string  `json:"logs"`
		History       []map[string]float64 `json:"history"`
		AvailableKeys []string             `json:"available_keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Logs, 2)
	assert.Equal(t, "boot ok", body.Logs[0]["text"])
	require.Len(t, body.History, 1)
	assert.Equal(t, 25.5, body.History[0]["temp"])
	assert.Equal(t, []string{"temp"}, body.AvailableKeys)

	rec = f.do(t, http.MethodPost, "/api/disconnect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"disconnected"`)
	assert.True(t, f.transport.LastPort().Closed())
}

func TestConnect_SwitchesPort(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/connect", `{"port":"/dev/ttyFAKE1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	calls := f.transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/dev/ttyFAKE1", calls[0].Name)
	assert.Equal(t, serialport.BaudRate, calls[0].Baud)
}

func TestConnect_Failure(t *testing.T) {
	f := newFixture(t)
	f.transport.SetOpenError(assert.AnError)

	rec := f.do(t, http.MethodPost, "/api/connect", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, errors.ErrTransport, apiErr.Code)
	assert.Equal(t, "Failed to connect: "+assert.AnError.Error(), apiErr.Message)

	rec = f.do(t, http.MethodGet, "/api/status", "")
	assert.Contains(t, rec.Body.String(), "Failed to connect")
}

func TestConnect_BadBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/connect", `{"port":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestDisconnect_Idle(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/disconnect", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	f.session.Store().AppendLog(store.NewLogEntry("hello", time.Now()))
	f.session.Store().AppendRecord(store.NewSensorRecord(map[string]float64{"temp": 1}, time.Now()))
	_, err := f.session.AddWidget(widget.Spec{Type: widget.Line, DataKey: "temp"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/clear", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	snap := f.session.Snapshot()
	assert.Empty(t, snap.Logs)
	assert.Empty(t, snap.History)
	assert.Len(t, snap.Widgets, 1)
}

func TestWidgets(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/widgets", `{"type":"bar","data_key":"hum"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created widget.Widget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "HUM", created.Title)

	rec = f.do(t, http.MethodGet, "/api/widgets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []widget.Widget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []widget.Widget{created}, list)

	rec = f.do(t, http.MethodDelete, "/api/widgets/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/widgets/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestAddWidget_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"pie","data_key":"temp"}`},
		{"missing key", `{"type":"line"}`},
		{"reserved key", `{"type":"line","data_key":"timestamp"}`},
	}

	f := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/widgets", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, f.session.Widgets())
}

func TestSnapshotMsgpack(t *testing.T) {
	f := newFixture(t)
	f.session.Store().AppendLog(store.NewLogEntry("{\"temp\":3}", time.Now()))
	f.session.Store().AppendRecord(store.NewSensorRecord(map[string]float64{"temp": 3}, time.Now()))

	rec := f.do(t, http.MethodGet, "/api/snapshot/msgpack", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var snap session.Snapshot
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Logs, 1)
	require.Len(t, snap.History, 1)
	assert.Equal(t, 3.0, snap.History[0].Fields["temp"])
	assert.Equal(t, []string{"temp"}, snap.AvailableKeys)
}

func TestListPorts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/ports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ports []serialport.PortInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ports))
	assert.Equal(t, []serialport.PortInfo{{Name: "/dev/ttyFAKE0"}, {Name: "/dev/ttyFAKE1"}}, ports)

	f.transport.SetListError(assert.AnError)
	rec = f.do(t, http.MethodGet, "/api/ports", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/connect", "").Code)

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "serialmon_connect_attempts_total")
}

func TestMetricsEndpoint_DisabledWithoutGatherer(t *testing.T) {
	f := newFixture(t)
	srv := New(Dependencies{Session: f.session})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLog(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	srv := New(Dependencies{Session: f.session, RequestLog: &buf})

	for _, path := range []string{"/health", "/api/status"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Contains(t, buf.String(), "/api/status")
	assert.NotContains(t, buf.String(), "/health")
}

func TestServeAndShutdown(t *testing.T) {
	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- f.server.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.server.Shutdown(ctx))

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestListenAndServe_BadAddr(t *testing.T) {
	f := newFixture(t)
	err := f.server.ListenAndServe("256.0.0.1:bad")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrServe))
}
