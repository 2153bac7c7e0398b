package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/serialmon/internal/widget"
)

func TestWriteDefault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := DefaultConfig()
	cfg.Port = "/dev/ttyUSB0"
	cfg.Widgets = []widget.Spec{{Type: widget.Line, DataKey: "temp"}}

	require.NoError(t, WriteDefault(path, cfg, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# serialmon configuration")
	assert.Contains(t, string(data), "read_timeout: 100ms")
	assert.Contains(t, string(data), "interval: 250ms")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Port, loaded.Port)
	assert.Equal(t, cfg.ReadTimeout, loaded.ReadTimeout)
	assert.Equal(t, cfg.Monitor.Interval, loaded.Monitor.Interval)
	assert.Equal(t, cfg.Widgets, loaded.Widgets)
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("keep: me\n"), 0644))

	err := WriteDefault(path, DefaultConfig(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, WriteDefault(path, DefaultConfig(), true))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, loaded.ReadTimeout)
}

func TestSetPort(t *testing.T) {
	tests := []struct {
		name    string
		initial string
	}{
		{"replace existing", "# my device\nversion: 1\nport: /dev/old\n"},
		{"add missing", "# my device\nversion: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.initial), 0644))

			require.NoError(t, SetPort(path, "/dev/ttyACM1"))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(data), "# my device", "comments preserved")
			assert.Equal(t, 1, strings.Count(string(data), "port:"))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "/dev/ttyACM1", cfg.Port)
		})
	}
}

func TestAddWidget(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nport: /dev/ttyUSB0\n"), 0644))

	spec := widget.Spec{Type: widget.Bar, DataKey: "hum", Title: "Humidity"}
	require.NoError(t, AddWidget(path, spec))
	require.NoError(t, AddWidget(path, spec), "duplicate is a no-op")
	require.NoError(t, AddWidget(path, widget.Spec{Type: widget.Line, DataKey: "temp"}))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []widget.Spec{spec, {Type: widget.Line, DataKey: "temp"}}, cfg.Widgets)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
}

func TestSetPort_Errors(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, SetPort(filepath.Join(dir, "missing.yaml"), "/dev/x"))

	list := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(list, []byte("- a\n- b\n"), 0644))
	err := SetPort(list, "/dev/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected mapping")
}
