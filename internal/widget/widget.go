// Package widget tracks which sensor fields the user wants charted. It holds
// display configuration only and has no part in ingestion.
package widget

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rileyhilliard/serialmon/internal/store"
)

// Type is the chart kind.
type Type string

const (
	Line Type = "line"
	Bar  Type = "bar"
)

// Valid reports whether t is a known chart type.
func (t Type) Valid() bool {
	return t == Line || t == Bar
}

// Spec describes a widget to add.
type Spec struct {
	Type    Type   `json:"type" yaml:"type" mapstructure:"type"`
	DataKey string `json:"data_key" yaml:"data_key" mapstructure:"data_key"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
}

// Validate checks the spec.
func (s Spec) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("unknown widget type %q (want line or bar)", s.Type)
	}
	if strings.TrimSpace(s.DataKey) == "" {
		return fmt.Errorf("widget data key is required")
	}
	if s.DataKey == store.TimestampKey {
		return fmt.Errorf("%q is reserved", store.TimestampKey)
	}
	return nil
}

// Widget is a registered chart.
type Widget struct {
	ID      string `json:"id" msgpack:"id"`
	Type    Type   `json:"type" msgpack:"type"`
	DataKey string `json:"data_key" msgpack:"data_key"`
	Title   string `json:"title" msgpack:"title"`
}

// Registry is the ordered set of widgets. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	widgets []Widget
	newID   func() string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{newID: func() string { return uuid.New().String() }}
}

// Add validates spec and appends a widget with a fresh id. An empty title
// defaults to the upper-cased data key.
func (r *Registry) Add(spec Spec) (Widget, error) {
	if err := spec.Validate(); err != nil {
		return Widget{}, err
	}
	title := spec.Title
	if title == "" {
		title = strings.ToUpper(spec.DataKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	w := Widget{ID: r.newID(), Type: spec.Type, DataKey: spec.DataKey, Title: title}
	r.widgets = append(r.widgets, w)
	return w, nil
}

// Remove deletes the widget with id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.widgets {
		if w.ID == id {
			r.widgets = append(r.widgets[:i], r.widgets[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the widgets in insertion order.
func (r *Registry) List() []Widget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Widget, len(r.widgets))
	copy(out, r.widgets)
	return out
}

// Len returns the number of widgets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.widgets)
}

// AvailableKeys returns the field names of the most recent record, sorted.
// These are the keys a new widget can chart.
func AvailableKeys(history []store.SensorRecord) []string {
	if len(history) == 0 {
		return nil
	}
	return history[len(history)-1].Keys()
}
