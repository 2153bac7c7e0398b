package store

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// TimeLayout formats LogEntry times as wall-clock with millisecond precision.
const TimeLayout = "15:04:05.000"

// TimestampKey is the reserved key carrying the ingestion timestamp when a
// record is flattened for display collaborators.
const TimestampKey = "timestamp"

// LogEntry is one received line as shown in the terminal view.
type LogEntry struct {
	Text string `json:"text" msgpack:"text"`
	Time string `json:"time" msgpack:"time"`
}

// NewLogEntry stamps text with the wall-clock time at.
func NewLogEntry(text string, at time.Time) LogEntry {
	return LogEntry{Text: text, Time: at.Format(TimeLayout)}
}

// Structured reports whether the line looked like a structured record.
func (e LogEntry) Structured() bool {
	return strings.HasPrefix(e.Text, "{")
}

// SensorRecord is one decoded sensor sample. Timestamp is ingestion time in
// milliseconds since the epoch, never a device-supplied value.
type SensorRecord struct {
	Timestamp int64              `msgpack:"timestamp"`
	Fields    map[string]float64 `msgpack:"fields"`
}

// NewSensorRecord builds a record from decoded fields. A device-supplied
// timestamp field is dropped; the ingestion time always wins.
func NewSensorRecord(fields map[string]float64, at time.Time) SensorRecord {
	dup := make(map[string]float64, len(fields))
	for k, v := range fields {
		if k == TimestampKey {
			continue
		}
		dup[k] = v
	}
	return SensorRecord{Timestamp: at.UnixMilli(), Fields: dup}
}

// Value returns the field named key.
func (r SensorRecord) Value(key string) (float64, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Keys returns the record's field names in sorted order.
func (r SensorRecord) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON flattens the record into {"timestamp": ..., "<field>": ...}.
func (r SensorRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(r.Fields)+1)
	for k, v := range r.Fields {
		flat[k] = v
	}
	flat[TimestampKey] = r.Timestamp
	return json.Marshal(flat)
}

// UnmarshalJSON reverses MarshalJSON.
func (r *SensorRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	r.Timestamp = int64(flat[TimestampKey])
	delete(flat, TimestampKey)
	r.Fields = flat
	return nil
}

func (r SensorRecord) clone() SensorRecord {
	dup := make(map[string]float64, len(r.Fields))
	for k, v := range r.Fields {
		dup[k] = v
	}
	return SensorRecord{Timestamp: r.Timestamp, Fields: dup}
}

// Point is one sample of a single series.
type Point struct {
	Timestamp int64   `json:"timestamp" msgpack:"timestamp"`
	Value     float64 `json:"value" msgpack:"value"`
}

// Snapshot is an immutable, combined view of both collections.
type Snapshot struct {
	// Logs is newest-first.
	Logs []LogEntry `json:"logs" msgpack:"logs"`
	// History is oldest-first.
	History []SensorRecord `json:"history" msgpack:"history"`
	// Version increments on every mutation.
	Version uint64 `json:"version" msgpack:"version"`
}

// Latest returns the most recent sensor record.
func (s Snapshot) Latest() (SensorRecord, bool) {
	if len(s.History) == 0 {
		return SensorRecord{}, false
	}
	return s.History[len(s.History)-1], true
}

// Series extracts one field across the history, skipping records that lack it.
func (s Snapshot) Series(key string) []Point {
	var points []Point
	for _, r := range s.History {
		if v, ok := r.Fields[key]; ok {
			points = append(points, Point{Timestamp: r.Timestamp, Value: v})
		}
	}
	return points
}

// Values is Series without timestamps, for sparklines.
func (s Snapshot) Values(key string) []float64 {
	points := s.Series(key)
	if len(points) == 0 {
		return nil
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}
