package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(ts int64, fields map[string]float64) SensorRecord {
	return SensorRecord{Timestamp: ts, Fields: fields}
}

func TestNew_Defaults(t *testing.T) {
	s := New()
	logs, history := s.Capacity()
	assert.Equal(t, DefaultLogCapacity, logs)
	assert.Equal(t, DefaultHistoryCapacity, history)

	snap := s.Snapshot()
	assert.Empty(t, snap.Logs)
	assert.Empty(t, snap.History)
	assert.Zero(t, snap.Version)
}

func TestNew_CapacityOptions(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		wantLogs    int
		wantHistory int
	}{
		{"custom", []Option{WithLogCapacity(3), WithHistoryCapacity(4)}, 3, 4},
		{"zero ignored", []Option{WithLogCapacity(0), WithHistoryCapacity(0)}, DefaultLogCapacity, DefaultHistoryCapacity},
		{"negative ignored", []Option{WithLogCapacity(-1)}, DefaultLogCapacity, DefaultHistoryCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, history := New(tt.opts...).Capacity()
			assert.Equal(t, tt.wantLogs, logs)
			assert.Equal(t, tt.wantHistory, history)
		})
	}
}

func TestAppendLog_NewestFirstAndBounded(t *testing.T) {
	s := New()

	for i := 0; i < 60; i++ {
		s.AppendLog(LogEntry{Text: fmt.Sprintf("line %d", i), Time: "00:00:00.000"})
	}

	snap := s.Snapshot()
	require.Len(t, snap.Logs, DefaultLogCapacity)
	assert.Equal(t, "line 59", snap.Logs[0].Text, "newest entry should be first")
	assert.Equal(t, "line 10", snap.Logs[len(snap.Logs)-1].Text, "oldest retained entry should be last")
}

func TestAppendRecord_OldestFirstAndBounded(t *testing.T) {
	s := New()

	for i := 0; i < 130; i++ {
		s.AppendRecord(record(int64(i), map[string]float64{"n": float64(i)}))
	}

	snap := s.Snapshot()
	require.Len(t, snap.History, DefaultHistoryCapacity)
	assert.Equal(t, float64(30), snap.History[0].Fields["n"], "oldest records should be evicted first")
	assert.Equal(t, float64(129), snap.History[len(snap.History)-1].Fields["n"])
}

func TestSixtyLines_Scenario(t *testing.T) {
	s := New()

	for i := 0; i < 60; i++ {
		s.AppendLog(LogEntry{Text: fmt.Sprintf(`{"i":%d}`, i)})
		s.AppendRecord(record(int64(1000+i), map[string]float64{"i": float64(i)}))
	}

	snap := s.Snapshot()
	assert.Len(t, snap.Logs, 50)
	require.Len(t, snap.History, 60)
	for i, r := range snap.History {
		assert.Equal(t, float64(i), r.Fields["i"], "history should stay chronological")
	}
}

func TestAppendRecord_TimestampsNeverDecrease(t *testing.T) {
	s := New()

	s.AppendRecord(record(100, map[string]float64{"a": 1}))
	s.AppendRecord(record(90, map[string]float64{"a": 2}))
	s.AppendRecord(record(120, map[string]float64{"a": 3}))

	snap := s.Snapshot()
	require.Len(t, snap.History, 3)
	assert.Equal(t, []int64{100, 100, 120}, []int64{
		snap.History[0].Timestamp, snap.History[1].Timestamp, snap.History[2].Timestamp,
	})
}

func TestAppendRecord_CopiesFields(t *testing.T) {
	s := New()
	fields := map[string]float64{"temp": 25}
	s.AppendRecord(record(1, fields))

	fields["temp"] = 99

	snap := s.Snapshot()
	assert.Equal(t, float64(25), snap.History[0].Fields["temp"], "store must not alias caller maps")

	snap.History[0].Fields["temp"] = -1
	assert.Equal(t, float64(25), s.Snapshot().History[0].Fields["temp"], "snapshot must not alias store maps")
}

func TestClearAll(t *testing.T) {
	s := New()
	s.AppendLog(LogEntry{Text: "hello"})
	s.AppendRecord(record(1, map[string]float64{"a": 1}))
	before := s.Snapshot().Version

	s.ClearAll()

	snap := s.Snapshot()
	assert.Empty(t, snap.Logs)
	assert.Empty(t, snap.History)
	assert.Greater(t, snap.Version, before)

	logs, history := s.Len()
	assert.Zero(t, logs)
	assert.Zero(t, history)

	// The store keeps working after a clear.
	s.AppendLog(LogEntry{Text: "again"})
	assert.Equal(t, "again", s.Snapshot().Logs[0].Text)
}

func TestClearAll_ReadersNeverSeeHalfCleared(t *testing.T) {
	s := New()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			s.AppendLog(LogEntry{Text: "x"})
			s.AppendRecord(record(int64(i), map[string]float64{"x": 1}))
			if i%7 == 0 {
				s.ClearAll()
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		snap := s.Snapshot()
		assert.LessOrEqual(t, len(snap.Logs), DefaultLogCapacity)
		assert.LessOrEqual(t, len(snap.History), DefaultHistoryCapacity)
	}
	close(stop)
	wg.Wait()
}

func TestSubscribe_SignalsOnMutation(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.AppendLog(LogEntry{Text: "a"})
	s.AppendLog(LogEntry{Text: "b"})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}

	// Signals coalesce: two appends leave at most one pending signal.
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// Appending after cancel must not panic.
	s.AppendLog(LogEntry{Text: "a"})
}

func TestClose_DisposesSubscribersAndIgnoresAppends(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Close()
	s.Close()

	_, ok := <-ch
	assert.False(t, ok)

	s.AppendLog(LogEntry{Text: "late"})
	s.AppendRecord(record(1, nil))
	logs, history := s.Len()
	assert.Zero(t, logs)
	assert.Zero(t, history)

	late, _ := s.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed store yields a closed channel")
}

func TestNewLogEntry_TimeFormat(t *testing.T) {
	at := time.Date(2026, 1, 2, 9, 5, 7, 42*int(time.Millisecond), time.Local)
	e := NewLogEntry("hi", at)
	assert.Equal(t, "09:05:07.042", e.Time)
	assert.False(t, e.Structured())
	assert.True(t, LogEntry{Text: `{"a":1}`}.Structured())
}

func TestNewSensorRecord_DropsDeviceTimestamp(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	r := NewSensorRecord(map[string]float64{"temp": 25, "timestamp": 5}, at)

	assert.Equal(t, int64(1700000000123), r.Timestamp)
	assert.Equal(t, map[string]float64{"temp": 25}, r.Fields)
	assert.Equal(t, []string{"temp"}, r.Keys())
}

func TestSensorRecord_JSONIsFlat(t *testing.T) {
	r := record(42, map[string]float64{"temp": 25.5, "hum": 60})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":42,"temp":25.5,"hum":60}`, string(data))

	var back SensorRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestSnapshot_SeriesAndLatest(t *testing.T) {
	s := New()
	s.AppendRecord(record(1, map[string]float64{"temp": 20}))
	s.AppendRecord(record(2, map[string]float64{"hum": 60}))
	s.AppendRecord(record(3, map[string]float64{"temp": 22, "hum": 61}))

	snap := s.Snapshot()
	assert.Equal(t, []Point{{Timestamp: 1, Value: 20}, {Timestamp: 3, Value: 22}}, snap.Series("temp"))
	assert.Equal(t, []float64{60, 61}, snap.Values("hum"))
	assert.Nil(t, snap.Values("missing"))

	latest, ok := snap.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(3), latest.Timestamp)

	_, ok = Snapshot{}.Latest()
	assert.False(t, ok)
}

func TestLogsSince(t *testing.T) {
	s := New(WithLogCapacity(3))
	at := time.Now()

	entries, cursor := s.LogsSince(0)
	assert.Empty(t, entries)
	assert.Zero(t, cursor)

	s.AppendLog(NewLogEntry("a", at))
	s.AppendLog(NewLogEntry("b", at))
	entries, cursor = s.LogsSince(cursor)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Text)
	assert.Equal(t, "b", entries[1].Text)

	entries, _ = s.LogsSince(cursor)
	assert.Empty(t, entries, "nothing new")

	for _, text := range []string{"c", "d", "e", "f"} {
		s.AppendLog(NewLogEntry(text, at))
	}
	entries, cursor = s.LogsSince(cursor)
	require.Len(t, entries, 3, "evicted entries are skipped")
	assert.Equal(t, []string{"d", "e", "f"}, []string{entries[0].Text, entries[1].Text, entries[2].Text})

	s.ClearAll()
	s.AppendLog(NewLogEntry("g", at))
	entries, _ = s.LogsSince(cursor)
	require.Len(t, entries, 1)
	assert.Equal(t, "g", entries[0].Text)
}
