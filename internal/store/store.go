package store

import (
	"sync"
)

const (
	// DefaultLogCapacity is the number of log entries retained.
	DefaultLogCapacity = 50
	// DefaultHistoryCapacity is the number of sensor records retained.
	DefaultHistoryCapacity = 100
)

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogCapacity overrides the log capacity. Non-positive values are ignored.
func WithLogCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.logCap = n
		}
	}
}

// WithHistoryCapacity overrides the history capacity. Non-positive values are ignored.
func WithHistoryCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyCap = n
		}
	}
}

// Store owns the bounded log and history collections.
type Store struct {
	mu         sync.RWMutex
	logCap     int
	historyCap int
	logs       *ring[LogEntry]
	history    *ring[SensorRecord]
	version    uint64
	logSeq     uint64
	closed     bool

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		logCap:     DefaultLogCapacity,
		historyCap: DefaultHistoryCapacity,
		subs:       make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logs = newRing[LogEntry](s.logCap)
	s.history = newRing[SensorRecord](s.historyCap)
	return s
}

// AppendLog records a log entry, evicting the oldest once full.
func (s *Store) AppendLog(entry LogEntry) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.logs.push(entry)
	s.logSeq++
	s.version++
	s.mu.Unlock()

	s.notify()
}

// AppendRecord records a sensor sample, evicting the oldest once full.
// Timestamps are clamped so history never goes backwards in time.
func (s *Store) AppendRecord(record SensorRecord) {
	rec := record.clone()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if prev, ok := s.history.last(); ok && rec.Timestamp < prev.Timestamp {
		rec.Timestamp = prev.Timestamp
	}
	s.history.push(rec)
	s.version++
	s.mu.Unlock()

	s.notify()
}

// ClearAll empties both collections under a single lock.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.logs.reset()
	s.history.reset()
	s.version++
	s.mu.Unlock()

	s.notify()
}

// Touch wakes subscribers without changing either collection. Owners use it
// to signal changes to state that lives beside the store.
func (s *Store) Touch() {
	s.notify()
}

// Snapshot returns a copy of both collections taken atomically.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.history.oldestFirst()
	for i := range history {
		history[i] = history[i].clone()
	}
	return Snapshot{
		Logs:    s.logs.newestFirst(),
		History: history,
		Version: s.version,
	}
}

// LogsSince returns the entries appended after cursor, oldest first, and
// the cursor to pass next time. Entries evicted or cleared in between are
// skipped. A zero cursor returns everything still retained.
func (s *Store) LogsSince(cursor uint64) ([]LogEntry, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cursor >= s.logSeq {
		return nil, s.logSeq
	}
	n := s.logSeq - cursor
	if held := uint64(s.logs.len()); n > held {
		n = held
	}
	newest := s.logs.newestFirst()
	out := make([]LogEntry, n)
	for i := uint64(0); i < n; i++ {
		out[n-1-i] = newest[i]
	}
	return out, s.logSeq
}

// Len returns the current number of log entries and history records.
func (s *Store) Len() (logs, history int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs.len(), s.history.len()
}

// Capacity returns the configured capacities.
func (s *Store) Capacity() (logs, history int) {
	return s.logCap, s.historyCap
}

// Subscribe returns a channel that receives a signal after every mutation,
// and a function that cancels the subscription. Signals coalesce: a slow
// reader sees at least one pending signal, never a backlog. Readers should
// call Snapshot on each signal.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.isClosed() {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close disposes of the store: subscriber channels are closed and further
// appends are ignored. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
