package ingest

import (
	"time"

	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/metrics"
	"github.com/rileyhilliard/serialmon/internal/store"
)

// Sink receives the parser's output. *store.Store satisfies it.
type Sink interface {
	AppendLog(store.LogEntry)
	AppendRecord(store.SensorRecord)
}

// Parser turns framed lines into log entries and, when a line decodes as a
// flat numeric object, sensor records.
type Parser struct {
	sink    Sink
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewParser creates a Parser writing to sink. A nil log discards diagnostics
// and a nil m disables metrics.
func NewParser(sink Sink, log logger.Logger, m *metrics.Metrics) *Parser {
	if log == nil {
		log = logger.Noop()
	}
	return &Parser{
		sink:    sink,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Handle processes one complete, trimmed line. The line is always logged;
// decoding is attempted only for object-shaped lines and its failure is
// reported as a diagnostic, never returned.
func (p *Parser) Handle(line string) {
	at := p.now()
	p.metrics.LineReceived()
	p.sink.AppendLog(store.NewLogEntry(line, at))

	if !LooksStructured(line) {
		return
	}

	fields, err := Decode(line)
	if err != nil {
		p.metrics.ParseFailed()
		p.log.Warn("dropping structured line: %v", err)
		return
	}

	p.metrics.RecordDecoded()
	p.sink.AppendRecord(store.NewSensorRecord(fields, at))
}

// HandleAll processes lines in order.
func (p *Parser) HandleAll(lines []string) {
	for _, line := range lines {
		p.Handle(line)
	}
}
