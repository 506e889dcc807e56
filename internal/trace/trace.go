// Package trace carries the engine's per-test diagnostic events. The
// executor emits unconditionally; sinks decide what to keep, so disabling
// tracing is a sink concern, not an engine concern.
package trace

import (
	"log/slog"
	"sort"
)

type EventType string

const (
	TestStart        EventType = "test.start"
	RequestSent      EventType = "request.sent"
	ResponseReceived EventType = "response.received"
	CheckEvaluated   EventType = "check.evaluated"
	TestEnd          EventType = "test.end"
)

// Event is one structured trace record scoped to a single test case.
type Event struct {
	Type   EventType
	Test   string
	Fields map[string]any
}

type Sink interface {
	Emit(Event)
}

// Nop returns a sink that discards every event.
func Nop() Sink { return nopSink{} }

type nopSink struct{}

func (nopSink) Emit(Event) {}

// NewLogSink returns a sink that records events on l at Debug level.
func NewLogSink(l *slog.Logger) Sink { return &logSink{l: l} }

type logSink struct {
	l *slog.Logger
}

func (s *logSink) Emit(ev Event) {
	attrs := make([]any, 0, 2+2*len(ev.Fields))
	attrs = append(attrs, slog.String("event", string(ev.Type)), slog.String("test", ev.Test))
	// stable field order so log lines diff cleanly between runs
	keys := make([]string, 0, len(ev.Fields))
	for k := range ev.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, ev.Fields[k]))
	}
	s.l.Debug("trace", attrs...)
}

// Multi fans events out to every given sink in order.
func Multi(sinks ...Sink) Sink { return multiSink(sinks) }

type multiSink []Sink

func (m multiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}
