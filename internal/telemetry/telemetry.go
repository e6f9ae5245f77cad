// Package telemetry defines the event sink used throughout the engine to
// report the non-error conditions spec.md calls out explicitly as events
// rather than errors (ContextCropped, KvCacheEviction, MemoryBudgetSoftLimit,
// VocabMissing, ...), plus per-call performance metrics (§4.5's "telemetry
// hooks"). The default Sink is backed by logrus, mirroring the corpus's
// preference for a structured logging library over the standard library's
// bare log package.
package telemetry

import "github.com/sirupsen/logrus"

// Event is a structured telemetry record. Kind matches one of the event
// names from spec.md §7 (the ones marked "Event, not error").
type Event struct {
	Kind   string
	Fields map[string]any
}

// Sink receives telemetry events and metrics. Implementations must be safe
// for concurrent use, since events can originate from multiple sessions.
type Sink interface {
	Emit(Event)
}

// LogrusSink adapts a *logrus.Logger to the Sink interface. A nil *Logger
// falls back to logrus's package-level default logger.
type LogrusSink struct {
	Logger *logrus.Logger
}

func (s LogrusSink) Emit(e Event) {
	fields := logrus.Fields(e.Fields)
	entry := logrus.NewEntry(s.logger())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Info(e.Kind)
}

func (s LogrusSink) logger() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}

// NopSink discards all events; useful in tests that don't care about
// telemetry output.
type NopSink struct{}

func (NopSink) Emit(Event) {}
