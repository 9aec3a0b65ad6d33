// Package metrics defines the observability interface of the scheduling
// engine. Implementations live under infra/metrics.
package metrics

import "time"

// ResolutionEvent summarizes one full pipeline run.
type ResolutionEvent struct {
	RunID             string
	BaselineConflicts int
	ResidualConflicts int
	Generations       int
	OracleUsed        bool
	Duration          time.Duration
}

// Sink records engine events for observability purposes.
type Sink interface {
	// RecordConflicts counts conflicts found by a detection pass, by kind.
	RecordConflicts(kind string, count int)
	// RecordResolution records the outcome of a pipeline run.
	RecordResolution(ev ResolutionEvent)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) RecordConflicts(string, int)      {}
func (NopSink) RecordResolution(ResolutionEvent) {}
