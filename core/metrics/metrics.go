// Package metrics defines interfaces and event types for recording
// scheduler activity. Sinks like PromSink and InfluxSink live in
// infra/metrics and can be combined with NewMultiSink there.
package metrics

import (
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

// AssignmentEvent records a hall call being assigned to a unit.
type AssignmentEvent struct {
	RequestID string
	UnitID    int
	Level     int
	Heading   model.Heading
	Score     float64
	Time      time.Time
}

// CompletionEvent records a served request and the observed wait.
type CompletionEvent struct {
	UnitID int
	Level  int
	Wait   time.Duration
	Time   time.Time
}

// MetricsSink records scheduler events for observability purposes.
type MetricsSink interface {
	RecordAssignment(ev AssignmentEvent) error
	RecordArrival(ev model.ArrivalEvent) error
	RecordCompletion(ev CompletionEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignment(AssignmentEvent) error { return nil }
func (NopSink) RecordArrival(model.ArrivalEvent) error { return nil }
func (NopSink) RecordCompletion(CompletionEvent) error { return nil }
