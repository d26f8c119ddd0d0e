package metrics

import (
	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
)

// MultiSink forwards every event to a list of sinks, returning the first
// error encountered.
type MultiSink struct {
	sinks []coremetrics.MetricsSink
}

// NewMultiSink combines several sinks into one.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	for _, s := range m.sinks {
		if err := s.RecordAssignment(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) RecordArrival(ev model.ArrivalEvent) error {
	for _, s := range m.sinks {
		if err := s.RecordArrival(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	for _, s := range m.sinks {
		if err := s.RecordCompletion(ev); err != nil {
			return err
		}
	}
	return nil
}
