package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
)

func TestPromSink_RecordEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	now := time.Now()
	if err := sink.RecordAssignment(coremetrics.AssignmentEvent{
		RequestID: "r1", UnitID: 0, Level: 5, Heading: model.HeadingUp, Score: 1.2, Time: now,
	}); err != nil {
		t.Fatalf("record assignment: %v", err)
	}
	if err := sink.RecordArrival(model.ArrivalEvent{UnitID: 0, Level: 5, Time: now}); err != nil {
		t.Fatalf("record arrival: %v", err)
	}
	if err := sink.RecordCompletion(coremetrics.CompletionEvent{
		UnitID: 0, Level: 5, Wait: 3 * time.Second, Time: now,
	}); err != nil {
		t.Fatalf("record completion: %v", err)
	}

	expected := `
# HELP lift_assignments_total Total number of hall calls assigned to units
# TYPE lift_assignments_total counter
lift_assignments_total{heading="up",unit_id="0"} 1
`
	if err := testutil.CollectAndCompare(sink.assignments, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.wait); c == 0 {
		t.Errorf("wait histogram not recorded")
	}
	if v := testutil.ToFloat64(sink.pending); v != 0 {
		t.Errorf("pending gauge = %v, want 0 after completion", v)
	}
}

func TestPromSink_ReRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
}
