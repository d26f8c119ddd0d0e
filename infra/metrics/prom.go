package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
)

// PromSink records scheduler events in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	arrivals    *prometheus.CounterVec
	wait        prometheus.Histogram
	pending     prometheus.Gauge
}

// NewPromSink registers scheduler metrics on the default Prometheus
// registerer. The metrics server is started separately with
// StartPromServer.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lift_assignments_total",
		Help: "Total number of hall calls assigned to units",
	}, []string{"unit_id", "heading"})
	arrivals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lift_arrivals_total",
		Help: "Total number of unit arrivals",
	}, []string{"unit_id"})
	wait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lift_wait_seconds",
		Help:    "Time between a call being issued and the serving unit opening its doors",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lift_pending_requests",
		Help: "Number of requests awaiting arrival",
	})

	if err := reg.Register(assignments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			assignments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(arrivals); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			arrivals = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(wait); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			wait = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(pending); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			pending = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{assignments: assignments, arrivals: arrivals, wait: wait, pending: pending}, nil
}

// RecordAssignment increments the assignment counter.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	s.assignments.WithLabelValues(strconv.Itoa(ev.UnitID), ev.Heading.String()).Inc()
	s.pending.Inc()
	return nil
}

// RecordArrival increments the arrival counter.
func (s *PromSink) RecordArrival(ev model.ArrivalEvent) error {
	s.arrivals.WithLabelValues(strconv.Itoa(ev.UnitID)).Inc()
	return nil
}

// RecordCompletion observes the wait histogram.
func (s *PromSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	s.wait.Observe(ev.Wait.Seconds())
	s.pending.Dec()
	return nil
}
