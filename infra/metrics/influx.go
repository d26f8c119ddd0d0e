package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/infra/logger"
)

// InfluxSink writes scheduler events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB
// endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAssignment writes the assignment as a point.
func (s *InfluxSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("lift_assignment").
		AddTag("unit_id", strconv.Itoa(ev.UnitID)).
		AddTag("heading", ev.Heading.String()).
		AddTag("request_id", ev.RequestID).
		AddField("level", ev.Level).
		AddField("score", ev.Score).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordArrival writes the arrival as a point.
func (s *InfluxSink) RecordArrival(ev model.ArrivalEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("lift_arrival").
		AddTag("unit_id", strconv.Itoa(ev.UnitID)).
		AddField("level", ev.Level).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCompletion writes the completion and its wait duration as a point.
func (s *InfluxSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("lift_completion").
		AddTag("unit_id", strconv.Itoa(ev.UnitID)).
		AddField("level", ev.Level).
		AddField("wait_seconds", ev.Wait.Seconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close flushes and shuts down the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
