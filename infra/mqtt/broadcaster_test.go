package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/model"
)

type stubSource struct {
	views []model.UnitView
	done  []model.CompletionRecord
}

func (s stubSource) Snapshot() []model.UnitView                  { return s.views }
func (s stubSource) RecentCompletions() []model.CompletionRecord { return s.done }

type capturePublisher struct {
	topics   []string
	payloads [][]byte
}

func (c *capturePublisher) Publish(_, topic string, payload []byte) error {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload)
	return nil
}

func TestBroadcaster_PublishState(t *testing.T) {
	src := stubSource{
		views: []model.UnitView{{ID: 0, Position: 2, Phase: model.PhaseIdle, PendingStops: []int{}}},
		done:  []model.CompletionRecord{{UnitID: 0, Level: 2, Wait: time.Second}},
	}
	pub := &capturePublisher{}
	var cfg Config
	cfg.SetDefaults()
	b := NewBroadcaster(pub, src, nil, cfg, logger.NopLogger{})

	b.publishState()
	require.Len(t, pub.topics, 1)
	assert.Equal(t, "lift/fleet/state", pub.topics[0])

	var got statePayload
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	require.Len(t, got.Units, 1)
	assert.Equal(t, 0, got.Units[0].ID)
	require.Len(t, got.Done, 1)
	assert.Equal(t, 2, got.Done[0].Level)
}

func TestBroadcaster_PublishArrival(t *testing.T) {
	pub := &capturePublisher{}
	var cfg Config
	cfg.SetDefaults()
	b := NewBroadcaster(pub, stubSource{}, nil, cfg, logger.NopLogger{})

	b.publishArrival(model.ArrivalEvent{UnitID: 1, Level: 7, Time: time.Now()})
	require.Len(t, pub.topics, 1)
	assert.Equal(t, "lift/events/arrival", pub.topics[0])

	var got model.ArrivalEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, 1, got.UnitID)
	assert.Equal(t, 7, got.Level)
}
