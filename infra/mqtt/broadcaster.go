package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/infra/logger"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

// Snapshotter is the read-only slice of the dispatcher the broadcaster
// consumes.
type Snapshotter interface {
	Snapshot() []model.UnitView
	RecentCompletions() []model.CompletionRecord
}

// Publisher publishes a payload on a named topic.
type Publisher interface {
	Publish(name, topic string, payload []byte) error
}

// Broadcaster periodically publishes the fleet snapshot and relays
// arrival events from the bus. Both are best-effort: a failed publish is
// logged and the next cycle continues.
type Broadcaster struct {
	pub Publisher
	src Snapshotter
	bus *eventbus.Bus[model.ArrivalEvent]
	cfg Config
	log logger.Logger
}

// NewBroadcaster wires a broadcaster over the given publisher and
// snapshot source.
func NewBroadcaster(pub Publisher, src Snapshotter, bus *eventbus.Bus[model.ArrivalEvent], cfg Config, log logger.Logger) *Broadcaster {
	if log == nil {
		log = logger.New("mqtt_broadcaster")
	}
	return &Broadcaster{pub: pub, src: src, bus: bus, cfg: cfg, log: log}
}

type statePayload struct {
	Units []model.UnitView         `json:"units"`
	Done  []model.CompletionRecord `json:"recent_completions"`
	Time  time.Time                `json:"time"`
}

// Run publishes until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.BroadcastPeriod())
	defer ticker.Stop()

	var arrivals <-chan model.ArrivalEvent
	if b.bus != nil {
		arrivals = b.bus.Subscribe()
		defer b.bus.Unsubscribe(arrivals)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.publishState()
		case ev, ok := <-arrivals:
			if !ok {
				arrivals = nil
				continue
			}
			b.publishArrival(ev)
		}
	}
}

func (b *Broadcaster) publishState() {
	payload, err := json.Marshal(statePayload{
		Units: b.src.Snapshot(),
		Done:  b.src.RecentCompletions(),
		Time:  time.Now(),
	})
	if err != nil {
		b.log.Errorf("marshal state: %v", err)
		return
	}
	if err := b.pub.Publish("state", b.cfg.StateTopic, payload); err != nil {
		b.log.Errorf("publish state: %v", err)
	}
}

func (b *Broadcaster) publishArrival(ev model.ArrivalEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Errorf("marshal arrival: %v", err)
		return
	}
	if err := b.pub.Publish("arrival", b.cfg.ArrivalTopic, payload); err != nil {
		b.log.Errorf("publish arrival: %v", err)
	}
}
