// Package dispatch implements the fleet-wide scheduler: it scores every
// unit against an incoming hall call, hands the call to the winner and
// reconciles pending requests against observed arrivals on each tick.
package dispatch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/core/sim"
)

// Scoring weights. Lower scores win. The busy base keeps any idle unit
// ahead of any busy one regardless of distance.
const (
	idleWorkloadWeight = 3.0
	tieBreakRange      = 0.5

	busyBase           = 1000.0
	busyDistanceWeight = 10.0
	busyWorkloadWeight = 100.0
	busyETAWeight      = 2.0
	sameHeadingBonus   = 300.0
	wrongHeadingMalus  = 200.0
)

// completionCap bounds the recent-completions ring.
const completionCap = 10

type pendingRequest struct {
	level    int
	issuedAt time.Time
	unitID   int
}

// ArrivalFunc mirrors sim.ArrivalFunc for external observers. It is
// invoked synchronously on arrival and must not block or mutate the
// scheduler.
type ArrivalFunc = sim.ArrivalFunc

// Dispatcher owns the fleet, the pending-request ledger and the
// recent-completions ring. All exported methods serialize on one mutex,
// so assignment never observes a half-stepped unit.
type Dispatcher struct {
	mu          sync.Mutex
	fleet       []*sim.Unit
	levels      int
	pending     map[string]pendingRequest
	completions []model.CompletionRecord
	rng         *rand.Rand
	clock       sim.Clock
	log         logger.Logger
	sink        metrics.MetricsSink
	onArrival   ArrivalFunc
}

// New builds a Dispatcher and its fleet from cfg. clock, rng, log and
// sink may be nil; sensible defaults are used. onArrival, if given, is
// forwarded every unit arrival.
func New(cfg Config, clock sim.Clock, rng *rand.Rand, log logger.Logger, sink metrics.MetricsSink, onArrival ArrivalFunc) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = sim.RealClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}

	d := &Dispatcher{
		levels:    cfg.Levels,
		pending:   make(map[string]pendingRequest),
		rng:       rng,
		clock:     clock,
		log:       log,
		sink:      sink,
		onArrival: onArrival,
	}
	unitCfg := sim.UnitConfig{
		SpeedLevelsPerSec: cfg.SpeedLevelsPerSec,
		DoorCycle:         cfg.DoorCycle(),
	}
	d.fleet = make([]*sim.Unit, cfg.Units)
	for i := range d.fleet {
		d.fleet[i] = sim.NewUnit(i, cfg.InitialLevel, unitCfg, d.arrived)
	}
	return d, nil
}

// arrived is the per-unit arrival hook. It runs inside Advance (which
// holds the dispatcher lock), so it must not re-enter the scheduler.
func (d *Dispatcher) arrived(unitID, level int) {
	ev := model.ArrivalEvent{UnitID: unitID, Level: level, Time: d.clock.Now()}
	if err := d.sink.RecordArrival(ev); err != nil {
		d.log.Errorf("record arrival: %v", err)
	}
	d.log.Debugw("unit arrived", map[string]any{"unit": unitID, "level": level})
	if d.onArrival != nil {
		d.onArrival(unitID, level)
	}
}

// Assign scores every unit against the requested level and enqueues the
// call on the winner. It returns the request identifier used for
// wait-time reconciliation, or the empty string when the level is out of
// range or the fleet is empty.
func (d *Dispatcher) Assign(level int, preferred model.Heading) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if level < 0 || level >= d.levels || len(d.fleet) == 0 {
		return ""
	}

	best := d.fleet[0]
	bestScore := d.score(best, level, preferred)
	for _, u := range d.fleet[1:] {
		if s := d.score(u, level, preferred); s < bestScore {
			best, bestScore = u, s
		}
	}

	best.Enqueue(level)
	id := uuid.NewString()
	now := d.clock.Now()
	d.pending[id] = pendingRequest{level: level, issuedAt: now, unitID: best.ID()}

	ev := metrics.AssignmentEvent{
		RequestID: id,
		UnitID:    best.ID(),
		Level:     level,
		Heading:   preferred,
		Score:     bestScore,
		Time:      now,
	}
	if err := d.sink.RecordAssignment(ev); err != nil {
		d.log.Errorf("record assignment: %v", err)
	}
	d.log.Debugw("call assigned", map[string]any{
		"request": id, "unit": best.ID(), "level": level, "score": bestScore,
	})
	return id
}

// score implements the two-tier heuristic: idle units compete on distance
// and workload with a random tie-breaker, busy units start from a large
// base adjusted by distance, workload, ETA and heading alignment.
func (d *Dispatcher) score(u *sim.Unit, level int, preferred model.Heading) float64 {
	dist := u.DistanceTo(level)
	load := float64(u.Workload())

	if u.Phase() == model.PhaseIdle {
		return dist + idleWorkloadWeight*load + d.rng.Float64()*tieBreakRange
	}

	s := busyBase + busyDistanceWeight*dist + busyWorkloadWeight*load +
		busyETAWeight*u.EstimatedArrival(level).Seconds()
	heading := u.Heading()
	toward := u.IsHeadingToward(level)
	if preferred != model.HeadingNone && preferred == heading && toward {
		s -= sameHeadingBonus
	}
	if heading != model.HeadingNone && !toward {
		s += wrongHeadingMalus
	}
	return s
}

// SelectLevel enqueues level directly on one unit, bypassing scoring.
// Out-of-range identifiers are ignored.
func (d *Dispatcher) SelectLevel(unitID, level int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if unitID < 0 || unitID >= len(d.fleet) || level < 0 || level >= d.levels {
		return
	}
	d.fleet[unitID].Enqueue(level)
}

// Advance steps every unit by dt, then matches pending requests against
// units serving their level. Matching is a best-effort correlation on
// rounded position and door phase; with several pending requests for the
// same unit and level, attribution follows scan order.
func (d *Dispatcher) Advance(dt time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.fleet {
		u.Step(dt)
	}

	now := d.clock.Now()
	for id, pr := range d.pending {
		if !d.fleet[pr.unitID].ServingLevel(pr.level) {
			continue
		}
		rec := model.CompletionRecord{
			UnitID:      pr.unitID,
			Level:       pr.level,
			IssuedAt:    pr.issuedAt,
			CompletedAt: now,
			Wait:        now.Sub(pr.issuedAt),
		}
		d.completions = append(d.completions, rec)
		if len(d.completions) > completionCap {
			d.completions = d.completions[len(d.completions)-completionCap:]
		}
		delete(d.pending, id)
		if err := d.sink.RecordCompletion(metrics.CompletionEvent{
			UnitID: rec.UnitID, Level: rec.Level, Wait: rec.Wait, Time: now,
		}); err != nil {
			d.log.Errorf("record completion: %v", err)
		}
	}
}

// Run drives the simulation at the given cadence until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := d.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := d.clock.Now()
			d.Advance(now.Sub(last))
			last = now
		}
	}
}

// Snapshot returns a deep copy of every unit's state, ordered by id.
func (d *Dispatcher) Snapshot() []model.UnitView {
	d.mu.Lock()
	defer d.mu.Unlock()
	views := make([]model.UnitView, len(d.fleet))
	for i, u := range d.fleet {
		views[i] = u.View()
	}
	var out []model.UnitView
	if err := deepcopy.Copy(&out, views); err != nil {
		d.log.Errorf("snapshot copy: %v", err)
		return nil
	}
	return out
}

// RecentCompletions returns up to the last ten served requests, newest
// last.
func (d *Dispatcher) RecentCompletions() []model.CompletionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.CompletionRecord, len(d.completions))
	copy(out, d.completions)
	return out
}

// PendingCount reports the number of requests awaiting arrival.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
