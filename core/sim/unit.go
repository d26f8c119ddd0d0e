package sim

import (
	"math"
	"sync"
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

// dwellTime is how long a unit rests after the doors close before taking
// its next stop. Independent of the configured door cycle.
const dwellTime = 2 * time.Second

// ArrivalFunc is invoked synchronously when a unit reaches a destination
// and starts opening its doors. It must not block and must not call back
// into the unit.
type ArrivalFunc func(unitID, level int)

// UnitConfig holds the physical parameters shared by all units of a fleet.
type UnitConfig struct {
	// SpeedLevelsPerSec is the travel speed in levels per second.
	SpeedLevelsPerSec float64
	// DoorCycle is the total duration of one open-hold-close door sequence.
	DoorCycle time.Duration
}

// Unit models one transport car: its position, its door state machine and
// its pending stop queue. All mutation happens under the unit mutex; the
// dispatcher only touches the queue through Enqueue.
type Unit struct {
	mu sync.Mutex

	id      int
	pos     float64
	dest    int
	hasDest bool
	phase   model.Phase
	heading model.Heading
	stops   []int

	// phaseLeft is the time remaining in the current door or dwell phase.
	// Door sequencing is driven by the tick path decrementing this field,
	// so the state machine is testable without real timers.
	phaseLeft time.Duration

	speed     float64
	doorCycle time.Duration
	onArrival ArrivalFunc
}

// NewUnit creates an idle unit resting at startLevel.
func NewUnit(id int, startLevel int, cfg UnitConfig, onArrival ArrivalFunc) *Unit {
	return &Unit{
		id:        id,
		pos:       float64(startLevel),
		phase:     model.PhaseIdle,
		heading:   model.HeadingNone,
		speed:     cfg.SpeedLevelsPerSec,
		doorCycle: cfg.DoorCycle,
		onArrival: onArrival,
	}
}

// ID returns the stable unit identity.
func (u *Unit) ID() int { return u.id }

// Step advances the unit by dt: position while moving, otherwise the
// door/dwell phase countdown. Leftover time from a finished phase carries
// into the next one so cadence does not skew the sequence.
func (u *Unit) Step(dt time.Duration) {
	u.mu.Lock()
	arrived := -1

	switch u.phase {
	case model.PhaseIdle:
		u.takeNextStop()
	case model.PhaseMoving:
		arrived = u.move(dt)
	case model.PhaseDoorOpening:
		if u.elapse(dt) {
			u.phase = model.PhaseDoorOpen
			u.phaseLeft += u.doorCycle / 2
		}
	case model.PhaseDoorOpen:
		if u.elapse(dt) {
			u.phase = model.PhaseDoorClosing
			u.phaseLeft += u.doorCycle / 4
		}
	case model.PhaseDoorClosing:
		if u.elapse(dt) {
			u.phase = model.PhaseSettled
			u.phaseLeft += dwellTime
		}
	case model.PhaseSettled:
		if u.elapse(dt) {
			u.phaseLeft = 0
			if !u.takeNextStop() {
				u.phase = model.PhaseIdle
				u.heading = model.HeadingNone
			}
		}
	}
	u.mu.Unlock()

	if arrived >= 0 && u.onArrival != nil {
		u.onArrival(u.id, arrived)
	}
}

// elapse decrements the phase countdown and reports whether it expired.
func (u *Unit) elapse(dt time.Duration) bool {
	u.phaseLeft -= dt
	return u.phaseLeft <= 0
}

// move advances toward the destination, clamping on arrival. Returns the
// reached level, or -1 while still underway.
func (u *Unit) move(dt time.Duration) int {
	if !u.hasDest {
		// Should not happen; recover by going idle.
		u.phase = model.PhaseIdle
		u.heading = model.HeadingNone
		return -1
	}
	target := float64(u.dest)
	travel := u.speed * dt.Seconds()
	if math.Abs(target-u.pos) > travel {
		if target > u.pos {
			u.pos += travel
		} else {
			u.pos -= travel
		}
		return -1
	}
	level := u.dest
	u.pos = target
	u.hasDest = false
	u.phase = model.PhaseDoorOpening
	u.phaseLeft = u.doorCycle / 4
	return level
}

// takeNextStop dequeues the head of the stop queue and commits to it.
// Caller holds the mutex.
func (u *Unit) takeNextStop() bool {
	if len(u.stops) == 0 {
		return false
	}
	u.dest = u.stops[0]
	u.stops = u.stops[1:]
	u.hasDest = true
	switch {
	case float64(u.dest) > u.pos:
		u.heading = model.HeadingUp
	case float64(u.dest) < u.pos:
		u.heading = model.HeadingDown
	}
	u.phase = model.PhaseMoving
	return true
}

// Enqueue adds a stop, keeping the queue sorted along the current heading.
// Duplicate levels and the current destination are ignored, as is the
// unit's own resting level while idle.
func (u *Unit) Enqueue(level int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.phase == model.PhaseIdle && float64(level) == u.pos {
		return
	}
	if u.hasDest && u.dest == level {
		return
	}
	for _, s := range u.stops {
		if s == level {
			return
		}
	}
	if len(u.stops) == 0 || u.heading == model.HeadingNone {
		u.stops = append(u.stops, level)
		return
	}
	at := len(u.stops)
	for i, s := range u.stops {
		if (u.heading == model.HeadingUp && s > level) ||
			(u.heading == model.HeadingDown && s < level) {
			at = i
			break
		}
	}
	u.stops = append(u.stops, 0)
	copy(u.stops[at+1:], u.stops[at:])
	u.stops[at] = level
}

// DistanceTo returns the absolute distance to level in levels.
func (u *Unit) DistanceTo(level int) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return math.Abs(u.pos - float64(level))
}

// IsHeadingToward reports whether the unit's current travel direction
// brings it closer to level.
func (u *Unit) IsHeadingToward(level int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.headingToward(level)
}

func (u *Unit) headingToward(level int) bool {
	switch u.heading {
	case model.HeadingUp:
		return float64(level) > u.pos
	case model.HeadingDown:
		return float64(level) < u.pos
	}
	return false
}

// EstimatedArrival estimates the time to reach level: raw travel time plus
// one full door cycle per intervening queued stop along the heading.
func (u *Unit) EstimatedArrival(level int) time.Duration {
	u.mu.Lock()
	defer u.mu.Unlock()

	travel := math.Abs(u.pos-float64(level)) / u.speed
	stops := 0
	if u.heading != model.HeadingNone {
		for _, s := range u.stops {
			between := (u.heading == model.HeadingUp && float64(s) > u.pos && s < level) ||
				(u.heading == model.HeadingDown && float64(s) < u.pos && s > level)
			if between {
				stops++
			}
		}
	}
	return time.Duration(travel*float64(time.Second)) + time.Duration(stops)*u.doorCycle
}

// Workload counts queued stops plus the in-flight destination.
func (u *Unit) Workload() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := len(u.stops)
	if u.hasDest {
		n++
	}
	return n
}

// Phase returns the current state machine phase.
func (u *Unit) Phase() model.Phase {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.phase
}

// Heading returns the current travel direction.
func (u *Unit) Heading() model.Heading {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.heading
}

// Position returns the current, possibly fractional, level.
func (u *Unit) Position() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pos
}

// Destination returns the level currently traveled to, if any.
func (u *Unit) Destination() (int, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.dest, u.hasDest
}

// ServingLevel reports whether the unit sits at level with its doors
// opening or open, which is how the dispatcher correlates pending
// requests with arrivals.
func (u *Unit) ServingLevel(level int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.phase != model.PhaseDoorOpening && u.phase != model.PhaseDoorOpen {
		return false
	}
	return int(math.Round(u.pos)) == level
}

// View captures the unit state for snapshots. The stop slice references
// internal storage; the dispatcher deep-copies views before handing them
// out.
func (u *Unit) View() model.UnitView {
	u.mu.Lock()
	defer u.mu.Unlock()
	v := model.UnitView{
		ID:           u.id,
		Position:     u.pos,
		Phase:        u.phase,
		Heading:      u.heading,
		DoorOpen:     u.phase == model.PhaseDoorOpen || u.phase == model.PhaseDoorClosing,
		PendingStops: u.stops,
	}
	if u.hasDest {
		d := u.dest
		v.Destination = &d
	}
	return v
}
