package dispatch

import (
	"fmt"
	"time"
)

// Config defines the fleet geometry and timing. A Dispatcher is built once
// per Config; changing any field means discarding the Dispatcher and
// constructing a fresh one.
type Config struct {
	// Units is the fleet size. Zero is valid and turns Assign into a no-op.
	Units int `json:"units"`
	// Levels is the number of addressable levels.
	Levels int `json:"levels"`
	// InitialLevel is where every unit rests at construction.
	InitialLevel int `json:"initial_level"`
	// SpeedLevelsPerSec is the travel speed in levels per second.
	SpeedLevelsPerSec float64 `json:"speed_levels_per_sec"`
	// DoorCycleSeconds is the total open-hold-close door duration.
	DoorCycleSeconds float64 `json:"door_cycle_seconds"`
	// TickMS is the cadence of the simulation tick loop in milliseconds.
	TickMS int `json:"tick_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Units == 0 {
		c.Units = 3
	}
	if c.Levels == 0 {
		c.Levels = 10
	}
	if c.SpeedLevelsPerSec == 0 {
		c.SpeedLevelsPerSec = 1
	}
	if c.DoorCycleSeconds == 0 {
		c.DoorCycleSeconds = 2
	}
	if c.TickMS == 0 {
		c.TickMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Units < 0 {
		return fmt.Errorf("units must not be negative")
	}
	if c.Levels <= 0 {
		return fmt.Errorf("levels must be positive")
	}
	if c.InitialLevel < 0 || c.InitialLevel >= c.Levels {
		return fmt.Errorf("initial_level %d outside [0, %d)", c.InitialLevel, c.Levels)
	}
	if c.SpeedLevelsPerSec <= 0 {
		return fmt.Errorf("speed_levels_per_sec must be positive")
	}
	if c.DoorCycleSeconds <= 0 {
		return fmt.Errorf("door_cycle_seconds must be positive")
	}
	if c.TickMS <= 0 {
		return fmt.Errorf("tick_ms must be positive")
	}
	return nil
}

// Tick returns the tick cadence as a duration.
func (c Config) Tick() time.Duration { return time.Duration(c.TickMS) * time.Millisecond }

// DoorCycle returns the door cycle as a duration.
func (c Config) DoorCycle() time.Duration {
	return time.Duration(c.DoorCycleSeconds * float64(time.Second))
}
