package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Heading is the travel direction of a unit.
type Heading int

const (
	HeadingNone Heading = iota
	HeadingUp
	HeadingDown
)

func (h Heading) String() string {
	switch h {
	case HeadingUp:
		return "up"
	case HeadingDown:
		return "down"
	default:
		return "none"
	}
}

// ParseHeading converts a wire value ("up", "down", "none", "") into a Heading.
func ParseHeading(s string) (Heading, error) {
	switch strings.ToLower(s) {
	case "up":
		return HeadingUp, nil
	case "down":
		return HeadingDown, nil
	case "none", "":
		return HeadingNone, nil
	}
	return HeadingNone, fmt.Errorf("unknown heading %q", s)
}

func (h Heading) MarshalJSON() ([]byte, error) { return json.Marshal(h.String()) }

func (h *Heading) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHeading(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Phase is a unit's position in the motion and door state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMoving
	PhaseDoorOpening
	PhaseDoorOpen
	PhaseDoorClosing
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMoving:
		return "moving"
	case PhaseDoorOpening:
		return "door_opening"
	case PhaseDoorOpen:
		return "door_open"
	case PhaseDoorClosing:
		return "door_closing"
	case PhaseSettled:
		return "settled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ParsePhase converts a wire value back into a Phase.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(s) {
	case "idle", "":
		return PhaseIdle, nil
	case "moving":
		return PhaseMoving, nil
	case "door_opening":
		return PhaseDoorOpening, nil
	case "door_open":
		return PhaseDoorOpen, nil
	case "door_closing":
		return PhaseDoorClosing, nil
	case "settled":
		return PhaseSettled, nil
	}
	return PhaseIdle, fmt.Errorf("unknown phase %q", s)
}

func (p Phase) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// UnitView is a read-only snapshot of one unit, safe to hand to transports.
type UnitView struct {
	ID           int     `json:"id"`
	Position     float64 `json:"position"`
	Destination  *int    `json:"destination,omitempty"`
	Phase        Phase   `json:"phase"`
	Heading      Heading `json:"heading"`
	DoorOpen     bool    `json:"door_open"`
	PendingStops []int   `json:"pending_stops"`
}

// CompletionRecord describes one served request, kept for wait-time analytics.
type CompletionRecord struct {
	UnitID      int           `json:"unit_id"`
	Level       int           `json:"level"`
	IssuedAt    time.Time     `json:"issued_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Wait        time.Duration `json:"wait_ns"`
}

// HallCall is a landing request arriving over the command channel.
type HallCall struct {
	Level   int     `json:"level"`
	Heading Heading `json:"heading"`
}

// CabSelect is a level selection made inside a specific unit.
type CabSelect struct {
	UnitID int `json:"unit_id"`
	Level  int `json:"level"`
}

// ArrivalEvent is emitted when a unit reaches a destination and starts
// opening its doors.
type ArrivalEvent struct {
	UnitID int       `json:"unit_id"`
	Level  int       `json:"level"`
	Time   time.Time `json:"time"`
}
