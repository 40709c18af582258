// Package telemetry provides epidemic statistics, milestones, and snapshots.
package telemetry

import "github.com/pthm-cable/contagion/components"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventInfection EventType = iota
	EventDeath
	EventArrival
	EventMove
)

// String returns the label stored with persisted events.
func (t EventType) String() string {
	switch t {
	case EventInfection:
		return "infection"
	case EventDeath:
		return "death"
	case EventArrival:
		return "arrival"
	case EventMove:
		return "move"
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type     EventType
	Tick     int
	AgentID  components.AgentID
	Category components.AgeCategory

	// Site where the event happened; for moves, the destination
	Site int
	// Origin site for move events
	From int
}

// NewInfectionEvent creates an infection event.
func NewInfectionEvent(tick int, a *components.Agent) Event {
	return Event{
		Type:     EventInfection,
		Tick:     tick,
		AgentID:  a.ID,
		Category: a.Category,
		Site:     a.Location,
		From:     -1,
	}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int, a *components.Agent) Event {
	return Event{
		Type:     EventDeath,
		Tick:     tick,
		AgentID:  a.ID,
		Category: a.Category,
		Site:     a.Location,
		From:     -1,
	}
}

// NewArrivalEvent creates an influx arrival event.
func NewArrivalEvent(tick int, a *components.Agent) Event {
	return Event{
		Type:     EventArrival,
		Tick:     tick,
		AgentID:  a.ID,
		Category: a.Category,
		Site:     a.Location,
		From:     -1,
	}
}

// NewMoveEvent creates an accepted move event.
func NewMoveEvent(tick int, id components.AgentID, cat components.AgeCategory, from, to int) Event {
	return Event{
		Type:     EventMove,
		Tick:     tick,
		AgentID:  id,
		Category: cat,
		Site:     to,
		From:     from,
	}
}
