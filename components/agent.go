package components

import (
	"math"
	"math/rand"
)

// Roll draws uniformly from the 100 values {0.01, 0.02, ..., 1.00}.
// Every probabilistic decision in the simulation uses this draw.
func Roll(rng *rand.Rand) float64 {
	return float64(rng.Intn(100)+1) / 100
}

// IDAllocator hands out monotonically increasing agent IDs.
// The engine owns one; IDs are never reused within it.
type IDAllocator struct {
	next AgentID
}

// Next returns the next unused ID.
func (a *IDAllocator) Next() AgentID {
	id := a.next
	a.next++
	return id
}

// Issued returns how many IDs have been handed out.
func (a *IDAllocator) Issued() uint64 {
	return uint64(a.next)
}

// Agent is one individual on the lattice.
type Agent struct {
	ID             AgentID
	RawAge         int
	Category       AgeCategory
	Susceptibility float64
	Health         Health
	Location       int
}

// NewAgent creates a healthy agent with traits derived from rawAge.
func NewAgent(id AgentID, rawAge, location int) *Agent {
	return &Agent{
		ID:             id,
		RawAge:         rawAge,
		Category:       CategoryForAge(rawAge),
		Susceptibility: SusceptibilityForAge(rawAge),
		Location:       location,
	}
}

// SpawnAgent creates a healthy agent with a uniformly drawn age in [0, MaxAge].
func SpawnAgent(ids *IDAllocator, rng *rand.Rand, location int) *Agent {
	return NewAgent(ids.Next(), rng.Intn(MaxAge+1), location)
}

// State returns the agent's health state.
func (a *Agent) State() HealthState {
	return a.Health.state
}

// IsInfectious reports whether the agent can transmit.
func (a *Agent) IsInfectious() bool {
	return a.Health.state == Asymptomatic || a.Health.state == Symptomatic
}

// IsSymptomatic reports whether the agent shows symptoms.
func (a *Agent) IsSymptomatic() bool {
	return a.Health.state == Symptomatic
}

// IsAlive reports whether the agent has not died.
func (a *Agent) IsAlive() bool {
	return a.Health.state != Dead
}

// Summary returns the read-only view of the agent.
func (a *Agent) Summary() AgentSummary {
	return AgentSummary{ID: a.ID, State: a.Health.state, Category: a.Category}
}

// SeedInfection marks the agent as a fresh infection regardless of its state.
// Used only for placing initial cases.
func (a *Agent) SeedInfection() {
	a.Health = infected()
}

// Expose attempts to infect a healthy agent with transmission probability lambda
// scaled by the agent's susceptibility.
func (a *Agent) Expose(rng *rand.Rand, lambda float64) bool {
	if a.Health.state != Healthy {
		return false
	}
	if Roll(rng) <= lambda*a.Susceptibility {
		a.Health = infected()
		return true
	}
	return false
}

// Advance moves an infected agent one day along its disease course.
// Returns true only on the tick the agent dies.
func (a *Agent) Advance(asymLen, symptLen int) bool {
	h := &a.Health
	if h.state == Healthy || h.state == Dead {
		return false
	}

	h.days++
	switch h.state {
	case Asymptomatic:
		if h.days > asymLen {
			h.state = Symptomatic
		}
	case Symptomatic:
		if h.days > asymLen+symptLen {
			*h = Health{state: Dead}
			return true
		}
	}
	return false
}

// MoveProbability is the acceptance probability for a move that changes the
// same-age count from nOrigin to nDest under coefficient beta.
// Moves toward equal or denser same-age company are always accepted for
// beta >= 0; moves toward sparser company decay as e^(-beta*|delta|).
func MoveProbability(nOrigin, nDest int, beta float64) float64 {
	delta := float64(nDest - nOrigin)
	if delta >= 0 {
		return math.Min(1, math.Exp(beta*delta))
	}
	return math.Exp(beta * delta)
}

// AttemptMove tries to relocate the agent to destination.
// Symptomatic agents are quarantined and dead agents are inert.
func (a *Agent) AttemptMove(rng *rand.Rand, nOrigin, nDest, destination int, mobility MobilityTable) bool {
	if a.Health.state == Symptomatic || a.Health.state == Dead {
		return false
	}

	pAccept := MoveProbability(nOrigin, nDest, mobility[a.Category])
	if Roll(rng) <= pAccept {
		a.Location = destination
		return true
	}
	return false
}
