package systems

import (
	"math/rand"

	"github.com/pthm-cable/contagion/components"
)

// InfectionSystem runs the exposure phase.
type InfectionSystem struct {
	// Reusable buffer to avoid allocations
	infected []*components.Agent
}

// NewInfectionSystem creates a new infection system.
func NewInfectionSystem() *InfectionSystem {
	return &InfectionSystem{
		infected: make([]*components.Agent, 0, 16),
	}
}

// Update lets every infectious occupant expose every occupant of its own
// site and of each neighboring site. A victim can be targeted by several
// sources in one tick; only its changed state stops later exposures.
// The returned slice is reused by the next call.
func (s *InfectionSystem) Update(lat *Lattice, rng *rand.Rand, lambda float64, rec Recorder) []*components.Agent {
	s.infected = s.infected[:0]

	for id := range lat.sites {
		site := &lat.sites[id]
		for _, src := range site.Occupants {
			if !src.IsInfectious() {
				continue
			}
			s.exposeSite(site, rng, lambda, rec)
			for _, n := range site.neighbors {
				s.exposeSite(&lat.sites[n.Site], rng, lambda, rec)
			}
		}
	}
	return s.infected
}

func (s *InfectionSystem) exposeSite(site *Site, rng *rand.Rand, lambda float64, rec Recorder) {
	for _, victim := range site.Occupants {
		if victim.Expose(rng, lambda) {
			rec.RecordInfection(victim.Category)
			s.infected = append(s.infected, victim)
		}
	}
}

// SpreadInfection runs one exposure phase without a reusable buffer.
func SpreadInfection(lat *Lattice, rng *rand.Rand, lambda float64, rec Recorder) []*components.Agent {
	return NewInfectionSystem().Update(lat, rng, lambda, rec)
}
