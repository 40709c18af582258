package systems

import "github.com/pthm-cable/contagion/components"

// ProgressionSystem advances every infected agent by one day.
type ProgressionSystem struct {
	AsymptomaticLength int
	SymptomaticLength  int
	// RetainDead keeps dead agents in their site as inert occupants
	// instead of removing them.
	RetainDead bool

	died []*components.Agent
}

// NewProgressionSystem creates a progression system.
func NewProgressionSystem(asymLen, symptLen int, retainDead bool) *ProgressionSystem {
	return &ProgressionSystem{
		AsymptomaticLength: asymLen,
		SymptomaticLength:  symptLen,
		RetainDead:         retainDead,
		died:               make([]*components.Agent, 0, 8),
	}
}

// Update advances all occupants, records deaths and returns the agents that
// died this tick. The returned slice is reused by the next call.
func (s *ProgressionSystem) Update(lat *Lattice, rec Recorder) []*components.Agent {
	s.died = s.died[:0]

	for id := range lat.sites {
		site := &lat.sites[id]
		kept := site.Occupants[:0]
		for _, a := range site.Occupants {
			if a.Advance(s.AsymptomaticLength, s.SymptomaticLength) {
				rec.RecordDeath(a.Category)
				s.died = append(s.died, a)
				if !s.RetainDead {
					continue
				}
			}
			kept = append(kept, a)
		}
		for i := len(kept); i < len(site.Occupants); i++ {
			site.Occupants[i] = nil
		}
		site.Occupants = kept
	}
	return s.died
}

// ProgressDisease runs one progression phase without a reusable buffer.
func ProgressDisease(lat *Lattice, asymLen, symptLen int, retainDead bool, rec Recorder) []*components.Agent {
	return NewProgressionSystem(asymLen, symptLen, retainDead).Update(lat, rec)
}
