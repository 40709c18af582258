package systems

import (
	"math/rand"

	"github.com/pthm-cable/contagion/components"
)

// ApplyInflux adds one healthy agent at a uniformly random site when the
// 100-value draw is strictly below rate. Returns the new agent or nil.
func ApplyInflux(lat *Lattice, ids *components.IDAllocator, rng *rand.Rand, rate float64, rec Recorder) *components.Agent {
	if components.Roll(rng) >= rate {
		return nil
	}
	a := components.SpawnAgent(ids, rng, rng.Intn(lat.NumSites()))
	rec.RecordCreated(a.Category)
	lat.Place(a)
	return a
}
