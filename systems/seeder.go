package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/contagion/components"
)

// Recorder receives the population events that drive the statistics.
type Recorder interface {
	RecordCreated(c components.AgeCategory)
	RecordInfection(c components.AgeCategory)
	RecordDeath(c components.AgeCategory)
}

// SeedParams configures the initial population.
type SeedParams struct {
	Density         float64
	InitialInfected int
}

// SeedResult describes the population placed by Seed.
type SeedResult struct {
	Created  int
	Infected []*components.Agent
}

// Seed creates floor(NumSites·Density) agents at uniformly random sites and
// seeds InitialInfected of them, chosen without replacement by creation order.
func Seed(lat *Lattice, ids *components.IDAllocator, rng *rand.Rand, p SeedParams, rec Recorder) (SeedResult, error) {
	total := int(math.Floor(float64(lat.NumSites()) * p.Density))
	if p.InitialInfected < 0 || p.InitialInfected > total {
		return SeedResult{}, fmt.Errorf("seeding %d infected into a population of %d", p.InitialInfected, total)
	}

	infected := chooseIndices(rng, total, p.InitialInfected)
	res := SeedResult{Created: total, Infected: make([]*components.Agent, 0, p.InitialInfected)}

	for i := 0; i < total; i++ {
		a := components.SpawnAgent(ids, rng, rng.Intn(lat.NumSites()))
		rec.RecordCreated(a.Category)
		if infected[i] {
			a.SeedInfection()
			rec.RecordInfection(a.Category)
			res.Infected = append(res.Infected, a)
		}
		lat.Place(a)
	}
	return res, nil
}

// chooseIndices picks k distinct indices from [0,n) with a partial
// Fisher-Yates shuffle.
func chooseIndices(rng *rand.Rand, n, k int) map[int]bool {
	chosen := make(map[int]bool, k)
	if k == 0 {
		return chosen
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
		chosen[pool[i]] = true
	}
	return chosen
}
