package systems

import (
	"math/rand"

	"github.com/pthm-cable/contagion/components"
)

// MoveOutcome classifies the single movement attempt of a tick.
type MoveOutcome uint8

const (
	MoveNoOrigin   MoveOutcome = iota // no occupied site
	MoveNoNeighbor                    // origin has no neighbors (L=1)
	MoveBlocked                       // every candidate held a symptomatic agent
	MoveRejected                      // mover declined or is quarantined
	MoveAccepted
)

// String returns the label used in logs and CSV output.
func (o MoveOutcome) String() string {
	switch o {
	case MoveNoOrigin:
		return "no_origin"
	case MoveNoNeighbor:
		return "no_neighbor"
	case MoveBlocked:
		return "blocked"
	case MoveRejected:
		return "rejected"
	case MoveAccepted:
		return "accepted"
	}
	return "unknown"
}

// MoveReport describes what the movement phase did.
type MoveReport struct {
	Outcome   MoveOutcome
	Agent     components.AgentID
	Category  components.AgeCategory
	From      int
	To        int
	Resamples int
}

// Moved reports whether an agent changed site.
func (r MoveReport) Moved() bool {
	return r.Outcome == MoveAccepted
}

// MovementSystem performs one movement attempt per tick.
type MovementSystem struct {
	Mobility     components.MobilityTable
	MaxResamples int

	// Reusable buffer to avoid allocations
	occupied []int
}

// NewMovementSystem creates a movement system.
func NewMovementSystem(mobility components.MobilityTable, maxResamples int) *MovementSystem {
	return &MovementSystem{
		Mobility:     mobility,
		MaxResamples: maxResamples,
	}
}

// Update picks a uniformly random occupied origin, a neighbor free of
// symptomatic agents (resampling at most MaxResamples times) and a uniformly
// random mover, then lets the mover decide.
func (s *MovementSystem) Update(lat *Lattice, rng *rand.Rand) MoveReport {
	s.occupied = lat.OccupiedSites(s.occupied[:0])
	if len(s.occupied) == 0 {
		return MoveReport{Outcome: MoveNoOrigin, From: -1, To: -1}
	}

	origin := s.occupied[rng.Intn(len(s.occupied))]
	report := MoveReport{From: origin, To: -1}

	neighbors := lat.Neighbors(origin)
	if len(neighbors) == 0 {
		report.Outcome = MoveNoNeighbor
		return report
	}

	dest := neighbors[rng.Intn(len(neighbors))].Site
	for hasSymptomatic(lat.Site(dest)) {
		if report.Resamples == s.MaxResamples {
			report.Outcome = MoveBlocked
			return report
		}
		report.Resamples++
		dest = neighbors[rng.Intn(len(neighbors))].Site
	}
	report.To = dest

	occupants := lat.Site(origin).Occupants
	index := rng.Intn(len(occupants))
	mover := occupants[index]
	report.Agent = mover.ID
	report.Category = mover.Category

	nOrigin := countCategory(occupants, mover.Category)
	nDest := countCategory(lat.Site(dest).Occupants, mover.Category)

	if !mover.AttemptMove(rng, nOrigin, nDest, dest, s.Mobility) {
		report.Outcome = MoveRejected
		return report
	}
	lat.Relocate(origin, index, dest)
	report.Outcome = MoveAccepted
	return report
}

// AttemptMovement runs one movement phase without a reusable buffer.
func AttemptMovement(lat *Lattice, rng *rand.Rand, mobility components.MobilityTable, maxResamples int) MoveReport {
	return NewMovementSystem(mobility, maxResamples).Update(lat, rng)
}

func hasSymptomatic(site *Site) bool {
	for _, a := range site.Occupants {
		if a.IsSymptomatic() {
			return true
		}
	}
	return false
}

func countCategory(occupants []*components.Agent, c components.AgeCategory) int {
	n := 0
	for _, a := range occupants {
		if a.Category == c {
			n++
		}
	}
	return n
}
