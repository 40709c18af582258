// Package systems provides the lattice and the per-tick simulation phases.
package systems

import (
	"fmt"

	"github.com/pthm-cable/contagion/components"
)

// DiagonalWeight is the informational distance weight of a diagonal neighbor.
const DiagonalWeight = 1.41

// Neighbor is an adjacent site with its distance weight.
// Weights are carried for display and analysis; no phase reads them.
type Neighbor struct {
	Site   int
	Weight float64
}

// Site is one cell of the grid.
type Site struct {
	ID        int
	Occupants []*components.Agent
	neighbors []Neighbor
}

// Lattice is an L×L grid with 8-connectivity clipped at the border.
// Topology is fixed at construction; only occupant slices change.
type Lattice struct {
	size  int
	sites []Site
}

// NewLattice creates an empty size×size lattice. Site ids are row-major
// (row*size + col) and each site's neighbors are listed in row-major order
// of the surrounding 3×3 window.
func NewLattice(size int) *Lattice {
	sites := make([]Site, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			id := row*size + col
			sites[id] = Site{
				ID:        id,
				Occupants: make([]*components.Agent, 0, 4),
				neighbors: neighborsOf(row, col, size),
			}
		}
	}
	return &Lattice{size: size, sites: sites}
}

func neighborsOf(row, col, size int) []Neighbor {
	out := make([]Neighbor, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if r < 0 || r >= size || c < 0 || c >= size {
				continue
			}
			w := 1.0
			if dr != 0 && dc != 0 {
				w = DiagonalWeight
			}
			out = append(out, Neighbor{Site: r*size + c, Weight: w})
		}
	}
	return out
}

// Size returns L.
func (l *Lattice) Size() int {
	return l.size
}

// NumSites returns L².
func (l *Lattice) NumSites() int {
	return len(l.sites)
}

// Site returns the site with the given id.
func (l *Lattice) Site(id int) *Site {
	return &l.sites[id]
}

// Neighbors returns the adjacent sites of id. The slice must not be modified.
func (l *Lattice) Neighbors(id int) []Neighbor {
	return l.sites[id].neighbors
}

// Coordinates returns the row and column of a site id.
func (l *Lattice) Coordinates(id int) (row, col int) {
	return id / l.size, id % l.size
}

// Place appends an agent to the site named by its Location.
func (l *Lattice) Place(a *components.Agent) {
	s := &l.sites[a.Location]
	s.Occupants = append(s.Occupants, a)
}

// Remove deletes the occupant at index from a site, preserving the order of
// the others, and returns it.
func (l *Lattice) Remove(site, index int) *components.Agent {
	s := &l.sites[site]
	a := s.Occupants[index]
	copy(s.Occupants[index:], s.Occupants[index+1:])
	s.Occupants[len(s.Occupants)-1] = nil
	s.Occupants = s.Occupants[:len(s.Occupants)-1]
	return a
}

// Relocate moves the occupant at index of site from to the end of site to
// and updates its Location.
func (l *Lattice) Relocate(from, index, to int) *components.Agent {
	a := l.Remove(from, index)
	a.Location = to
	l.Place(a)
	return a
}

// OccupiedSites appends the ids of all non-empty sites to dst and returns it.
func (l *Lattice) OccupiedSites(dst []int) []int {
	for i := range l.sites {
		if len(l.sites[i].Occupants) > 0 {
			dst = append(dst, i)
		}
	}
	return dst
}

// Population returns the number of agents held in occupant collections.
func (l *Lattice) Population() int {
	n := 0
	for i := range l.sites {
		n += len(l.sites[i].Occupants)
	}
	return n
}

// View returns a copy of every site's occupancy, indexed by site id.
func (l *Lattice) View() []components.SiteView {
	views := make([]components.SiteView, len(l.sites))
	for i := range l.sites {
		occ := l.sites[i].Occupants
		summaries := make([]components.AgentSummary, len(occ))
		for j, a := range occ {
			summaries[j] = a.Summary()
		}
		views[i] = components.SiteView{Site: i, Occupants: summaries}
	}
	return views
}

// Verify checks that every occupant's Location names the site holding it and
// that no agent is held twice.
func (l *Lattice) Verify() error {
	seen := make(map[components.AgentID]int)
	for i := range l.sites {
		for _, a := range l.sites[i].Occupants {
			if a.Location != i {
				return fmt.Errorf("agent %d held by site %d has location %d", a.ID, i, a.Location)
			}
			if prev, ok := seen[a.ID]; ok {
				return fmt.Errorf("agent %d held by sites %d and %d", a.ID, prev, i)
			}
			seen[a.ID] = i
		}
	}
	return nil
}
