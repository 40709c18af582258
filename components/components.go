// Package components defines the agent data model for the simulation.
package components

import "math"

// AgentID identifies an agent for the lifetime of a process.
type AgentID uint64

// MaxAge is the oldest raw age an agent can be created with.
const MaxAge = 82

// AgeCategory is an opaque bucket derived from raw age.
// The values index the mobility table and statistics; they are not a ranking.
type AgeCategory uint8

const (
	CategoryAdult   AgeCategory = 1 // 15-64
	CategoryElderly AgeCategory = 2 // 65-82
	CategoryYouth   AgeCategory = 3 // 5-14
	CategoryInfant  AgeCategory = 4 // 0-4
)

// NumCategories is the number of age categories.
const NumCategories = 4

// Categories lists every age category in key order.
var Categories = [NumCategories]AgeCategory{CategoryAdult, CategoryElderly, CategoryYouth, CategoryInfant}

// CategoryForAge maps a raw age to its category.
func CategoryForAge(rawAge int) AgeCategory {
	switch {
	case rawAge <= 4:
		return CategoryInfant
	case rawAge <= 14:
		return CategoryYouth
	case rawAge <= 64:
		return CategoryAdult
	default:
		return CategoryElderly
	}
}

// Index returns the zero-based slot for the category (category 1 -> 0).
func (c AgeCategory) Index() int {
	return int(c) - 1
}

// Valid reports whether c is one of the four categories.
func (c AgeCategory) Valid() bool {
	return c >= CategoryAdult && c <= CategoryInfant
}

// String returns the display name for an AgeCategory.
func (c AgeCategory) String() string {
	switch c {
	case CategoryAdult:
		return "adult"
	case CategoryElderly:
		return "elderly"
	case CategoryYouth:
		return "youth"
	case CategoryInfant:
		return "infant"
	}
	return "unknown"
}

// SusceptibilityForAge returns e^(-age/10), a multiplier in (0, 1].
func SusceptibilityForAge(rawAge int) float64 {
	return math.Exp(-float64(rawAge) / 10)
}

// MobilityTable maps an age category to its mobility coefficient (beta).
type MobilityTable map[AgeCategory]float64

// DefaultMobility returns the stock coefficients {1:1, 2:2, 3:3, 4:4}.
func DefaultMobility() MobilityTable {
	return MobilityTable{
		CategoryAdult:   1,
		CategoryElderly: 2,
		CategoryYouth:   3,
		CategoryInfant:  4,
	}
}

// AgentSummary is the read-only view of an occupant handed to observers.
type AgentSummary struct {
	ID       AgentID     `json:"id"`
	State    HealthState `json:"state"`
	Category AgeCategory `json:"category"`
}

// SiteView is the read-only occupancy of one lattice site.
type SiteView struct {
	Site      int            `json:"site"`
	Occupants []AgentSummary `json:"occupants"`
}

// Counts tallies occupants of the view by health state.
func (v SiteView) Counts() (healthy, infected, dead int) {
	for _, o := range v.Occupants {
		switch o.State {
		case Healthy:
			healthy++
		case Asymptomatic, Symptomatic:
			infected++
		case Dead:
			dead++
		}
	}
	return healthy, infected, dead
}
