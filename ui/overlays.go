package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayLabels    OverlayID = "labels"
	OverlayGrid      OverlayID = "grid"
	OverlayChart     OverlayID = "chart"
	OverlayInspector OverlayID = "inspector"
	OverlayPerf      OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "L")
	Category    string      // Grouping (e.g., "lattice", "panels")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays. Labels and grid start enabled.
func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayLabels,
		Name:        "Site Labels",
		Description: "Show infected|healthy counts per site",
		Key:         rl.KeyL,
		KeyLabel:    "L",
		Category:    "lattice",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayGrid,
		Name:        "Grid Lines",
		Description: "Outline every site",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "lattice",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayChart,
		Name:        "Infection Chart",
		Description: "Currently infected per age category over time",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "panels",
		Exclusive:   []OverlayID{OverlayPerf},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Phase Timing",
		Description: "Average time spent in each tick phase",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "panels",
		Exclusive:   []OverlayID{OverlayChart},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayInspector,
		Name:        "Site Inspector",
		Description: "List the occupants of the hovered site",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "panels",
	})

	r.enabled[OverlayLabels] = true
	r.enabled[OverlayGrid] = true
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}
