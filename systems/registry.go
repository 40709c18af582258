package systems

// SystemInfo describes a tick phase for UI display.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this phase does
	Category    string // Grouping (e.g., "phase", "internal")
}

// Phase IDs in execution order. The order of a tick is fixed.
const (
	PhaseInfection   = "infection"
	PhaseProgression = "progression"
	PhaseMovement    = "movement"
	PhaseInflux      = "influx"
	PhaseTelemetry   = "telemetry"
)

// SystemRegistry holds metadata about all phases.
// This centralizes naming so the UI and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known phases.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known phases to the registry.
// Update this when adding new phases.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: PhaseInfection, Name: "Infection", Description: "Infectious agents expose their site and neighbors", Category: "phase"})
	r.Register(SystemInfo{ID: PhaseProgression, Name: "Progression", Description: "Advances disease clocks and records deaths", Category: "phase"})
	r.Register(SystemInfo{ID: PhaseMovement, Name: "Movement", Description: "One agent attempts to change site", Category: "phase"})
	r.Register(SystemInfo{ID: PhaseInflux, Name: "Influx", Description: "A new healthy agent may arrive", Category: "phase"})

	r.Register(SystemInfo{ID: PhaseTelemetry, Name: "Telemetry", Description: "Snapshots statistics and notifies observers", Category: "internal"})
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// ByCategory returns phases filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// IDs returns all phase IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
