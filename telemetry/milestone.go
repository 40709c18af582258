package telemetry

import (
	"fmt"
	"log/slog"
)

// MilestoneType identifies the type of milestone.
type MilestoneType string

const (
	MilestoneFirstDeath          MilestoneType = "first_death"
	MilestoneInfectionSurge      MilestoneType = "infection_surge"
	MilestoneEpidemicPeak        MilestoneType = "epidemic_peak"
	MilestoneInfectionExtinction MilestoneType = "infection_extinction"
	MilestonePopulationCollapse  MilestoneType = "population_collapse"
)

// Milestone is a notable moment detected from window statistics.
type Milestone struct {
	Type        MilestoneType `csv:"type" json:"type"`
	Tick        int           `csv:"tick" json:"tick"`
	Description string        `csv:"description" json:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"tick", m.Tick,
		"description", m.Description,
	)
}

// MilestoneDetector watches window statistics for epidemic milestones.
// Every type except infection_surge fires at most once per run.
type MilestoneDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// Thresholds
	peakDropPercent  float64
	collapseFraction float64

	// State tracking
	fired        map[MilestoneType]bool
	peakActive   int // highest active infection count seen
	peakTick     int
	everInfected bool
}

// NewMilestoneDetector creates a detector with the given history size and
// thresholds.
func NewMilestoneDetector(historySize int, peakDropPercent, collapseFraction float64) *MilestoneDetector {
	if historySize < 3 {
		historySize = 3 // minimum for surge detection
	}
	return &MilestoneDetector{
		history:          make([]WindowStats, historySize),
		historySize:      historySize,
		peakDropPercent:  peakDropPercent,
		collapseFraction: collapseFraction,
		fired:            make(map[MilestoneType]bool),
	}
}

// Check analyzes the latest stats and returns any triggered milestones.
func (md *MilestoneDetector) Check(stats WindowStats) []Milestone {
	var milestones []Milestone

	for _, check := range []func(WindowStats) *Milestone{
		md.checkFirstDeath,
		md.checkInfectionSurge,
		md.checkEpidemicPeak,
		md.checkInfectionExtinction,
		md.checkPopulationCollapse,
	} {
		if m := check(stats); m != nil {
			milestones = append(milestones, *m)
		}
	}

	md.addToHistory(stats)

	active := stats.ActiveInfections()
	if active > 0 {
		md.everInfected = true
	}
	if active > md.peakActive {
		md.peakActive = active
		md.peakTick = stats.WindowEndTick
	}

	return milestones
}

// once marks t as fired and reports whether it had not fired before.
func (md *MilestoneDetector) once(t MilestoneType) bool {
	if md.fired[t] {
		return false
	}
	md.fired[t] = true
	return true
}

func (md *MilestoneDetector) addToHistory(stats WindowStats) {
	md.history[md.historyIdx] = stats
	md.historyIdx = (md.historyIdx + 1) % md.historySize
	if md.historyIdx == 0 {
		md.historyFull = true
	}
}

func (md *MilestoneDetector) getHistory() []WindowStats {
	if md.historyFull {
		return md.history
	}
	return md.history[:md.historyIdx]
}

func (md *MilestoneDetector) checkFirstDeath(stats WindowStats) *Milestone {
	if stats.Dead == 0 || !md.once(MilestoneFirstDeath) {
		return nil
	}
	return &Milestone{
		Type:        MilestoneFirstDeath,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d death(s) by tick %d", stats.Dead, stats.WindowEndTick),
	}
}

func (md *MilestoneDetector) checkInfectionSurge(stats WindowStats) *Milestone {
	history := md.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.NewInfections
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.NewInfections) > avg*2.0 && stats.NewInfections >= 5 {
		return &Milestone{
			Type:        MilestoneInfectionSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d new infections is %.1fx average (%.1f)", stats.NewInfections, float64(stats.NewInfections)/avg, avg),
		}
	}
	return nil
}

func (md *MilestoneDetector) checkEpidemicPeak(stats WindowStats) *Milestone {
	if md.peakActive < 2 || md.fired[MilestoneEpidemicPeak] {
		return nil
	}

	drop := 1.0 - float64(stats.ActiveInfections())/float64(md.peakActive)
	if drop < md.peakDropPercent {
		return nil
	}
	md.once(MilestoneEpidemicPeak)
	return &Milestone{
		Type:        MilestoneEpidemicPeak,
		Tick:        md.peakTick,
		Description: fmt.Sprintf("Active infections peaked at %d and fell %.0f%% to %d", md.peakActive, drop*100, stats.ActiveInfections()),
	}
}

func (md *MilestoneDetector) checkInfectionExtinction(stats WindowStats) *Milestone {
	if !md.everInfected || stats.ActiveInfections() > 0 || !md.once(MilestoneInfectionExtinction) {
		return nil
	}
	return &Milestone{
		Type:        MilestoneInfectionExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No active infections after %d cumulative cases", stats.CumulativeInfected),
	}
}

func (md *MilestoneDetector) checkPopulationCollapse(stats WindowStats) *Milestone {
	if stats.Created == 0 {
		return nil
	}
	ratio := float64(stats.Alive) / float64(stats.Created)
	if ratio >= md.collapseFraction || !md.once(MilestonePopulationCollapse) {
		return nil
	}
	return &Milestone{
		Type:        MilestonePopulationCollapse,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Only %d of %d agents alive (%.0f%%)", stats.Alive, stats.Created, ratio*100),
	}
}
