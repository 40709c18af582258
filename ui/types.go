// Package ui draws the lattice, its statistics and the playback controls
// with raylib. Nothing in this package mutates the simulation; it reads
// engine frames and occupancy views only.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	GridLine       rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 200, G: 100, B: 100, A: 255},
		GridLine:       rl.Color{R: 15, G: 15, B: 20, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     90,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

// SiteStatus is the colouring class of a lattice site.
type SiteStatus uint8

const (
	StatusEmpty SiteStatus = iota // no occupants, or only dead ones
	StatusHealthy
	StatusAsymptomatic
	StatusSymptomatic
)

// StatusColors maps each site status to its fill colour.
var StatusColors = map[SiteStatus]rl.Color{
	StatusEmpty:        rl.Gray,
	StatusHealthy:      rl.Green,
	StatusAsymptomatic: rl.Orange,
	StatusSymptomatic:  rl.Red,
}

// String returns the legend label for the status.
func (s SiteStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusAsymptomatic:
		return "asymptomatic"
	case StatusSymptomatic:
		return "symptomatic"
	}
	return "dead / empty"
}
