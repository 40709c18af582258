package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/contagion/components"
)

// maxListedOccupants bounds the occupant list of the inspector.
const maxListedOccupants = 12

// Inspector renders the occupants of one site.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for a site at the given coordinates.
func (ins *Inspector) Draw(v components.SiteView, row, col int) {
	r := ins.renderer
	padding := r.Theme.Padding

	listed := len(v.Occupants)
	if listed > maxListedOccupants {
		listed = maxListedOccupants
	}
	panelHeight := int32(listed+6)*r.Theme.LineHeight + padding*2
	r.DrawPanel(ins.x, ins.y, ins.width, panelHeight)

	x := ins.x + padding
	y := ins.y + padding

	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Site %d (%d, %d)", v.Site, row, col))
	healthy, infected, dead := v.Counts()
	y = r.DrawLabelValue(x, y, "Occupants", fmt.Sprint(len(v.Occupants)))
	y = r.DrawLabelValue(x, y, "Infected", fmt.Sprint(infected))
	y = r.DrawLabelValue(x, y, "Healthy", fmt.Sprint(healthy))
	if dead > 0 {
		y = r.DrawLabelValue(x, y, "Dead", fmt.Sprint(dead))
	}
	y += 4

	for _, o := range v.Occupants[:listed] {
		rl.DrawText(
			fmt.Sprintf("#%-6d %-8s %s", o.ID, o.Category, o.State),
			x, y, r.Theme.FontSize, stateColor(o.State),
		)
		y += r.Theme.LineHeight
	}
	if listed < len(v.Occupants) {
		r.DrawLabelValue(x, y, "...", fmt.Sprintf("%d more", len(v.Occupants)-listed))
	}
}

func stateColor(s components.HealthState) rl.Color {
	switch s {
	case components.Symptomatic:
		return StatusColors[StatusSymptomatic]
	case components.Asymptomatic:
		return StatusColors[StatusAsymptomatic]
	case components.Healthy:
		return StatusColors[StatusHealthy]
	}
	return StatusColors[StatusEmpty]
}
