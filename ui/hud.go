package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/contagion/systems"
	"github.com/pthm-cable/contagion/telemetry"
)

// Title formats the window headline: "tick / t - Number of Agents: n".
func Title(tick, total, agents int) string {
	return fmt.Sprintf("%d / %d - Number of Agents: %d", tick, total, agents)
}

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Tick       int
	TotalTicks int
	Agents     int
	Stats      telemetry.PopulationStats
	Asym       int
	Sympt      int
	Speed      int
	FPS        int32
	Paused     bool
	Finished   bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// HUDHeight is the vertical space the HUD occupies at the top of the screen.
const HUDHeight = 80

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(Title(data.Tick, data.TotalTicks, data.Agents), 10, 10, 20, rl.White)

	totals := data.Stats.Totals()
	rl.DrawText(
		fmt.Sprintf("Infected: %d asymptomatic, %d symptomatic | Created: %d | Dead: %d | Attack rate: %.2f",
			data.Asym, data.Sympt, totals.TotalCreated, totals.Dead, data.Stats.AttackRate()),
		10, 35, 16, rl.LightGray,
	)

	statusText := fmt.Sprintf("Running %dx | FPS: %d", data.Speed, data.FPS)
	switch {
	case data.Finished:
		statusText = "FINISHED"
	case data.Paused:
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 55, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	Stats    telemetry.PerfStats
	Registry *systems.SystemRegistry
}

// PerfPanel renders the tick phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in execution order.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x := p.x
	y := p.y

	rl.DrawText("Phase Timing", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s)", data.Stats.AvgTickDuration.Round(time.Microsecond), data.Stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, info := range data.Registry.All() {
		avg := data.Stats.PhaseAvg[info.ID]
		pct := data.Stats.PhasePct[info.ID]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", info.Name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
