package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxSpeed is the largest number of ticks run per frame.
const MaxSpeed = 10

// Playback holds the run controls edited by the controls panel.
type Playback struct {
	Paused bool
	Speed  int // ticks per frame, 1..MaxSpeed
	Step   bool
}

// ClampSpeed keeps Speed within 1..MaxSpeed.
func (p *Playback) ClampSpeed() {
	if p.Speed < 1 {
		p.Speed = 1
	}
	if p.Speed > MaxSpeed {
		p.Speed = MaxSpeed
	}
}

// TakeStep reports whether a single step was requested and clears it.
func (p *Playback) TakeStep() bool {
	s := p.Step
	p.Step = false
	return s
}

// ControlsPanel renders the right-side panel: playback buttons, speed
// slider, overlay toggles and the colour legend.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Draw renders the panel, applies button presses to pb and returns the
// Y coordinate below the panel.
func (c *ControlsPanel) Draw(pb *Playback, overlays *OverlayRegistry) int32 {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	totalItems := len(overlays.All()) + len(overlays.Categories()) + len(StatusColors) + 1
	panelHeight := int32(totalItems)*lineHeight + padding*4 + 90

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := c.y + padding
	inner := float32(c.width - padding*2)

	pauseText := "Pause"
	if pb.Paused {
		pauseText = "Resume"
	}
	half := (inner - 10) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 26}, pauseText) {
		pb.Paused = !pb.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: float32(y), Width: half, Height: 26}, "Step") {
		pb.Paused = true
		pb.Step = true
	}
	y += 36

	rl.DrawText(fmt.Sprintf("Speed: %dx", pb.Speed), int32(x), y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	speed := gui.SliderBar(
		rl.Rectangle{X: x + 16, Y: float32(y), Width: inner - 40, Height: 16},
		"1", fmt.Sprint(MaxSpeed),
		float32(pb.Speed), 1, MaxSpeed,
	)
	pb.Speed = int(speed + 0.5)
	pb.ClampSpeed()
	y += 28

	for _, category := range overlays.Categories() {
		y = r.DrawSectionHeader(int32(x), y, categoryLabel(category))
		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(int32(x), y, desc, overlays.IsEnabled(desc.ID), int32(inner))
			y += lineHeight
		}
		y += 4
	}

	y = r.DrawSectionHeader(int32(x), y, "Legend")
	for _, s := range []SiteStatus{StatusSymptomatic, StatusAsymptomatic, StatusHealthy, StatusEmpty} {
		y = r.DrawColorSwatch(int32(x), y, s.String(), StatusColors[s])
	}

	return c.y + panelHeight
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "lattice":
		return "Lattice"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}
