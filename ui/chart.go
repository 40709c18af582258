package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/telemetry"
)

// seriesColors colours the per-category lines in category key order.
var seriesColors = [components.NumCategories]rl.Color{rl.SkyBlue, rl.Purple, rl.Yellow, rl.Pink}

// ChartPanel plots currently infected agents over time.
type ChartPanel struct {
	renderer      *Renderer
	x, y          int32
	width, height int32
	subtitle      string
}

// NewChartPanel creates a chart panel. The subtitle names the run
// parameters, e.g. "λ=0.1; Density=1.0; InfluxRate=0.0".
func NewChartPanel(x, y, width, height int32, subtitle string) *ChartPanel {
	return &ChartPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		height:   height,
		subtitle: subtitle,
	}
}

// SetBounds updates the panel position and size.
func (c *ChartPanel) SetBounds(x, y, width, height int32) {
	c.x, c.y, c.width, c.height = x, y, width, height
}

// ChartScale returns the y-axis maximum for a series: the largest total,
// at least 1.
func ChartScale(s *telemetry.Series) float64 {
	if s == nil || s.Len() == 0 {
		return 1
	}
	m := floats.Max(s.Total)
	if m < 1 {
		return 1
	}
	return m
}

// Draw renders the total and per-category lines.
func (c *ChartPanel) Draw(s *telemetry.Series) {
	r := c.renderer
	padding := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.height)

	x := c.x + padding
	y := r.DrawSectionHeader(x, c.y+padding, "Currently infected")
	rl.DrawText(c.subtitle, x, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += r.Theme.LineHeight

	legendY := c.y + c.height - padding - r.Theme.LineHeight
	plot := rl.Rectangle{
		X:      float32(x),
		Y:      float32(y + 4),
		Width:  float32(c.width - padding*2),
		Height: float32(legendY - y - 12),
	}
	rl.DrawRectangleLinesEx(plot, 1, r.Theme.PanelBorder)

	if s != nil && s.Len() > 1 {
		scale := ChartScale(s)
		rl.DrawText(fmt.Sprintf("%.0f", scale), int32(plot.X)+4, int32(plot.Y)+2, 10, r.Theme.LabelColor)
		for i := range s.ByCategory {
			drawLine(plot, s.ByCategory[i], scale, seriesColors[i])
		}
		drawLine(plot, s.Total, scale, rl.White)
	}

	lx := x
	for i, cat := range components.Categories {
		label := cat.String()
		rl.DrawRectangle(lx, legendY+2, 10, 10, seriesColors[i])
		rl.DrawText(label, lx+14, legendY, r.Theme.FontSize, r.Theme.LabelColor)
		lx += 14 + rl.MeasureText(label, r.Theme.FontSize) + 12
	}
	rl.DrawRectangle(lx, legendY+2, 10, 10, rl.White)
	rl.DrawText("total", lx+14, legendY, r.Theme.FontSize, r.Theme.LabelColor)
}

func drawLine(plot rl.Rectangle, values []float64, scale float64, color rl.Color) {
	n := len(values)
	step := plot.Width / float32(n-1)
	prev := chartPoint(plot, 0, values[0], step, scale)
	for i := 1; i < n; i++ {
		p := chartPoint(plot, i, values[i], step, scale)
		rl.DrawLineV(prev, p, color)
		prev = p
	}
}

func chartPoint(plot rl.Rectangle, i int, v float64, step float32, scale float64) rl.Vector2 {
	return rl.Vector2{
		X: plot.X + float32(i)*step,
		Y: plot.Y + plot.Height - float32(v/scale)*plot.Height,
	}
}
