package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/contagion/camera"
	"github.com/pthm-cable/contagion/components"
)

// ClassifySite picks the colouring class of a site. Symptomatic beats
// asymptomatic beats healthy; a site with no living occupant is empty.
func ClassifySite(v components.SiteView) SiteStatus {
	status := StatusEmpty
	for _, o := range v.Occupants {
		switch o.State {
		case components.Symptomatic:
			return StatusSymptomatic
		case components.Asymptomatic:
			status = StatusAsymptomatic
		case components.Healthy:
			if status == StatusEmpty {
				status = StatusHealthy
			}
		}
	}
	return status
}

// SiteLabel formats a site as "infected|healthy". Empty sites get no label.
func SiteLabel(v components.SiteView) string {
	if len(v.Occupants) == 0 {
		return ""
	}
	healthy, infected, _ := v.Counts()
	return fmt.Sprintf("%d|%d", infected, healthy)
}

// LatticeLayout maps site ids to screen cells.
type LatticeLayout struct {
	X, Y     int32
	CellSize int32
	Size     int // L

	// Clip is the visible drawing area. Zero means the whole grid is shown.
	Clip rl.Rectangle
}

// CameraLayout places an L×L grid inside the area (x, y, cam.ViewportW,
// cam.ViewportH) as seen through cam. Cells outside the area are clipped.
func CameraLayout(cam *camera.Camera, x, y int32, size int) LatticeLayout {
	cell := int32(cam.Scale())
	if cell < 1 {
		cell = 1
	}
	return LatticeLayout{
		X:        x + int32(cam.ViewportW/2-cam.X*float32(cell)),
		Y:        y + int32(cam.ViewportH/2-cam.Y*float32(cell)),
		CellSize: cell,
		Size:     size,
		Clip:     rl.Rectangle{X: float32(x), Y: float32(y), Width: cam.ViewportW, Height: cam.ViewportH},
	}
}

func (l LatticeLayout) clipped() bool {
	return l.Clip.Width > 0 && l.Clip.Height > 0
}

// visible reports whether a cell rectangle overlaps the clip area.
func (l LatticeLayout) visible(r rl.Rectangle) bool {
	if !l.clipped() {
		return true
	}
	c := l.Clip
	return r.X+r.Width > c.X && r.X < c.X+c.Width &&
		r.Y+r.Height > c.Y && r.Y < c.Y+c.Height
}

// Cell returns the screen rectangle of a site.
func (l LatticeLayout) Cell(site int) rl.Rectangle {
	row, col := int32(site/l.Size), int32(site%l.Size)
	return rl.Rectangle{
		X:      float32(l.X + col*l.CellSize),
		Y:      float32(l.Y + row*l.CellSize),
		Width:  float32(l.CellSize),
		Height: float32(l.CellSize),
	}
}

// SiteAt returns the site under a screen point, or -1.
func (l LatticeLayout) SiteAt(px, py float32) int {
	if px < float32(l.X) || py < float32(l.Y) {
		return -1
	}
	if l.clipped() && (px < l.Clip.X || py < l.Clip.Y ||
		px >= l.Clip.X+l.Clip.Width || py >= l.Clip.Y+l.Clip.Height) {
		return -1
	}
	col := int((px - float32(l.X)) / float32(l.CellSize))
	row := int((py - float32(l.Y)) / float32(l.CellSize))
	if col >= l.Size || row >= l.Size {
		return -1
	}
	return row*l.Size + col
}

// LatticeView draws the grid of sites.
type LatticeView struct {
	renderer *Renderer
	layout   LatticeLayout
}

// NewLatticeView creates a lattice renderer.
func NewLatticeView(layout LatticeLayout) *LatticeView {
	return &LatticeView{renderer: NewRenderer(), layout: layout}
}

// Layout returns the current cell geometry.
func (lv *LatticeView) Layout() LatticeLayout {
	return lv.layout
}

// SetLayout replaces the cell geometry, e.g. after a resize.
func (lv *LatticeView) SetLayout(l LatticeLayout) {
	lv.layout = l
}

// Draw renders every site. Labels are drawn when showLabels is set and the
// cells are large enough to hold them.
func (lv *LatticeView) Draw(sites []components.SiteView, showLabels, showGrid bool, hovered int) {
	theme := lv.renderer.Theme
	fontSize := lv.layout.CellSize / 3
	if fontSize > 20 {
		fontSize = 20
	}

	if lv.layout.clipped() {
		c := lv.layout.Clip
		rl.BeginScissorMode(int32(c.X), int32(c.Y), int32(c.Width), int32(c.Height))
		defer rl.EndScissorMode()
	}

	for _, v := range sites {
		rect := lv.layout.Cell(v.Site)
		if !lv.layout.visible(rect) {
			continue
		}
		rl.DrawRectangleRec(rect, StatusColors[ClassifySite(v)])

		if showGrid {
			rl.DrawRectangleLinesEx(rect, 1, theme.GridLine)
		}
		if v.Site == hovered {
			rl.DrawRectangleLinesEx(rect, 2, rl.White)
		}

		if showLabels && fontSize >= 8 {
			if label := SiteLabel(v); label != "" {
				w := rl.MeasureText(label, fontSize)
				tx := int32(rect.X) + (lv.layout.CellSize-w)/2
				ty := int32(rect.Y) + (lv.layout.CellSize-fontSize)/2
				rl.DrawText(label, tx, ty, fontSize, rl.Black)
			}
		}
	}
}
