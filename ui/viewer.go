package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/contagion/camera"
	"github.com/pthm-cable/contagion/engine"
	"github.com/pthm-cable/contagion/systems"
	"github.com/pthm-cable/contagion/telemetry"
)

const (
	sidePanelWidth = 260
	footerHeight   = 35
	controlsLegend = "[Space] Pause  [S] Step  [,/.] Speed  [L] Labels  [G] Grid  [C] Chart  [P] Perf  [I] Inspect  [Wheel/RMB] Zoom/Pan  [Home] Reset view"
	zoomStep       = 1.1
)

// Viewer runs an engine interactively inside a raylib window.
// The window must be initialised before NewViewer is called.
type Viewer struct {
	engine     *engine.Engine
	totalTicks int

	perf     *telemetry.PerfCollector
	registry *systems.SystemRegistry
	series   *telemetry.Series

	camera    *camera.Camera
	overlays  *OverlayRegistry
	hud       *HUD
	lattice   *LatticeView
	controls  *ControlsPanel
	inspector *Inspector
	perfPanel *PerfPanel
	chart     *ChartPanel

	playback Playback
	hovered  int

	width, height int32
}

// NewViewer creates a viewer for e that stops stepping after totalTicks.
// series is charted as it grows; whoever owns it appends to it. perf may be
// nil when phase timing is not collected.
func NewViewer(e *engine.Engine, perf *telemetry.PerfCollector, series *telemetry.Series, totalTicks int) *Viewer {
	cfg := e.Config()
	v := &Viewer{
		engine:     e,
		totalTicks: totalTicks,
		perf:       perf,
		registry:   systems.NewSystemRegistry(),
		series:     series,
		overlays:   NewOverlayRegistry(),
		hud:        NewHUD(),
		playback:   Playback{Speed: 1},
		hovered:    -1,
		width:      int32(rl.GetScreenWidth()),
		height:     int32(rl.GetScreenHeight()),
	}

	subtitle := fmt.Sprintf("λ=%g; Density=%g; InfluxRate=%g",
		cfg.Disease.Transmission, cfg.Population.Density, cfg.Population.Influx)

	size := float32(e.Lattice().Size())
	vw, vh := v.viewport()
	v.camera = camera.New(vw, vh, size, size)
	v.lattice = NewLatticeView(v.latticeLayout())
	v.controls = NewControlsPanel(0, 0, sidePanelWidth-20)
	v.inspector = NewInspector(0, 0, sidePanelWidth-20)
	v.perfPanel = NewPerfPanel(0, 0)
	v.chart = NewChartPanel(0, 0, 0, 0, subtitle)
	v.layoutPanels()
	return v
}

// viewport returns the size of the lattice drawing area.
func (v *Viewer) viewport() (w, h float32) {
	return float32(v.width - sidePanelWidth - 20), float32(v.height - HUDHeight - footerHeight)
}

func (v *Viewer) latticeLayout() LatticeLayout {
	return CameraLayout(v.camera, 10, HUDHeight, v.engine.Lattice().Size())
}

func (v *Viewer) layoutPanels() {
	px := v.width - sidePanelWidth + 10
	v.controls.SetPosition(px, 10)

	vw, vh := v.viewport()
	chartHeight := int32(vh) * 2 / 5
	if chartHeight < 160 {
		chartHeight = 160
	}
	v.chart.SetBounds(10, HUDHeight+int32(vh)-chartHeight, int32(vw), chartHeight)
}

// Finished reports whether the configured number of ticks has run.
func (v *Viewer) Finished() bool {
	return v.engine.Tick() >= v.totalTicks
}

// Update handles input and advances the simulation.
func (v *Viewer) Update() {
	v.handleInput()

	if v.perf != nil {
		v.perf.RecordFrame()
	}

	if v.Finished() {
		return
	}

	steps := v.playback.Speed
	if v.playback.Paused {
		steps = 0
		if v.playback.TakeStep() {
			steps = 1
		}
	}
	for i := 0; i < steps && !v.Finished(); i++ {
		v.engine.Step()
	}

	if v.Finished() {
		// Show the time series once the run is complete
		v.overlays.SetEnabled(OverlayChart, true)
	}
}

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeySpace) {
		v.playback.Paused = !v.playback.Paused
	}
	if rl.IsKeyPressed(rl.KeyS) {
		v.playback.Paused = true
		v.playback.Step = true
	}
	if rl.IsKeyPressed(rl.KeyComma) {
		v.playback.Speed--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.playback.Speed++
	}
	v.playback.ClampSpeed()

	if key := rl.GetKeyPressed(); key != 0 {
		v.overlays.HandleKeyPress(key)
	}

	v.handleCamera()

	mouse := rl.GetMousePosition()
	v.hovered = v.lattice.Layout().SiteAt(mouse.X, mouse.Y)
}

// handleCamera applies wheel zoom, right-drag pan and view reset.
func (v *Viewer) handleCamera() {
	moved := false
	mouse := rl.GetMousePosition()
	sx, sy := mouse.X-10, mouse.Y-HUDHeight

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(zoomStep)
		if wheel < 0 {
			factor = 1 / factor
		}
		v.camera.ZoomAt(factor, sx, sy)
		moved = true
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		if d := rl.GetMouseDelta(); d.X != 0 || d.Y != 0 {
			v.camera.Pan(-d.X, -d.Y)
			moved = true
		}
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
		moved = true
	}

	if moved {
		v.lattice.SetLayout(v.latticeLayout())
	}
}

// handleResize recomputes the layout after a window resize.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if w == v.width && h == v.height {
		return
	}
	v.width, v.height = w, h
	v.camera.Resize(v.viewport())
	v.lattice.SetLayout(v.latticeLayout())
	v.layoutPanels()
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 10, G: 12, B: 16, A: 255})

	sites := v.engine.Occupancy()
	v.lattice.Draw(sites, v.overlays.IsEnabled(OverlayLabels), v.overlays.IsEnabled(OverlayGrid), v.hovered)

	asym, sympt := v.engine.ActiveInfections()
	v.hud.Draw(HUDData{
		Tick:       v.engine.Tick(),
		TotalTicks: v.totalTicks,
		Agents:     v.engine.Population(),
		Stats:      v.engine.Stats(),
		Asym:       asym,
		Sympt:      sympt,
		Speed:      v.playback.Speed,
		FPS:        rl.GetFPS(),
		Paused:     v.playback.Paused,
		Finished:   v.Finished(),
	})
	v.hud.DrawControls(v.height, controlsLegend)

	if v.overlays.IsEnabled(OverlayChart) {
		v.chart.Draw(v.series)
	}

	px := v.width - sidePanelWidth + 10
	y := v.controls.Draw(&v.playback, v.overlays) + 10

	if v.overlays.IsEnabled(OverlayInspector) && v.hovered >= 0 {
		row, col := v.engine.Lattice().Coordinates(v.hovered)
		v.inspector.SetPosition(px, y)
		v.inspector.Draw(sites[v.hovered], row, col)
	} else if v.overlays.IsEnabled(OverlayPerf) && v.perf != nil {
		v.perfPanel.SetPosition(px, y)
		v.perfPanel.Draw(PerfPanelData{Stats: v.perf.Stats(), Registry: v.registry})
	}

	rl.EndDrawing()
}
