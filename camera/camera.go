// Package camera provides a 2D camera for panning and zooming over a
// bounded world.
package camera

// Camera controls the viewport into the lattice. World coordinates are in
// site units; a world of W×H units is fitted into the viewport at zoom 1.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = whole world fits, 2.0 = 2x magnification)
	Zoom float32

	// Viewport dimensions (screen size of the drawing area)
	ViewportW, ViewportH float32

	// World dimensions
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world with the whole world visible.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
}

// Scale returns screen pixels per world unit at the current zoom.
func (c *Camera) Scale() float32 {
	fit := c.ViewportW / c.WorldW
	if fy := c.ViewportH / c.WorldH; fy < fit {
		fit = fy
	}
	return fit * c.Zoom
}

// WorldToScreen converts world coordinates to viewport-relative screen
// coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 + (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts viewport-relative screen coordinates to world
// coordinates. The result may lie outside the world.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y + (sy-c.ViewportH/2)/s
	return wx, wy
}

// IsVisible returns true if a square of the given half-size centered at
// (wx, wy) overlaps the viewport (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return wx+radius >= minX && wx-radius <= maxX &&
		wy+radius >= minY && wy-radius <= maxY
}

// Resize updates viewport dimensions and keeps the view inside the world.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.clampPosition()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X += dx / s
	c.Y += dy / s
	c.clampPosition()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampPosition()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the world point under the
// viewport-relative screen position (sx, sy) fixed where possible.
func (c *Camera) ZoomAt(factor, sx, sy float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	s := c.Scale()
	c.X = wx - (sx-c.ViewportW/2)/s
	c.Y = wy - (sy-c.ViewportH/2)/s
	c.clampPosition()
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
// Returns (minX, minY, maxX, maxY) in world coordinates.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// clampPosition keeps the view inside the world. An axis that is fully
// visible stays centered.
func (c *Camera) clampPosition() {
	s := c.Scale()
	c.X = clampAxis(c.X, c.ViewportW/(2*s), c.WorldW)
	c.Y = clampAxis(c.Y, c.ViewportH/(2*s), c.WorldH)
}

func clampAxis(pos, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(pos, half, size-half)
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
