// Package camera maps the fluid world onto the viewer window.
package camera

import "gonum.org/v1/gonum/spatial/r2"

// Camera controls the viewport into the simulation world.
// World space is y-up and centred on the bounds; screen space is y-down pixels.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level on top of the fit scale (1.0 = whole world visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World bounds the camera stays inside
	Bounds r2.Box

	// Pixels per world unit at zoom 1
	FitScale float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centred on bounds, scaled so the whole world fits the viewport.
func New(viewportW, viewportH float32, bounds r2.Box) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		Bounds:    bounds,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
	c.FitScale = c.fitScale()
	c.Reset()
	return c
}

func (c *Camera) fitScale() float32 {
	w := float32(c.Bounds.Max.X - c.Bounds.Min.X)
	h := float32(c.Bounds.Max.Y - c.Bounds.Min.Y)
	return min(c.ViewportW/w, c.ViewportH/h)
}

// Scale returns the current pixels per world unit.
func (c *Camera) Scale() float32 {
	return c.FitScale * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y - (sy-c.ViewportH/2)/s
	return wx, wy
}

// PointerWorld converts a screen position to a world vector.
func (c *Camera) PointerWorld(sx, sy float32) r2.Vec {
	wx, wy := c.ScreenToWorld(sx, sy)
	return r2.Vec{X: float64(wx), Y: float64(wy)}
}

// IsVisible returns true if a circle at (wx, wy) with given world radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Scale()) + radius
	halfH := c.ViewportH/(2*c.Scale()) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions and the fit scale.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.FitScale = c.fitScale()
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X += dx / s
	c.Y -= dy / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	centre := r2.Scale(0.5, r2.Add(c.Bounds.Min, c.Bounds.Max))
	c.X = float32(centre.X)
	c.Y = float32(centre.Y)
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate box of the visible area.
func (c *Camera) VisibleWorldBounds() r2.Box {
	halfW := float64(c.ViewportW / (2 * c.Scale()))
	halfH := float64(c.ViewportH / (2 * c.Scale()))
	return r2.Box{
		Min: r2.Vec{X: float64(c.X) - halfW, Y: float64(c.Y) - halfH},
		Max: r2.Vec{X: float64(c.X) + halfW, Y: float64(c.Y) + halfH},
	}
}

// clampCenter keeps the camera center inside the world bounds.
func (c *Camera) clampCenter() {
	c.X = clamp(c.X, float32(c.Bounds.Min.X), float32(c.Bounds.Max.X))
	c.Y = clamp(c.Y, float32(c.Bounds.Min.Y), float32(c.Bounds.Max.Y))
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
