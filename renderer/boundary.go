package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/boundary"
	"github.com/pthm-cable/fluid/camera"
)

// BoundaryColor is used for collider outlines.
var BoundaryColor = rl.Color{R: 220, G: 220, B: 220, A: 255}

// DrawBoundaries outlines every extracted polygon. Open edges are not closed.
func DrawBoundaries(cam *camera.Camera, b *boundary.Buffer, thickness float32) {
	for i := 0; i < b.NumPolygons(); i++ {
		pts, closed := b.Polygon(i)
		if len(pts) < 2 {
			continue
		}
		last := len(pts) - 1
		if closed {
			last = len(pts)
		}
		for k := 0; k < last; k++ {
			a, c := pts[k], pts[(k+1)%len(pts)]
			ax, ay := cam.WorldToScreen(float32(a.X), float32(a.Y))
			cx, cy := cam.WorldToScreen(float32(c.X), float32(c.Y))
			rl.DrawLineEx(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: cx, Y: cy}, thickness, BoundaryColor)
		}
	}
}

// DrawBounds outlines the world bounds.
func DrawBounds(cam *camera.Camera, minX, minY, maxX, maxY float32, color rl.Color) {
	x0, y0 := cam.WorldToScreen(minX, maxY)
	x1, y1 := cam.WorldToScreen(maxX, minY)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 2, color)
}
