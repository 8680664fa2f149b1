package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

var world = r2.Box{Min: r2.Vec{X: -8, Y: -4.5}, Max: r2.Vec{X: 8, Y: 4.5}}

func TestNew(t *testing.T) {
	cam := New(1280, 720, world)

	// Should be centered on world
	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected camera at (0, 0), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.FitScale != 80 {
		t.Errorf("expected fit scale 80, got %f", cam.FitScale)
	}
}

func TestFitScaleUsesLimitingAxis(t *testing.T) {
	// 800/16 = 50, 600/9 = 66.7: width limits
	cam := New(800, 600, world)
	if math.Abs(float64(cam.FitScale-50)) > 1e-4 {
		t.Errorf("expected fit scale 50, got %f", cam.FitScale)
	}
}

func TestWorldToScreenFlipsY(t *testing.T) {
	cam := New(1280, 720, world)

	tests := []struct {
		name   string
		wx, wy float32
		sx, sy float32
	}{
		{"centre", 0, 0, 640, 360},
		{"top left corner", -8, 4.5, 0, 0},
		{"bottom right corner", 8, -4.5, 1280, 720},
		{"one unit up", 0, 1, 640, 280},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := cam.WorldToScreen(tt.wx, tt.wy)
			if math.Abs(float64(sx-tt.sx)) > 0.01 || math.Abs(float64(sy-tt.sy)) > 0.01 {
				t.Errorf("expected (%f, %f), got (%f, %f)", tt.sx, tt.sy, sx, sy)
			}
		})
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, world)
	cam.SetZoom(2)
	cam.Pan(100, -40)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanStaysInBounds(t *testing.T) {
	cam := New(1280, 720, world)

	// Dragging right by 80 px moves one world unit at zoom 1
	cam.Pan(80, 0)
	if math.Abs(float64(cam.X-1)) > 1e-5 {
		t.Errorf("expected X = 1, got %f", cam.X)
	}

	cam.Pan(-100000, 100000)
	if cam.X != -8 || cam.Y != -4.5 {
		t.Errorf("expected camera clamped to (-8, -4.5), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, world)

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom clamped to 1.0, got %f", cam.Zoom)
	}

	cam.SetZoom(100) // Above max
	if cam.Zoom != 8.0 {
		t.Errorf("expected zoom clamped to 8.0, got %f", cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, world)
	cam.SetZoom(2)

	// Visible range at zoom 2: x in [-4, 4], y in [-2.25, 2.25]
	if !cam.IsVisible(0, 0, 0.1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(7, 4, 0.1) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(4.5, 0, 1) {
		t.Error("edge point with large radius should be visible")
	}

	box := cam.VisibleWorldBounds()
	if math.Abs(box.Max.X-4) > 1e-5 || math.Abs(box.Min.Y+2.25) > 1e-5 {
		t.Errorf("unexpected visible bounds %+v", box)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, world)
	cam.X = 3
	cam.Y = -2
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected position (0, 0), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
