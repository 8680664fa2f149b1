package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/camera"
	"github.com/pthm-cable/fluid/config"
)

// LUTSize is the number of entries in the speed colour map.
const LUTSize = 256

// ColorStop is one key of a colour gradient, channels in [0, 1].
type ColorStop struct {
	At      float64
	R, G, B float64
}

// SpeedGradient runs from blue at rest through green and yellow to red at max speed.
var SpeedGradient = []ColorStop{
	{At: 0, R: 0, G: 0, B: 1},
	{At: 0.5, R: 0.32, G: 1, B: 0.57},
	{At: 0.65, R: 1, G: 0.92, B: 0.016},
	{At: 1, R: 1, G: 0, B: 0},
}

// Evaluate linearly interpolates the gradient at t, clamped to the end stops.
func Evaluate(stops []ColorStop, t float64) (r, g, b float64) {
	if t <= stops[0].At {
		s := stops[0]
		return s.R, s.G, s.B
	}
	for i := 1; i < len(stops); i++ {
		hi := stops[i]
		if t > hi.At {
			continue
		}
		lo := stops[i-1]
		f := (t - lo.At) / (hi.At - lo.At)
		return lo.R + (hi.R-lo.R)*f, lo.G + (hi.G-lo.G)*f, lo.B + (hi.B-lo.B)*f
	}
	s := stops[len(stops)-1]
	return s.R, s.G, s.B
}

// BuildLUT samples the gradient into LUTSize colours with the given alpha.
func BuildLUT(stops []ColorStop, alpha uint8) [LUTSize]rl.Color {
	var lut [LUTSize]rl.Color
	for i := range lut {
		r, g, b := Evaluate(stops, float64(i)/(LUTSize-1))
		lut[i] = rl.Color{
			R: uint8(math.Round(r * 255)),
			G: uint8(math.Round(g * 255)),
			B: uint8(math.Round(b * 255)),
			A: alpha,
		}
	}
	return lut
}

// SpeedRenderer draws every particle as a circle coloured by its speed.
type SpeedRenderer struct {
	circleRadius float32
	maxSpeed     float64
	lut          [LUTSize]rl.Color
}

// NewSpeedRenderer creates a speed renderer. Opacity is 1 - transparency.
func NewSpeedRenderer(cfg config.RenderConfig) *SpeedRenderer {
	opacity := 1 - math.Max(0, math.Min(1, cfg.Transparency))
	return &SpeedRenderer{
		circleRadius: float32(cfg.CircleRadius),
		maxSpeed:     cfg.MaxSpeed,
		lut:          BuildLUT(SpeedGradient, uint8(math.Round(opacity*255))),
	}
}

// Init is a no-op; the colour map lives on the CPU.
func (r *SpeedRenderer) Init() {}

// Color returns the LUT entry for a speed.
func (r *SpeedRenderer) Color(speed float64) rl.Color {
	t := 0.0
	if r.maxSpeed > 0 {
		t = math.Max(0, math.Min(1, speed/r.maxSpeed))
	}
	return r.lut[int(t*(LUTSize-1))]
}

// Draw renders the visible particles.
func (r *SpeedRenderer) Draw(cam *camera.Camera, positions, velocities []r2.Vec) {
	radius := r.circleRadius * cam.Scale()
	if radius < 1 {
		radius = 1
	}
	for i := range positions {
		wx, wy := float32(positions[i].X), float32(positions[i].Y)
		if !cam.IsVisible(wx, wy, r.circleRadius) {
			continue
		}
		sx, sy := cam.WorldToScreen(wx, wy)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, r.Color(r2.Norm(velocities[i])))
	}
}

// Unload frees resources.
func (r *SpeedRenderer) Unload() {}
