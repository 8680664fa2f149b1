package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/renderer"
)

const (
	panelWidth  = 260
	panelHeight = 230
	panelMargin = 10
)

// Draw renders the frame.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 20, A: 255})

	b := g.cfg.Derived.Bounds
	renderer.DrawBounds(g.camera, float32(b.Min.X), float32(b.Min.Y), float32(b.Max.X), float32(b.Max.Y), rl.DarkGray)
	g.renderer.Draw(g.camera, g.solver.Positions(), g.solver.Velocities())
	renderer.DrawBoundaries(g.camera, g.solver.Boundary(), 2)

	g.drawPointer()

	// HUD
	rl.DrawText(fmt.Sprintf("Tick: %d", g.tick), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Particles: %d  Solver: %s", g.solver.NumParticles(), g.kind), 10, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]  FPS: %d", g.stepsPerUpdate, rl.GetFPS()), 10, 60, 20, rl.White)
	if g.paused {
		rl.DrawText("PAUSED", 10, 85, 20, rl.Yellow)
	}

	g.drawPanel()

	rl.EndDrawing()
}

// drawPointer outlines the control radius while a button is held.
func (g *Game) drawPointer() {
	if !g.input.Attract && !g.input.Repel {
		return
	}
	color := rl.Color{R: 120, G: 200, B: 255, A: 160}
	if g.input.Repel && !g.input.Attract {
		color = rl.Color{R: 255, G: 120, B: 120, A: 160}
	}
	sx, sy := g.camera.WorldToScreen(float32(g.input.Position.X), float32(g.input.Position.Y))
	radius := float32(g.solver.Params().ControlRadius) * g.camera.Scale()
	rl.DrawCircleLines(int32(sx), int32(sy), radius, color)
}

func (g *Game) panelRect() rl.Rectangle {
	return rl.Rectangle{
		X:      g.screenWidth - panelWidth - panelMargin,
		Y:      panelMargin,
		Width:  panelWidth,
		Height: panelHeight,
	}
}

// drawPanel renders the parameter controls. Edits are queued and applied
// between ticks through SetParams.
func (g *Game) drawPanel() {
	rect := g.panelRect()
	rl.DrawRectangleRec(rect, rl.Color{R: 30, G: 30, B: 40, A: 220})

	x := rect.X + 10
	y := rect.Y + 10
	w := rect.Width - 20

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: (w - 10) / 2, Height: 26}, toggleText(g.paused, "Resume", "Pause")) {
		g.paused = !g.paused
	}
	if gui.Button(rl.Rectangle{X: x + (w+10)/2, Y: y, Width: (w - 10) / 2, Height: 26}, "Reset") {
		g.pending = nil
		if err := g.Reset(); err != nil {
			g.paused = true
		}
	}
	y += 40

	p := g.solver.Params()
	if g.pending != nil {
		p = *g.pending
	}
	changed := false

	slider := func(label string, value, lo, hi float32) float32 {
		rl.DrawText(fmt.Sprintf("%s: %.3g", label, value), int32(x), int32(y), 14, rl.LightGray)
		y += 16
		v := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: w, Height: 16}, "", "", value, lo, hi)
		y += 26
		return v
	}

	if v := slider("Pointer strength", float32(p.ControlStrength), 0, 100); v != float32(p.ControlStrength) {
		p.ControlStrength = float64(v)
		changed = true
	}
	if v := slider("Viscosity", float32(p.ViscosityStrength), 0, 1); v != float32(p.ViscosityStrength) {
		p.ViscosityStrength = float64(v)
		changed = true
	}
	if v := int(slider("Substeps", float32(p.SubStepCount), 1, 10) + 0.5); v != p.SubStepCount {
		p.SubStepCount = v
		changed = true
	}
	if v := slider("Pressure", float32(p.PressureStiffness), 10, 500); v != float32(p.PressureStiffness) {
		p.PressureStiffness = float64(v)
		changed = true
	}

	if changed {
		g.pending = &p
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
