// Package components defines ECS components for the host scene.
package components

import "gonum.org/v1/gonum/spatial/r2"

// Transform places a body in the world: scale, then rotate, then translate.
type Transform struct {
	Position r2.Vec
	Rotation float64 // radians, counter-clockwise
	Scale    r2.Vec
}

// Apply maps a body-local point to world space.
func (t Transform) Apply(local r2.Vec) r2.Vec {
	scaled := r2.Vec{X: local.X * t.Scale.X, Y: local.Y * t.Scale.Y}
	return r2.Add(r2.Rotate(scaled, t.Rotation, r2.Vec{}), t.Position)
}

// Motion drives a kinematic body each tick.
type Motion struct {
	Velocity        r2.Vec  // world units per second
	AngularVelocity float64 // radians per second
}
