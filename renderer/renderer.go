// Package renderer draws the fluid particles and the collision boundaries with raylib.
package renderer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/camera"
	"github.com/pthm-cable/fluid/config"
)

// KindSpeed colours particles by speed.
const KindSpeed = "speed"

// ErrUnknownRenderer is returned by New for an unrecognised kind.
var ErrUnknownRenderer = errors.New("renderer: unknown kind")

// Renderer is a read-only consumer of the particle arrays.
type Renderer interface {
	// Init prepares GPU-side resources (must be called after the raylib window is created).
	Init()
	Draw(cam *camera.Camera, positions, velocities []r2.Vec)
	Unload()
}

// New creates the renderer selected by cfg.Kind.
func New(cfg config.RenderConfig) (Renderer, error) {
	switch cfg.Kind {
	case KindSpeed, "":
		return NewSpeedRenderer(cfg), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, cfg.Kind)
}
