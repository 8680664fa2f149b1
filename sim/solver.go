// Package sim implements the particle fluid solvers.
//
// Both variants share the same per-tick skeleton: extract the boundary polygons,
// then run SubStepCount substeps. Every substep applies external forces, rebuilds
// the hashed neighbour grid on predicted positions, runs the variant's
// density/pressure/viscosity passes and finally integrates with collision.
// Each pass is one data-parallel dispatch on the compute device.
package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/boundary"
)

// Solver kinds accepted by New.
const (
	KindSPH = "sph"
	KindPIC = "pic"
)

// Solver is a particle fluid simulation.
type Solver interface {
	// Initialize allocates buffers and places the particles.
	Initialize() error
	// Step advances one physics tick using the pointer snapshot.
	Step(in Input) error
	// Cleanup releases all buffers. Safe to call more than once.
	Cleanup()

	SetParams(p Params) error
	Params() Params
	SetProfiler(p Profiler)

	NumParticles() int
	Positions() []r2.Vec
	Velocities() []r2.Vec
	Densities() []float64
	Boundary() *boundary.Buffer
	Substeps() int64
}

var (
	_ Solver = (*SPHSolver)(nil)
	_ Solver = (*PICSolver)(nil)
)

// New creates an uninitialised solver of the given kind.
func New(kind string, p Params, src boundary.Source) (Solver, error) {
	switch kind {
	case KindSPH:
		return NewSPH(p, src), nil
	case KindPIC:
		return NewPIC(p, src), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, kind)
}
