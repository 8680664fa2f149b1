package sim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/boundary"
	"github.com/pthm-cable/fluid/compute"
	"github.com/pthm-cable/fluid/spatial"
	"github.com/pthm-cable/fluid/telemetry"
)

// Profiler receives the name of each pass as it starts.
// telemetry.PerfCollector satisfies it.
type Profiler interface {
	StartPhase(phase string)
}

type noopProfiler struct{}

func (noopProfiler) StartPhase(string) {}

// core holds the state both solver variants share: the compute device, the
// particle buffer set, the neighbour grid and the boundary buffer.
type core struct {
	params   Params
	cellOf   func(Params) float64 // neighbour grid cell size for a parameter set
	gridCell float64
	src      boundary.Source
	prof     Profiler

	dev      *compute.Device
	grid     *spatial.Grid
	boundary *boundary.Buffer

	position  *compute.Buffer[r2.Vec]
	predicted *compute.Buffer[r2.Vec]
	velocity  *compute.Buffer[r2.Vec]
	density   *compute.Buffer[float64]
	near      *compute.Buffer[float64]

	// Targets for passes that read neighbour state they would overwrite
	scratchVel  *compute.Buffer[r2.Vec]
	scratchPred *compute.Buffer[r2.Vec]

	kern        kernels
	input       Input
	initialized bool
	substeps    int64
}

func newCore(p Params, src boundary.Source, cellOf func(Params) float64) core {
	return core{
		params:   p,
		cellOf:   cellOf,
		gridCell: cellOf(p),
		src:      src,
		prof:     noopProfiler{},
		boundary: boundary.NewBuffer(),
	}
}

// init allocates every buffer and places the particles. On failure all
// buffers allocated so far are released.
func (c *core) init() (err error) {
	if c.initialized {
		return errors.New("sim: already initialised")
	}
	if err := c.params.validate(c.gridCell); err != nil {
		return err
	}

	c.dev = compute.NewDevice(c.params.Workers)
	defer func() {
		if err != nil {
			c.release()
		}
	}()

	n := c.params.NumParticles
	if c.grid, err = spatial.NewGrid(c.dev, n, c.gridCell); err != nil {
		return fmt.Errorf("sim: building neighbour grid: %w", err)
	}
	for _, vb := range []**compute.Buffer[r2.Vec]{&c.position, &c.predicted, &c.velocity, &c.scratchVel, &c.scratchPred} {
		if *vb, err = compute.NewBuffer[r2.Vec](c.dev, n); err != nil {
			return fmt.Errorf("sim: allocating particle buffers: %w", err)
		}
	}
	for _, sb := range []**compute.Buffer[float64]{&c.density, &c.near} {
		if *sb, err = compute.NewBuffer[float64](c.dev, n); err != nil {
			return fmt.Errorf("sim: allocating density buffers: %w", err)
		}
	}

	c.kern = newKernels(c.params.InteractionRadius)
	placeParticles(c.position.Data(), c.params.Spacing, c.params.InitOffset)
	copy(c.predicted.Data(), c.position.Data())
	c.initialized = true
	return nil
}

// placeParticles lays the particles out row by row in a square block.
func placeParticles(pos []r2.Vec, spacing float64, offset r2.Vec) {
	perLine := int(math.Ceil(math.Sqrt(float64(len(pos)))))
	base := -float64(perLine/2) * spacing
	for i := range pos {
		pos[i] = r2.Vec{
			X: float64(i%perLine)*spacing + base + offset.X,
			Y: float64(i/perLine)*spacing + base + offset.Y,
		}
	}
}

// release frees every buffer and stops the device. Safe to call repeatedly.
func (c *core) release() {
	if c.grid != nil {
		_ = c.grid.Release()
		c.grid = nil
	}
	for _, vb := range []**compute.Buffer[r2.Vec]{&c.position, &c.predicted, &c.velocity, &c.scratchVel, &c.scratchPred} {
		_ = (*vb).Release()
		*vb = nil
	}
	for _, sb := range []**compute.Buffer[float64]{&c.density, &c.near} {
		_ = (*sb).Release()
		*sb = nil
	}
	if c.dev != nil {
		c.dev.Close()
	}
	c.initialized = false
}

// Cleanup releases all device resources. The solver may be initialised again.
func (c *core) Cleanup() {
	c.release()
}

// step runs one physics tick: boundary refresh, then the substeps.
func (c *core) step(in Input, substep func(strength float64)) error {
	if !c.initialized {
		return ErrNotInitialized
	}

	c.prof.StartPhase(telemetry.PhaseBoundary)
	if err := boundary.Extract(c.src, c.boundary); err != nil {
		return fmt.Errorf("sim: extracting boundaries: %w", err)
	}

	// Pointer snapshot is shared by every substep of the tick
	strength := in.strength(c.params.ControlStrength)
	c.input = in
	for i := 0; i < c.params.SubStepCount; i++ {
		substep(strength)
		c.substeps++
	}
	return nil
}

// SetParams replaces the parameters between ticks.
func (c *core) SetParams(p Params) error {
	if c.initialized && p.NumParticles != c.params.NumParticles {
		return fmt.Errorf("%w: %d -> %d", ErrLiveResize, c.params.NumParticles, p.NumParticles)
	}
	if c.initialized && c.cellOf(p) != c.gridCell {
		return fmt.Errorf("%w: neighbour cell %g -> %g", ErrLiveResize, c.gridCell, c.cellOf(p))
	}
	if err := p.validate(c.cellOf(p)); err != nil {
		return err
	}
	if c.initialized && p.Workers != c.params.Workers {
		return fmt.Errorf("%w: worker count is fixed after initialisation", ErrInvalidParams)
	}
	c.params = p
	c.gridCell = c.cellOf(p)
	c.kern = newKernels(p.InteractionRadius)
	return nil
}

// Params returns the active parameters.
func (c *core) Params() Params { return c.params }

// SetProfiler installs a pass profiler; nil disables profiling.
func (c *core) SetProfiler(p Profiler) {
	if p == nil {
		p = noopProfiler{}
	}
	c.prof = p
}

// NumParticles returns the particle count.
func (c *core) NumParticles() int { return c.params.NumParticles }

// Positions returns the live position array. Read-only; nil when not initialised.
func (c *core) Positions() []r2.Vec { return c.position.Data() }

// Velocities returns the live velocity array. Read-only; nil when not initialised.
func (c *core) Velocities() []r2.Vec { return c.velocity.Data() }

// Densities returns the density array from the last substep.
func (c *core) Densities() []float64 { return c.density.Data() }

// Boundary returns the polygons extracted for the last tick.
func (c *core) Boundary() *boundary.Buffer { return c.boundary }

// Substeps returns the number of substeps run since Initialize.
func (c *core) Substeps() int64 { return c.substeps }

// externalForces applies gravity and the pointer force, then predicts positions.
func (c *core) externalForces(strength float64) {
	c.prof.StartPhase(telemetry.PhaseExternal)

	p := c.params
	pos, pred, vel := c.position.Data(), c.predicted.Data(), c.velocity.Data()
	gravity := r2.Vec{Y: -p.Gravity}
	target := c.input.Position
	radius := p.ControlRadius

	c.dev.Dispatch(p.NumParticles, func(start, end int) {
		for i := start; i < end; i++ {
			accel := gravity
			if strength != 0 {
				offset := r2.Sub(target, pos[i])
				d2 := r2.Norm2(offset)
				if d2 < radius*radius {
					d := math.Sqrt(d2)
					edgeT := d / radius
					centreT := 1 - edgeT
					var dir r2.Vec
					if d > 0 {
						dir = r2.Scale(1/d, offset)
					}
					// Attraction weakens gravity near the pointer
					gravityWeight := 1 - centreT*saturate(strength/10)
					accel = r2.Scale(gravityWeight, gravity)
					accel = r2.Add(accel, r2.Scale(centreT*strength, dir))
					accel = r2.Sub(accel, r2.Scale(centreT, vel[i]))
				}
			}
			vel[i] = r2.Add(vel[i], r2.Scale(p.DeltaTime, accel))
			pred[i] = r2.Add(pos[i], r2.Scale(p.PredictDeltaTime, vel[i]))
		}
	})
}

func saturate(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// buildGrid rebuilds the neighbour grid from the predicted positions.
func (c *core) buildGrid() {
	pred := c.predicted.Data()
	c.prof.StartPhase(telemetry.PhaseHash)
	c.grid.UpdateHashes(pred)
	c.prof.StartPhase(telemetry.PhaseSort)
	c.grid.Sort()
	c.prof.StartPhase(telemetry.PhaseOffsets)
	c.grid.UpdateOffsets()
}

// pairDir returns the unit direction from i to j and their distance.
// Coincident particles get an index-ordered vertical direction so the pair stays antisymmetric.
func pairDir(i, j int, pi, pj r2.Vec) (r2.Vec, float64) {
	off := r2.Sub(pj, pi)
	d := r2.Norm(off)
	if d > 0 {
		return r2.Scale(1/d, off), d
	}
	if i < j {
		return r2.Vec{Y: 1}, 0
	}
	return r2.Vec{Y: -1}, 0
}

// relax pushes predicted positions apart when closer than the relax radius.
// Positions only ever move through integrate, so every displacement passes collision.
func (c *core) relax() {
	p := c.params
	if p.RelaxPositionRadius <= 0 || p.RelaxPositionStiffness == 0 {
		return
	}
	c.prof.StartPhase(telemetry.PhaseRelax)

	pred, out := c.predicted.Data(), c.scratchPred.Data()
	r := p.RelaxPositionRadius
	k := p.RelaxPositionStiffness

	c.dev.Dispatch(p.NumParticles, func(start, end int) {
		for i := start; i < end; i++ {
			pi := pred[i]
			var shift r2.Vec
			c.grid.ForEachNeighbour(pi, func(j int) {
				if j == i {
					return
				}
				dir, d := pairDir(i, j, pi, pred[j])
				if d >= r {
					return
				}
				// Each side of the pair moves half the overlap
				shift = r2.Sub(shift, r2.Scale(0.5*k*(r-d), dir))
			})
			out[i] = r2.Add(pi, shift)
		}
	})
	c.predicted.Swap(c.scratchPred)
}

// integrate advances positions and resolves collisions. Each particle is
// resolved against every polygon and the bounds in locals and written once.
func (c *core) integrate() {
	c.prof.StartPhase(telemetry.PhaseIntegrate)

	p := c.params
	pos, vel := c.position.Data(), c.velocity.Data()
	b := c.boundary

	c.dev.Dispatch(p.NumParticles, func(start, end int) {
		for i := start; i < end; i++ {
			prev := pos[i]
			next := r2.Add(prev, r2.Scale(p.DeltaTime, vel[i]))
			pos[i], vel[i] = b.Resolve(prev, next, vel[i], p.Bounds, p.CollisionDamping)
		}
	})
}
