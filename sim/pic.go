package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/boundary"
	"github.com/pthm-cable/fluid/compute"
	"github.com/pthm-cable/fluid/telemetry"
)

// PICSolver advances the fluid through a cell-centred grid covering the world bounds.
// Particles scatter density and velocity to the grid; pressure and viscosity are
// then gathered back per particle.
type PICSolver struct {
	core

	nx, ny int
	origin r2.Vec

	cellDensity  *compute.Buffer[float64]
	cellPressure *compute.Buffer[float64]
	cellVelocity *compute.Buffer[r2.Vec]
}

// NewPIC creates a PIC solver. Call Initialize before Step.
func NewPIC(p Params, src boundary.Source) *PICSolver {
	return &PICSolver{core: newCore(p, src, picCell)}
}

func picCell(p Params) float64 { return p.CellSize }

// GridSize returns the grid dimensions in cells.
func (s *PICSolver) GridSize() (int, int) { return s.nx, s.ny }

// Initialize allocates the particle, neighbour and cell buffers.
func (s *PICSolver) Initialize() (err error) {
	if err := s.init(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			s.Cleanup()
		}
	}()

	p := s.params
	size := r2.Sub(p.Bounds.Max, p.Bounds.Min)
	s.nx = int(math.Ceil(size.X / p.CellSize))
	s.ny = int(math.Ceil(size.Y / p.CellSize))
	s.origin = p.Bounds.Min

	cells := s.nx * s.ny
	if s.cellDensity, err = compute.NewBuffer[float64](s.dev, cells); err != nil {
		return fmt.Errorf("sim: allocating cell buffers: %w", err)
	}
	if s.cellPressure, err = compute.NewBuffer[float64](s.dev, cells); err != nil {
		return fmt.Errorf("sim: allocating cell buffers: %w", err)
	}
	if s.cellVelocity, err = compute.NewBuffer[r2.Vec](s.dev, cells); err != nil {
		return fmt.Errorf("sim: allocating cell buffers: %w", err)
	}
	return nil
}

// Cleanup releases the cell buffers and the shared state.
func (s *PICSolver) Cleanup() {
	_ = s.cellDensity.Release()
	_ = s.cellPressure.Release()
	_ = s.cellVelocity.Release()
	s.cellDensity, s.cellPressure, s.cellVelocity = nil, nil, nil
	s.release()
}

// SetParams replaces the parameters between ticks. Bounds are fixed once the grid exists.
func (s *PICSolver) SetParams(p Params) error {
	if s.initialized && p.Bounds != s.params.Bounds {
		return fmt.Errorf("%w: grid bounds are fixed after initialisation", ErrLiveResize)
	}
	return s.core.SetParams(p)
}

// Step runs one physics tick of SubStepCount substeps.
func (s *PICSolver) Step(in Input) error {
	return s.step(in, s.substep)
}

func (s *PICSolver) substep(strength float64) {
	s.externalForces(strength)
	s.buildGrid()
	s.relax()
	s.transferToGrid()
	s.applyGridPressure()
	s.applyGridViscosity()
	s.integrate()
}

// CellDensity returns the number density of every cell, row-major from the bounds minimum.
func (s *PICSolver) CellDensity() []float64 { return s.cellDensity.Data() }

// transferToGrid gathers tent-weighted density and mass-averaged velocity per cell.
func (s *PICSolver) transferToGrid() {
	s.prof.StartPhase(telemetry.PhaseGridTransfer)

	p := s.params
	cs := p.CellSize
	pred, vel := s.predicted.Data(), s.velocity.Data()
	dens, press, cvel := s.cellDensity.Data(), s.cellPressure.Data(), s.cellVelocity.Data()
	nx := s.nx
	origin := s.origin

	s.dev.Dispatch(len(dens), func(start, end int) {
		for c := start; c < end; c++ {
			centre := r2.Vec{
				X: origin.X + (float64(c%nx)+0.5)*cs,
				Y: origin.Y + (float64(c/nx)+0.5)*cs,
			}
			var wsum float64
			var vsum r2.Vec
			s.grid.ForEachNeighbour(centre, func(j int) {
				wx := 1 - math.Abs(pred[j].X-centre.X)/cs
				wy := 1 - math.Abs(pred[j].Y-centre.Y)/cs
				if wx <= 0 || wy <= 0 {
					return
				}
				w := wx * wy
				wsum += w
				vsum = r2.Add(vsum, r2.Scale(w, vel[j]))
			})
			rho := wsum / (cs * cs)
			dens[c] = rho
			press[c] = p.PressureStiffness*(rho-p.TargetDensity) + p.NearPressureStiffness*rho
			if wsum > 0 {
				cvel[c] = r2.Scale(1/wsum, vsum)
			} else {
				cvel[c] = r2.Vec{}
			}
		}
	})
}

// bilinear locates p among the cell centres. It returns the four clamped cell
// indices (x0y0, x1y0, x0y1, x1y1) and the fractional position between them.
func (s *PICSolver) bilinear(p r2.Vec) (idx [4]int, tx, ty float64) {
	cs := s.params.CellSize
	fx := (p.X-s.origin.X)/cs - 0.5
	fy := (p.Y-s.origin.Y)/cs - 0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty = fx-x0, fy-y0

	ix0, iy0 := clampInt(int(x0), s.nx), clampInt(int(y0), s.ny)
	ix1, iy1 := clampInt(int(x0)+1, s.nx), clampInt(int(y0)+1, s.ny)
	idx = [4]int{
		iy0*s.nx + ix0,
		iy0*s.nx + ix1,
		iy1*s.nx + ix0,
		iy1*s.nx + ix1,
	}
	return idx, tx, ty
}

func clampInt(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// applyGridPressure accelerates each particle down the interpolated pressure gradient.
func (s *PICSolver) applyGridPressure() {
	s.prof.StartPhase(telemetry.PhasePressure)

	p := s.params
	cs := p.CellSize
	pred, vel := s.predicted.Data(), s.velocity.Data()
	dens, press := s.cellDensity.Data(), s.cellPressure.Data()

	s.dev.Dispatch(p.NumParticles, func(start, end int) {
		for i := start; i < end; i++ {
			idx, tx, ty := s.bilinear(pred[i])
			p00, p10, p01, p11 := press[idx[0]], press[idx[1]], press[idx[2]], press[idx[3]]

			grad := r2.Vec{
				X: ((p10-p00)*(1-ty) + (p11-p01)*ty) / cs,
				Y: ((p01-p00)*(1-tx) + (p11-p10)*tx) / cs,
			}
			rho := lerp(lerp(dens[idx[0]], dens[idx[1]], tx), lerp(dens[idx[2]], dens[idx[3]], tx), ty)
			if rho <= 0 {
				continue
			}
			vel[i] = r2.Sub(vel[i], r2.Scale(p.DeltaTime/rho, grad))
		}
	})
}

// applyGridViscosity blends each velocity toward the interpolated grid velocity.
func (s *PICSolver) applyGridViscosity() {
	p := s.params
	if p.ViscosityStrength == 0 {
		return
	}
	s.prof.StartPhase(telemetry.PhaseViscosity)

	pred, vel := s.predicted.Data(), s.velocity.Data()
	cvel := s.cellVelocity.Data()
	blend := saturate(p.ViscosityStrength)

	s.dev.Dispatch(p.NumParticles, func(start, end int) {
		for i := start; i < end; i++ {
			idx, tx, ty := s.bilinear(pred[i])
			bottom := r2.Add(r2.Scale(1-tx, cvel[idx[0]]), r2.Scale(tx, cvel[idx[1]]))
			top := r2.Add(r2.Scale(1-tx, cvel[idx[2]]), r2.Scale(tx, cvel[idx[3]]))
			grid := r2.Add(r2.Scale(1-ty, bottom), r2.Scale(ty, top))
			vel[i] = r2.Add(vel[i], r2.Scale(blend, r2.Sub(grid, vel[i])))
		}
	})
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
