package sim

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/boundary"
	"github.com/pthm-cable/fluid/telemetry"
)

// SPHSolver advances the fluid with smoothed particle hydrodynamics.
// Neighbour cells are one interaction radius wide.
type SPHSolver struct {
	core
}

// NewSPH creates an SPH solver. Call Initialize before Step.
func NewSPH(p Params, src boundary.Source) *SPHSolver {
	return &SPHSolver{core: newCore(p, src, sphCell)}
}

func sphCell(p Params) float64 { return p.InteractionRadius }

// Initialize allocates the particle and grid buffers and places the particles.
func (s *SPHSolver) Initialize() error {
	return s.init()
}

// Step runs one physics tick of SubStepCount substeps.
func (s *SPHSolver) Step(in Input) error {
	return s.step(in, s.substep)
}

func (s *SPHSolver) substep(strength float64) {
	s.externalForces(strength)
	s.buildGrid()
	s.updateDensities()
	s.relax()
	s.applyPressure()
	s.applyViscosity()
	s.integrate()
}

// updateDensities sums the density and near-density kernels over each
// particle's neighbours, itself included.
func (s *SPHSolver) updateDensities() {
	s.prof.StartPhase(telemetry.PhaseDensity)

	pred := s.predicted.Data()
	dens, near := s.density.Data(), s.near.Data()
	k := s.kern

	s.dev.Dispatch(s.params.NumParticles, func(start, end int) {
		for i := start; i < end; i++ {
			pi := pred[i]
			var d0, d1 float64
			s.grid.ForEachNeighbour(pi, func(j int) {
				d := r2.Norm(r2.Sub(pred[j], pi))
				if d >= k.h {
					return
				}
				d0 += k.density(d)
				d1 += k.nearDensity(d)
			})
			dens[i] = d0
			near[i] = d1
		}
	})
}

// applyPressure adds the symmetric pressure and near-pressure acceleration.
func (s *SPHSolver) applyPressure() {
	s.prof.StartPhase(telemetry.PhasePressure)

	p := s.params
	pred, vel := s.predicted.Data(), s.velocity.Data()
	dens, near := s.density.Data(), s.near.Data()
	k := s.kern

	pressure := func(i int) (float64, float64) {
		return p.PressureStiffness * (dens[i] - p.TargetDensity), p.NearPressureStiffness * near[i]
	}

	s.dev.Dispatch(p.NumParticles, func(start, end int) {
		for i := start; i < end; i++ {
			pi := pred[i]
			pressI, nearI := pressure(i)
			var force r2.Vec
			s.grid.ForEachNeighbour(pi, func(j int) {
				if j == i {
					return
				}
				dir, d := pairDir(i, j, pi, pred[j])
				if d >= k.h {
					return
				}
				pressJ, nearJ := pressure(j)
				shared := (pressI + pressJ) / 2
				sharedNear := (nearI + nearJ) / 2
				mag := (k.densityDeriv(d)*shared + k.nearDensityDeriv(d)*sharedNear) / dens[j]
				force = r2.Add(force, r2.Scale(mag, dir))
			})
			accel := r2.Scale(1/dens[i], force)
			vel[i] = r2.Add(vel[i], r2.Scale(p.DeltaTime, accel))
		}
	})
}

// applyViscosity smooths each velocity toward its neighbours' (XSPH).
func (s *SPHSolver) applyViscosity() {
	p := s.params
	if p.ViscosityStrength == 0 {
		return
	}
	s.prof.StartPhase(telemetry.PhaseViscosity)

	pred, vel := s.predicted.Data(), s.velocity.Data()
	out := s.scratchVel.Data()
	k := s.kern
	scale := p.ViscosityStrength * p.DeltaTime

	s.dev.Dispatch(p.NumParticles, func(start, end int) {
		for i := start; i < end; i++ {
			pi, vi := pred[i], vel[i]
			var sum r2.Vec
			s.grid.ForEachNeighbour(pi, func(j int) {
				if j == i {
					return
				}
				d := r2.Norm(r2.Sub(pred[j], pi))
				if d >= k.h {
					return
				}
				sum = r2.Add(sum, r2.Scale(k.viscosity(d), r2.Sub(vel[j], vi)))
			})
			out[i] = r2.Add(vi, r2.Scale(scale, sum))
		}
	})
	s.velocity.Swap(s.scratchVel)
}
