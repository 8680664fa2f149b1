package sim

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/config"
)

var (
	// ErrInvalidParams wraps every parameter validation failure.
	ErrInvalidParams = errors.New("sim: invalid parameters")
	// ErrLiveResize is returned by SetParams when the particle count or the
	// neighbour grid cell would change on a live solver.
	ErrLiveResize = errors.New("sim: particle count changes require re-initialisation")
	// ErrNotInitialized is returned by Step before Initialize or after Cleanup.
	ErrNotInitialized = errors.New("sim: solver not initialised")
	// ErrUnknownSolver is returned by New for an unrecognised kind.
	ErrUnknownSolver = errors.New("sim: unknown solver kind")
)

// Params are the solver parameters. They are read once per tick and stay
// constant across the substeps of that tick.
type Params struct {
	NumParticles int
	Workers      int // compute device size, 0 = GOMAXPROCS

	DeltaTime        float64 // seconds per substep
	PredictDeltaTime float64 // lookahead for predicted positions
	SubStepCount     int
	Gravity          float64 // magnitude along -Y

	InteractionRadius      float64
	TargetDensity          float64
	PressureStiffness      float64
	NearPressureStiffness  float64
	ViscosityStrength      float64
	RelaxPositionRadius    float64
	RelaxPositionStiffness float64
	CollisionDamping       float64
	CellSize               float64 // PIC grid cell

	Bounds r2.Box

	ControlRadius   float64
	ControlStrength float64

	Spacing    float64
	InitOffset r2.Vec
}

// ParamsFromConfig flattens the loaded configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		NumParticles:           cfg.Placement.NumParticles,
		Workers:                cfg.Solver.Workers,
		DeltaTime:              cfg.Physics.DeltaTime,
		PredictDeltaTime:       cfg.Physics.PredictDeltaTime,
		SubStepCount:           cfg.Physics.SubStepCount,
		Gravity:                cfg.Physics.Gravity,
		InteractionRadius:      cfg.Fluid.InteractionRadius,
		TargetDensity:          cfg.Fluid.TargetDensity,
		PressureStiffness:      cfg.Fluid.PressureStiffness,
		NearPressureStiffness:  cfg.Fluid.NearPressureStiffness,
		ViscosityStrength:      cfg.Fluid.ViscosityStrength,
		RelaxPositionRadius:    cfg.Fluid.RelaxPositionRadius,
		RelaxPositionStiffness: cfg.Fluid.RelaxPositionStiffness,
		CollisionDamping:       cfg.Fluid.CollisionDamping,
		CellSize:               cfg.Fluid.CellSize,
		Bounds:                 cfg.Derived.Bounds,
		ControlRadius:          cfg.Interaction.ControlRadius,
		ControlStrength:        cfg.Interaction.ControlStrength,
		Spacing:                cfg.Placement.Spacing,
		InitOffset:             r2.Vec{X: cfg.Placement.InitOffsetX, Y: cfg.Placement.InitOffsetY},
	}
}

// validate checks p for a solver whose neighbour grid uses cells of gridCell.
func (p Params) validate(gridCell float64) error {
	switch {
	case p.NumParticles < 1:
		return fmt.Errorf("%w: particle count %d", ErrInvalidParams, p.NumParticles)
	case p.SubStepCount < 1:
		return fmt.Errorf("%w: sub step count %d", ErrInvalidParams, p.SubStepCount)
	case p.DeltaTime <= 0 || p.PredictDeltaTime < 0:
		return fmt.Errorf("%w: time step %g / %g", ErrInvalidParams, p.DeltaTime, p.PredictDeltaTime)
	case p.InteractionRadius <= 0 || gridCell <= 0:
		return fmt.Errorf("%w: radius %g, neighbour cell %g", ErrInvalidParams, p.InteractionRadius, gridCell)
	case p.CollisionDamping < 0 || p.CollisionDamping > 1:
		return fmt.Errorf("%w: collision damping %g outside [0, 1]", ErrInvalidParams, p.CollisionDamping)
	case p.RelaxPositionRadius < 0 || p.RelaxPositionRadius > gridCell:
		return fmt.Errorf("%w: relax radius %g outside [0, %g]", ErrInvalidParams, p.RelaxPositionRadius, gridCell)
	case p.Bounds.Max.X <= p.Bounds.Min.X || p.Bounds.Max.Y <= p.Bounds.Min.Y:
		return fmt.Errorf("%w: empty bounds %v", ErrInvalidParams, p.Bounds)
	}
	return nil
}

// Input is the pointer snapshot taken once per tick.
type Input struct {
	Position r2.Vec
	Attract  bool // left button
	Repel    bool // right button
}

// strength returns the signed interaction strength; both buttons cancel.
func (in Input) strength(controlStrength float64) float64 {
	s := 0.0
	if in.Attract {
		s += controlStrength
	}
	if in.Repel {
		s -= controlStrength
	}
	return s
}
