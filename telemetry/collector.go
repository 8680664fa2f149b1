package telemetry

import "gonum.org/v1/gonum/spatial/r2"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64
	solver              string

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	attractTicks int
	repelTicks   int

	// Solver substep counter at the last flush
	lastSubsteps int64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: simulated seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64, solver string) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		solver:              solver,
	}
}

// RecordInput records the pointer state of one tick.
func (c *Collector) RecordInput(attract, repel bool) {
	if attract {
		c.attractTicks++
	}
	if repel {
		c.repelTicks++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FluidSample is the solver state read at the end of a window.
type FluidSample struct {
	Positions      []r2.Vec
	Velocities     []r2.Vec
	Densities      []float64
	Bounds         r2.Box
	Polygons       int
	BoundaryPoints int
	Substeps       int64     // substeps run since the solver was initialised
	CellDensity    []float64 // PIC grid densities, nil for SPH
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample FluidSample) WindowStats {
	dens := ComputeDistribution(sample.Densities)
	motion := ComputeMotion(sample.Positions, sample.Velocities, sample.Bounds)
	cells := ComputeOccupancy(sample.CellDensity)

	// A re-initialised solver restarts its counter
	substeps := sample.Substeps - c.lastSubsteps
	if substeps < 0 {
		substeps = sample.Substeps
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Solver:          c.solver,

		Particles: len(sample.Positions),

		DensityMean: dens.Mean,
		DensityStd:  dens.Std,
		DensityP10:  dens.P10,
		DensityP50:  dens.P50,
		DensityP90:  dens.P90,

		MeanSpeed:     motion.MeanSpeed,
		MaxSpeed:      motion.MaxSpeed,
		KineticEnergy: motion.KineticEnergy,
		MomentumX:     motion.Momentum.X,
		MomentumY:     motion.Momentum.Y,
		OutOfBounds:   motion.OutOfBounds,

		Polygons:       sample.Polygons,
		BoundaryPoints: sample.BoundaryPoints,
		Substeps:       substeps,

		OccupiedCells:  cells.Occupied,
		CellDensityMax: cells.Max,

		AttractTicks: c.attractTicks,
		RepelTicks:   c.repelTicks,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.attractTicks = 0
	c.repelTicks = 0
	c.lastSubsteps = sample.Substeps

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
