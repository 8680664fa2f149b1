package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Solver          string  `csv:"solver"`

	Particles int `csv:"particles"`

	// Density distribution (sampled at window end)
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityP10  float64 `csv:"density_p10"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`

	// Motion (sampled at window end)
	MeanSpeed     float64 `csv:"mean_speed"`
	MaxSpeed      float64 `csv:"max_speed"`
	KineticEnergy float64 `csv:"kinetic_energy"` // unit mass per particle
	MomentumX     float64 `csv:"momentum_x"`
	MomentumY     float64 `csv:"momentum_y"`
	OutOfBounds   int     `csv:"out_of_bounds"`

	// Boundary geometry
	Polygons       int   `csv:"polygons"`
	BoundaryPoints int   `csv:"boundary_points"`
	Substeps       int64 `csv:"substeps"`

	// PIC grid (zero for SPH)
	OccupiedCells  int     `csv:"occupied_cells"`
	CellDensityMax float64 `csv:"cell_density_max"`

	// Events during window
	AttractTicks int `csv:"attract_ticks"`
	RepelTicks   int `csv:"repel_ticks"`
}

// Distribution summarises a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistribution returns mean, standard deviation and empirical percentiles.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var d Distribution
	if n == 1 {
		d.Mean = sorted[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	}
	d.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return d
}

// MotionStats holds kinematic totals over all particles.
type MotionStats struct {
	MeanSpeed     float64
	MaxSpeed      float64
	KineticEnergy float64
	Momentum      r2.Vec
	OutOfBounds   int
}

// ComputeMotion sums speed, energy and momentum with unit particle mass.
// Particles strictly outside bounds are counted as escaped.
func ComputeMotion(pos, vel []r2.Vec, bounds r2.Box) MotionStats {
	n := len(vel)
	if n == 0 {
		return MotionStats{}
	}

	speeds := make([]float64, n)
	energies := make([]float64, n)
	vx := make([]float64, n)
	vy := make([]float64, n)
	for i, v := range vel {
		speeds[i] = r2.Norm(v)
		energies[i] = 0.5 * r2.Norm2(v)
		vx[i], vy[i] = v.X, v.Y
	}

	out := 0
	for _, p := range pos {
		if p.X < bounds.Min.X || p.X > bounds.Max.X || p.Y < bounds.Min.Y || p.Y > bounds.Max.Y {
			out++
		}
	}

	return MotionStats{
		MeanSpeed:     floats.Sum(speeds) / float64(n),
		MaxSpeed:      floats.Max(speeds),
		KineticEnergy: floats.Sum(energies),
		Momentum:      r2.Vec{X: floats.Sum(vx), Y: floats.Sum(vy)},
		OutOfBounds:   out,
	}
}

// Occupancy summarises a density grid.
type Occupancy struct {
	Occupied int // cells with non-zero density
	Max      float64
}

// ComputeOccupancy counts filled cells and the densest one.
func ComputeOccupancy(cells []float64) Occupancy {
	if len(cells) == 0 {
		return Occupancy{}
	}
	o := Occupancy{Max: floats.Max(cells)}
	for _, d := range cells {
		if d > 0 {
			o.Occupied++
		}
	}
	return o
}

// finite replaces NaN and infinities so a blown-up solver still logs.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return -1
	}
	return v
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.String("solver", s.Solver),
		slog.Int("particles", s.Particles),
		slog.Float64("density_mean", finite(s.DensityMean)),
		slog.Float64("density_std", finite(s.DensityStd)),
		slog.Float64("density_p10", finite(s.DensityP10)),
		slog.Float64("density_p50", finite(s.DensityP50)),
		slog.Float64("density_p90", finite(s.DensityP90)),
		slog.Float64("mean_speed", finite(s.MeanSpeed)),
		slog.Float64("max_speed", finite(s.MaxSpeed)),
		slog.Float64("kinetic_energy", finite(s.KineticEnergy)),
		slog.Float64("momentum_x", finite(s.MomentumX)),
		slog.Float64("momentum_y", finite(s.MomentumY)),
		slog.Int("out_of_bounds", s.OutOfBounds),
		slog.Int("polygons", s.Polygons),
		slog.Int("boundary_points", s.BoundaryPoints),
		slog.Int64("substeps", s.Substeps),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Float64("cell_density_max", finite(s.CellDensityMax)),
		slog.Int("attract_ticks", s.AttractTicks),
		slog.Int("repel_ticks", s.RepelTicks),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"solver", s.Solver,
		"particles", s.Particles,
		"density_mean", finite(s.DensityMean),
		"density_p10", finite(s.DensityP10),
		"density_p50", finite(s.DensityP50),
		"density_p90", finite(s.DensityP90),
		"max_speed", finite(s.MaxSpeed),
		"kinetic_energy", finite(s.KineticEnergy),
		"out_of_bounds", s.OutOfBounds,
		"polygons", s.Polygons,
		"substeps", s.Substeps,
		"occupied_cells", s.OccupiedCells,
	)
}
