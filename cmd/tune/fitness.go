package main

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/game"
	"github.com/pthm-cable/fluid/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality runQuality
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 1.0,
	}
}

// runQuality summarises one headless run.
type runQuality struct {
	SettleEnergy float64 // mean kinetic energy per particle over the settled windows
	DensityError float64 // |median density - target| / target
	Escaped      int     // max particles outside the bounds in any window
	Failed       bool
}

// LastQuality returns the averaged quality of the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() runQuality {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// settleWindows is how many trailing windows count as settled.
const settleWindows = 3

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runQuality, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runQuality
	var total float64
	for _, r := range results {
		total += computeFitness(r)
		avg.SettleEnergy += r.SettleEnergy / float64(len(results))
		avg.DensityError += r.DensityError / float64(len(results))
		avg.Escaped = max(avg.Escaped, r.Escaped)
		avg.Failed = avg.Failed || r.Failed
	}

	fe.mu.Lock()
	fe.lastQuality = avg
	fe.mu.Unlock()

	return total / float64(len(results))
}

// runSimulation executes a single headless run from a jittered start offset.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runQuality {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	rng := rand.New(rand.NewSource(seed))
	cfg.Placement.InitOffsetX += (rng.Float64() - 0.5) * cfg.World.Width * 0.25
	cfg.Placement.InitOffsetY += (rng.Float64() - 0.5) * cfg.World.Height * 0.1

	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(game.Options{
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return runQuality{Failed: true}
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		if err := g.UpdateHeadless(); err != nil {
			return runQuality{Failed: true}
		}
	}
	return summarize(windows, cfg.Fluid.TargetDensity)
}

// summarize scores the trailing windows of a run.
func summarize(windows []telemetry.WindowStats, target float64) runQuality {
	if len(windows) == 0 {
		return runQuality{Failed: true}
	}

	var q runQuality
	for _, w := range windows {
		q.Escaped = max(q.Escaped, w.OutOfBounds)
	}

	tail := windows[max(0, len(windows)-settleWindows):]
	energy := make([]float64, len(tail))
	density := make([]float64, len(tail))
	for i, w := range tail {
		if w.Particles > 0 {
			energy[i] = w.KineticEnergy / float64(w.Particles)
		}
		density[i] = w.DensityP50
	}
	q.SettleEnergy = stat.Mean(energy, nil)
	if target > 0 {
		q.DensityError = math.Abs(stat.Mean(density, nil)-target) / target
	}
	if math.IsNaN(q.SettleEnergy) || math.IsInf(q.SettleEnergy, 0) {
		q.Failed = true
	}
	return q
}

// computeFitness calculates the scalar fitness (lower = better).
// Settled energy dominates; density error and leaks are penalties.
func computeFitness(q runQuality) float64 {
	if q.Failed {
		return 1e9
	}
	return q.SettleEnergy + 2*q.DensityError + 10*float64(q.Escaped)
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Scene.Bodies = append([]config.BodyConfig(nil), fe.baseConfig.Scene.Bodies...)
	return &cfg
}

func (q runQuality) String() string {
	if q.Failed {
		return "failed"
	}
	return fmt.Sprintf("settle_ke=%.4f density_err=%.3f escaped=%d", q.SettleEnergy, q.DensityError, q.Escaped)
}
