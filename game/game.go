// Package game wires the host scene, the fluid solver, the renderer and telemetry
// into the viewer and headless run loops.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/fluid/camera"
	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/renderer"
	"github.com/pthm-cable/fluid/scene"
	"github.com/pthm-cable/fluid/sim"
	"github.com/pthm-cable/fluid/telemetry"
)

// Options configures a game instance.
type Options struct {
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
	Solver         string         // overrides solver.kind when set
	Config         *config.Config // nil = config.Cfg()

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	kind string

	scene  *scene.Scene
	solver sim.Solver

	// Rendering (nil when headless)
	renderer renderer.Renderer
	camera   *camera.Camera

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	statsCallback    func(telemetry.WindowStats)

	// State
	tick           int32
	paused         bool
	headless       bool
	stepsPerUpdate int
	input          sim.Input
	pending        *sim.Params // panel edits applied before the next tick

	// Window dimensions
	screenWidth, screenHeight float32
}

// NewGameWithOptions builds the scene and solver and initialises the solver.
// The renderer is created only when not headless, after the window exists.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	kind := cfg.Solver.Kind
	if opts.Solver != "" {
		kind = opts.Solver
	}
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:              cfg,
		kind:             kind,
		scene:            scene.FromConfig(cfg.Scene),
		collector:        telemetry.NewCollector(statsWindow, cfg.Derived.TickDT, kind),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
		headless:         opts.Headless,
		stepsPerUpdate:   steps,
		screenWidth:      cfg.Derived.ScreenW32,
		screenHeight:     cfg.Derived.ScreenH32,
	}

	solver, err := sim.New(kind, sim.ParamsFromConfig(cfg), g.scene)
	if err != nil {
		return nil, err
	}
	solver.SetProfiler(g.perfCollector)
	if err := solver.Initialize(); err != nil {
		return nil, fmt.Errorf("initialising %s solver: %w", kind, err)
	}
	g.solver = solver

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			g.Unload()
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		g.outputManager = om
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	if !opts.Headless {
		r, err := renderer.New(cfg.Render)
		if err != nil {
			g.Unload()
			return nil, err
		}
		r.Init()
		g.renderer = r
		g.camera = camera.New(g.screenWidth, g.screenHeight, cfg.Derived.Bounds)
	}

	slog.Info("solver initialised",
		"solver", kind,
		"particles", solver.NumParticles(),
		"substeps", cfg.Physics.SubStepCount,
		"bodies", g.scene.Len(),
	)
	return g, nil
}

// Update samples input and runs stepsPerUpdate ticks unless paused.
func (g *Game) Update() error {
	g.handleInput()
	if g.paused {
		return nil
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.simulationStep(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateHeadless runs stepsPerUpdate ticks with no pointer input.
func (g *Game) UpdateHeadless() error {
	g.input = sim.Input{}
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.simulationStep(); err != nil {
			return err
		}
	}
	return nil
}

// simulationStep runs a single physics tick.
func (g *Game) simulationStep() error {
	if g.pending != nil {
		if err := g.solver.SetParams(*g.pending); err != nil {
			slog.Warn("rejected parameter change", "error", err)
		}
		g.pending = nil
	}

	g.perfCollector.StartTick()

	// Kinematic bodies move before the boundary is extracted
	g.perfCollector.StartPhase(telemetry.PhaseScene)
	g.scene.Advance(g.cfg.Derived.TickDT)

	if err := g.solver.Step(g.input); err != nil {
		return fmt.Errorf("tick %d: %w", g.tick, err)
	}
	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordInput(g.input.Attract, g.input.Repel)
	g.flushTelemetry()

	g.perfCollector.EndTick()
	return nil
}

// Reset re-places every particle by re-initialising the solver.
func (g *Game) Reset() error {
	g.solver.Cleanup()
	if err := g.solver.Initialize(); err != nil {
		return fmt.Errorf("resetting solver: %w", err)
	}
	slog.Info("solver reset", "tick", g.tick)
	return nil
}

// Unload releases all resources.
func (g *Game) Unload() {
	if g.solver != nil {
		g.solver.Cleanup()
	}
	if g.renderer != nil {
		g.renderer.Unload()
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Solver returns the running solver.
func (g *Game) Solver() sim.Solver {
	return g.solver
}
