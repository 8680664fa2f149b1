// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Solver      SolverConfig      `yaml:"solver"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Fluid       FluidConfig       `yaml:"fluid"`
	World       WorldConfig       `yaml:"world"`
	Interaction InteractionConfig `yaml:"interaction"`
	Placement   PlacementConfig   `yaml:"placement"`
	Render      RenderConfig      `yaml:"render"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Scene       SceneConfig       `yaml:"scene"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SolverConfig selects the solver variant and the compute device size.
type SolverConfig struct {
	Kind    string `yaml:"kind"`    // "sph" or "pic"
	Workers int    `yaml:"workers"` // 0 = GOMAXPROCS
}

// PhysicsConfig holds tick timing and global forces.
type PhysicsConfig struct {
	DeltaTime        float64 `yaml:"delta_time"`         // seconds advanced per substep
	PredictDeltaTime float64 `yaml:"predict_delta_time"` // lookahead used for neighbour search
	SubStepCount     int     `yaml:"sub_step_count"`
	Gravity          float64 `yaml:"gravity"` // magnitude, applied along -Y
}

// FluidConfig holds the pressure/viscosity model parameters.
type FluidConfig struct {
	InteractionRadius      float64 `yaml:"interaction_radius"`
	TargetDensity          float64 `yaml:"target_density"`
	PressureStiffness      float64 `yaml:"pressure_stiffness"`
	NearPressureStiffness  float64 `yaml:"near_pressure_stiffness"`
	ViscosityStrength      float64 `yaml:"viscosity_strength"`
	RelaxPositionRadius    float64 `yaml:"relax_position_radius"`
	RelaxPositionStiffness float64 `yaml:"relax_position_stiffness"`
	CollisionDamping       float64 `yaml:"collision_damping"` // 0..1
	CellSize               float64 `yaml:"cell_size"`         // PIC grid cell size
}

// WorldConfig holds the outer bounds, centred on the origin.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// InteractionConfig holds pointer forcing parameters.
type InteractionConfig struct {
	ControlRadius   float64 `yaml:"control_radius"`
	ControlStrength float64 `yaml:"control_strength"`
}

// PlacementConfig holds the initial particle block layout.
type PlacementConfig struct {
	NumParticles int     `yaml:"num_particles"`
	Spacing      float64 `yaml:"spacing"`
	InitOffsetX  float64 `yaml:"init_offset_x"`
	InitOffsetY  float64 `yaml:"init_offset_y"`
}

// RenderConfig holds particle renderer settings.
type RenderConfig struct {
	Kind         string  `yaml:"kind"`
	CircleRadius float64 `yaml:"circle_radius"` // world units
	MaxSpeed     float64 `yaml:"max_speed"`     // speed mapped to the top of the colour map
	Transparency float64 `yaml:"transparency"`  // 0..1
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds of simulated time per stats window
	PerfWindow  int     `yaml:"perf_window"`  // ticks in the perf rolling window
}

// SceneConfig describes the collision bodies placed in the host scene.
type SceneConfig struct {
	Bodies []BodyConfig `yaml:"bodies"`
}

// BodyConfig is one rigid body with its attached colliders.
type BodyConfig struct {
	Name            string           `yaml:"name"`
	Position        [2]float64       `yaml:"position"`
	Rotation        float64          `yaml:"rotation"` // degrees
	Scale           [2]float64       `yaml:"scale"`    // zero = (1, 1)
	Velocity        [2]float64       `yaml:"velocity"`
	AngularVelocity float64          `yaml:"angular_velocity"` // degrees per second
	Colliders       []ColliderConfig `yaml:"colliders"`
}

// ColliderConfig is a single collider shape. Which fields apply depends on Kind:
// box (offset, size), circle (offset, radius), polygon/composite (paths), edge (points).
type ColliderConfig struct {
	Kind   string         `yaml:"kind"`
	Offset [2]float64     `yaml:"offset"`
	Size   [2]float64     `yaml:"size"`
	Radius float64        `yaml:"radius"`
	Paths  [][][2]float64 `yaml:"paths"`
	Points [][2]float64   `yaml:"points"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	Bounds    r2.Box  // World bounds centred on the origin
	TickDT    float64 // Simulated seconds per physics tick (all substeps)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports the first non-physical parameter.
func (c *Config) Validate() error {
	switch {
	case c.Placement.NumParticles < 1:
		return fmt.Errorf("%w: placement.num_particles must be >= 1, got %d", ErrInvalid, c.Placement.NumParticles)
	case c.Physics.SubStepCount < 1:
		return fmt.Errorf("%w: physics.sub_step_count must be >= 1, got %d", ErrInvalid, c.Physics.SubStepCount)
	case c.Physics.DeltaTime <= 0 || c.Physics.PredictDeltaTime < 0:
		return fmt.Errorf("%w: physics.delta_time must be > 0 and predict_delta_time >= 0", ErrInvalid)
	case c.Fluid.InteractionRadius <= 0:
		return fmt.Errorf("%w: fluid.interaction_radius must be > 0", ErrInvalid)
	case c.Solver.Kind == "pic" && c.Fluid.CellSize <= 0:
		return fmt.Errorf("%w: fluid.cell_size must be > 0 for the pic solver", ErrInvalid)
	case c.Fluid.CollisionDamping < 0 || c.Fluid.CollisionDamping > 1:
		return fmt.Errorf("%w: fluid.collision_damping must be in [0, 1], got %g", ErrInvalid, c.Fluid.CollisionDamping)
	case c.Fluid.RelaxPositionRadius < 0:
		return fmt.Errorf("%w: fluid.relax_position_radius must be >= 0", ErrInvalid)
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("%w: world bounds must be positive, got %gx%g", ErrInvalid, c.World.Width, c.World.Height)
	case c.Solver.Workers < 0:
		return fmt.Errorf("%w: solver.workers must be >= 0", ErrInvalid)
	}

	// Relaxation reuses the neighbour grid, so it cannot reach further than one cell.
	limit := c.Fluid.InteractionRadius
	if c.Solver.Kind == "pic" {
		limit = c.Fluid.CellSize
	}
	if c.Fluid.RelaxPositionRadius > limit {
		return fmt.Errorf("%w: fluid.relax_position_radius %g exceeds neighbour radius %g",
			ErrInvalid, c.Fluid.RelaxPositionRadius, limit)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	hw, hh := c.World.Width/2, c.World.Height/2
	c.Derived.Bounds = r2.Box{
		Min: r2.Vec{X: -hw, Y: -hh},
		Max: r2.Vec{X: hw, Y: hh},
	}
	c.Derived.TickDT = c.Physics.DeltaTime * float64(c.Physics.SubStepCount)

	for i := range c.Scene.Bodies {
		b := &c.Scene.Bodies[i]
		if b.Scale == [2]float64{} {
			b.Scale = [2]float64{1, 1}
		}
	}
}

// Radians converts a config angle in degrees.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
