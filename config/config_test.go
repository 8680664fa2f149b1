package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Solver.Kind != "sph" {
		t.Errorf("Solver.Kind = %q, want sph", cfg.Solver.Kind)
	}
	if cfg.Physics.SubStepCount != 4 {
		t.Errorf("SubStepCount = %d, want 4", cfg.Physics.SubStepCount)
	}
	if math.Abs(cfg.Physics.DeltaTime-1.0/120) > 1e-6 {
		t.Errorf("DeltaTime = %v, want 1/120", cfg.Physics.DeltaTime)
	}
	if cfg.Derived.Bounds.Min.X != -cfg.World.Width/2 || cfg.Derived.Bounds.Max.Y != cfg.World.Height/2 {
		t.Errorf("Bounds = %+v, not centred on the origin", cfg.Derived.Bounds)
	}
	if len(cfg.Scene.Bodies) == 0 {
		t.Fatal("expected default scene bodies")
	}
	for _, b := range cfg.Scene.Bodies {
		if b.Scale != [2]float64{1, 1} {
			t.Errorf("body %q scale = %v, want default (1, 1)", b.Name, b.Scale)
		}
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yaml")
	data := []byte("solver:\n  kind: pic\nplacement:\n  num_particles: 100\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.Kind != "pic" {
		t.Errorf("Solver.Kind = %q, want pic", cfg.Solver.Kind)
	}
	if cfg.Placement.NumParticles != 100 {
		t.Errorf("NumParticles = %d, want 100", cfg.Placement.NumParticles)
	}
	// Untouched keys keep their defaults
	if cfg.Fluid.InteractionRadius != 0.25 {
		t.Errorf("InteractionRadius = %v, want default 0.25", cfg.Fluid.InteractionRadius)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no particles", func(c *Config) { c.Placement.NumParticles = 0 }},
		{"no substeps", func(c *Config) { c.Physics.SubStepCount = 0 }},
		{"zero radius", func(c *Config) { c.Fluid.InteractionRadius = 0 }},
		{"damping above one", func(c *Config) { c.Fluid.CollisionDamping = 1.5 }},
		{"negative damping", func(c *Config) { c.Fluid.CollisionDamping = -0.1 }},
		{"empty world", func(c *Config) { c.World.Width = 0 }},
		{"relax beyond radius", func(c *Config) { c.Fluid.RelaxPositionRadius = 1 }},
		{"pic without cell size", func(c *Config) {
			c.Solver.Kind = "pic"
			c.Fluid.CellSize = 0
		}},
		{"relax beyond pic cell", func(c *Config) {
			c.Solver.Kind = "pic"
			c.Fluid.CellSize = 0.05
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}

	// SPH never reads the PIC cell size
	sph := Default()
	sph.Fluid.CellSize = 0
	if err := sph.Validate(); err != nil {
		t.Errorf("sph with no cell size should validate, got %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Fluid.TargetDensity = 321

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Fluid.TargetDensity != 321 {
		t.Errorf("TargetDensity = %v, want 321", loaded.Fluid.TargetDensity)
	}
	if len(loaded.Scene.Bodies) != len(cfg.Scene.Bodies) {
		t.Errorf("bodies = %d, want %d", len(loaded.Scene.Bodies), len(cfg.Scene.Bodies))
	}
}

func TestRadians(t *testing.T) {
	if got := Radians(180); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("Radians(180) = %v, want pi", got)
	}
}
