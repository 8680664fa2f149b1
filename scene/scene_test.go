package scene

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/boundary"
	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/config"
)

// Scene must satisfy the extractor's source contract.
var _ boundary.Source = (*Scene)(nil)

func TestFromConfigDefaults(t *testing.T) {
	cfg := config.Default()
	s := FromConfig(cfg.Scene)
	if s.Len() != len(cfg.Scene.Bodies) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(cfg.Scene.Bodies))
	}

	b := boundary.NewBuffer()
	if err := boundary.Extract(s, b); err != nil {
		t.Fatalf("Extract default scene: %v", err)
	}
	if b.NumPolygons() != len(cfg.Scene.Bodies) {
		t.Errorf("NumPolygons() = %d, want one per default body", b.NumPolygons())
	}
}

func TestAdvanceMovesKinematicBodies(t *testing.T) {
	s := New()
	s.AddBody("spinner", components.Transform{}, components.Motion{
		Velocity:        r2.Vec{X: 2},
		AngularVelocity: math.Pi,
	}, []components.Shape{{Kind: components.ShapeBox, Size: r2.Vec{X: 2, Y: 2}}})
	s.AddBody("static", components.Transform{Position: r2.Vec{Y: 5}}, components.Motion{}, nil)

	s.Advance(0.5)

	var got []components.Transform
	err := s.ForEachBody(func(tf components.Transform, shapes []components.Shape) error {
		got = append(got, tf)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("visited %d bodies, want 2", len(got))
	}

	for _, tf := range got {
		if tf.Scale != (r2.Vec{X: 1, Y: 1}) {
			t.Errorf("zero scale not defaulted: %v", tf.Scale)
		}
		switch tf.Position.Y {
		case 5:
			if tf.Position.X != 0 || tf.Rotation != 0 {
				t.Errorf("static body moved: %+v", tf)
			}
		default:
			if math.Abs(tf.Position.X-1) > 1e-12 || math.Abs(tf.Rotation-math.Pi/2) > 1e-12 {
				t.Errorf("spinner = %+v, want x=1 rotation=pi/2", tf)
			}
		}
	}
}

func TestForEachBodyStopsOnError(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		s.AddBody("b", components.Transform{}, components.Motion{}, nil)
	}

	stop := errors.New("stop")
	calls := 0
	err := s.ForEachBody(func(components.Transform, []components.Shape) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("ForEachBody = %v after %d calls, want stop after 1", err, calls)
	}

	// The world must be usable again after an early exit
	s.AddBody("late", components.Transform{}, components.Motion{}, nil)
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestUnknownColliderSurfacesOnExtract(t *testing.T) {
	s := FromConfig(config.SceneConfig{Bodies: []config.BodyConfig{{
		Name:      "blob",
		Colliders: []config.ColliderConfig{{Kind: "capsule"}},
	}}})

	err := boundary.Extract(s, boundary.NewBuffer())
	if !errors.Is(err, boundary.ErrUnknownShape) {
		t.Errorf("Extract() = %v, want ErrUnknownShape", err)
	}
}

func TestRemoveBody(t *testing.T) {
	s := New()
	a := s.AddBody("a", components.Transform{}, components.Motion{}, nil)
	b := s.AddBody("b", components.Transform{}, components.Motion{}, nil)

	if err := s.RemoveBody("a"); err != nil {
		t.Fatal(err)
	}
	if s.world.Alive(a) {
		t.Error("removed body's entity is still alive")
	}
	if !s.world.Alive(b) {
		t.Error("remaining body's entity was removed")
	}
	if err := s.RemoveBody("a"); err == nil {
		t.Error("removing a missing body should fail")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
