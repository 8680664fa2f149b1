// Package scene holds the collision bodies the fluid interacts with.
//
// Bodies are ark entities carrying Body, Transform, Motion and Colliders.
// Kinematic bodies advance every tick through Advance, and the scene feeds the
// boundary extractor through ForEachBody.
package scene

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/config"
)

// Scene is an ECS world of collision bodies.
type Scene struct {
	world *ecs.World

	bodyMapper *ecs.Map4[
		components.Body,
		components.Transform,
		components.Motion,
		components.Colliders,
	]
	colliderFilter *ecs.Filter2[components.Transform, components.Colliders]
	motionFilter   *ecs.Filter2[components.Transform, components.Motion]
	bodyMap        *ecs.Map1[components.Body]

	bodies []ecs.Entity
}

// New creates an empty scene.
func New() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world: world,
		bodyMapper: ecs.NewMap4[
			components.Body,
			components.Transform,
			components.Motion,
			components.Colliders,
		](world),
		colliderFilter: ecs.NewFilter2[components.Transform, components.Colliders](world),
		motionFilter:   ecs.NewFilter2[components.Transform, components.Motion](world),
		bodyMap:        ecs.NewMap1[components.Body](world),
	}
}

// FromConfig builds a scene from the configured bodies. Collider kinds are parsed
// but not checked; unknown kinds surface as extraction errors.
func FromConfig(cfg config.SceneConfig) *Scene {
	s := New()
	for i := range cfg.Bodies {
		bc := &cfg.Bodies[i]
		tf := components.Transform{
			Position: vec(bc.Position),
			Rotation: config.Radians(bc.Rotation),
			Scale:    vec(bc.Scale),
		}
		motion := components.Motion{
			Velocity:        vec(bc.Velocity),
			AngularVelocity: config.Radians(bc.AngularVelocity),
		}
		s.AddBody(bc.Name, tf, motion, shapesFromConfig(bc.Colliders))
	}
	return s
}

func vec(v [2]float64) r2.Vec {
	return r2.Vec{X: v[0], Y: v[1]}
}

func shapesFromConfig(cols []config.ColliderConfig) []components.Shape {
	shapes := make([]components.Shape, len(cols))
	for i, c := range cols {
		shape := components.Shape{
			Kind:   components.ParseShapeKind(c.Kind),
			Offset: vec(c.Offset),
			Size:   vec(c.Size),
			Radius: c.Radius,
		}
		for _, path := range c.Paths {
			pts := make([]r2.Vec, len(path))
			for j, p := range path {
				pts[j] = vec(p)
			}
			shape.Paths = append(shape.Paths, pts)
		}
		for _, p := range c.Points {
			shape.Points = append(shape.Points, vec(p))
		}
		shapes[i] = shape
	}
	return shapes
}

// AddBody creates a body entity. A zero Scale is treated as (1, 1).
func (s *Scene) AddBody(name string, tf components.Transform, motion components.Motion, shapes []components.Shape) ecs.Entity {
	if tf.Scale == (r2.Vec{}) {
		tf.Scale = r2.Vec{X: 1, Y: 1}
	}
	body := components.Body{Name: name}
	cols := components.Colliders{Shapes: shapes}
	e := s.bodyMapper.NewEntity(&body, &tf, &motion, &cols)
	s.bodies = append(s.bodies, e)
	return e
}

// RemoveBody deletes a body by name.
func (s *Scene) RemoveBody(name string) error {
	for i, e := range s.bodies {
		if s.bodyMap.Get(e).Name != name {
			continue
		}
		s.world.RemoveEntity(e)
		s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
		return nil
	}
	return fmt.Errorf("scene: no body named %q", name)
}

// Len returns the number of bodies.
func (s *Scene) Len() int {
	return len(s.bodies)
}

// Advance moves every kinematic body by dt seconds.
func (s *Scene) Advance(dt float64) {
	query := s.motionFilter.Query()
	for query.Next() {
		tf, motion := query.Get()
		tf.Position = r2.Add(tf.Position, r2.Scale(dt, motion.Velocity))
		tf.Rotation += motion.AngularVelocity * dt
	}
}

// ForEachBody calls fn with the transform and colliders of every body.
// Iteration stops at the first error, which is returned.
func (s *Scene) ForEachBody(fn func(tf components.Transform, shapes []components.Shape) error) error {
	query := s.colliderFilter.Query()
	for query.Next() {
		tf, cols := query.Get()
		if err := fn(*tf, cols.Shapes); err != nil {
			query.Close()
			return err
		}
	}
	return nil
}
