package boundary

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/components"
)

// CircleSegments is the vertex count used to approximate circle colliders.
const CircleSegments = 20

// Source enumerates the collision bodies of a host scene.
// fn must not retain shapes after it returns.
type Source interface {
	ForEachBody(fn func(tf components.Transform, shapes []components.Shape) error) error
}

// Extract rebuilds b from every body in src. On error b holds a partial scene
// and must not be used for collision.
func Extract(src Source, b *Buffer) error {
	b.Reset()
	return src.ForEachBody(func(tf components.Transform, shapes []components.Shape) error {
		return extractBody(b, tf, shapes)
	})
}

func extractBody(b *Buffer, tf components.Transform, shapes []components.Shape) error {
	// A composite replaces every other collider on its body.
	hasComposite := false
	for i := range shapes {
		if shapes[i].Kind == components.ShapeComposite {
			hasComposite = true
			break
		}
	}

	for i := range shapes {
		s := &shapes[i]
		if hasComposite && s.Kind != components.ShapeComposite {
			continue
		}
		if err := extractShape(b, tf, s); err != nil {
			return err
		}
	}
	return nil
}

func extractShape(b *Buffer, tf components.Transform, s *components.Shape) error {
	switch s.Kind {
	case components.ShapeComposite, components.ShapePolygon:
		for _, path := range s.Paths {
			if err := addPath(b, tf, s.Offset, path, true); err != nil {
				return err
			}
		}
		return nil

	case components.ShapeBox:
		hx, hy := s.Size.X/2, s.Size.Y/2
		corners := [4]r2.Vec{
			{X: hx, Y: -hy},
			{X: hx, Y: hy},
			{X: -hx, Y: hy},
			{X: -hx, Y: -hy},
		}
		return addPath(b, tf, s.Offset, corners[:], true)

	case components.ShapeCircle:
		var pts [CircleSegments]r2.Vec
		for i := range pts {
			theta := 2 * math.Pi * float64(i) / CircleSegments
			pts[i] = r2.Vec{X: s.Radius * math.Cos(theta), Y: s.Radius * math.Sin(theta)}
		}
		return addPath(b, tf, s.Offset, pts[:], true)

	case components.ShapeEdge:
		return addPath(b, tf, s.Offset, s.Points, false)
	}
	return fmt.Errorf("%w: %v", ErrUnknownShape, s.Kind)
}

// addPath transforms a body-local path to world space and appends it.
func addPath(b *Buffer, tf components.Transform, offset r2.Vec, path []r2.Vec, closed bool) error {
	if _, err := b.begin(len(path)); err != nil {
		return err
	}
	for _, p := range path {
		b.Points = append(b.Points, tf.Apply(r2.Add(p, offset)))
	}
	b.end(closed)
	return nil
}
