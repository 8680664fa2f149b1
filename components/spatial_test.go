package components

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestTransformApply(t *testing.T) {
	tests := []struct {
		name  string
		tf    Transform
		local r2.Vec
		want  r2.Vec
	}{
		{"identity", Transform{Scale: r2.Vec{X: 1, Y: 1}}, r2.Vec{X: 2, Y: 3}, r2.Vec{X: 2, Y: 3}},
		{"translate", Transform{Position: r2.Vec{X: 1, Y: -1}, Scale: r2.Vec{X: 1, Y: 1}}, r2.Vec{X: 1}, r2.Vec{X: 2, Y: -1}},
		{"quarter turn", Transform{Rotation: math.Pi / 2, Scale: r2.Vec{X: 1, Y: 1}}, r2.Vec{X: 1}, r2.Vec{Y: 1}},
		{"scale then rotate", Transform{Rotation: math.Pi, Scale: r2.Vec{X: 2, Y: 3}}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: -2, Y: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tf.Apply(tt.local)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("Apply(%v) = %v, want %v", tt.local, got, tt.want)
			}
		})
	}
}

func TestParseShapeKind(t *testing.T) {
	for _, k := range []ShapeKind{ShapeComposite, ShapePolygon, ShapeBox, ShapeCircle, ShapeEdge} {
		if got := ParseShapeKind(k.String()); got != k {
			t.Errorf("ParseShapeKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if got := ParseShapeKind("capsule"); got != ShapeUnknown {
		t.Errorf("ParseShapeKind(capsule) = %v, want unknown", got)
	}
	if got := ParseShapeKind("unknown"); got != ShapeUnknown {
		t.Errorf("ParseShapeKind(unknown) = %v, want unknown", got)
	}
}
