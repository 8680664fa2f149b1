package components

import "gonum.org/v1/gonum/spatial/r2"

// Body identifies a scene body.
type Body struct {
	Name string
}

// ShapeKind selects how a collider is turned into boundary polygons.
type ShapeKind uint8

const (
	ShapeUnknown   ShapeKind = iota
	ShapeComposite           // closed polygon per path; overrides all other colliders on the body
	ShapePolygon             // closed polygon per path
	ShapeBox                 // Offset, Size
	ShapeCircle              // Offset, Radius
	ShapeEdge                // open chain through Points
)

var shapeNames = [...]string{
	ShapeUnknown:   "unknown",
	ShapeComposite: "composite",
	ShapePolygon:   "polygon",
	ShapeBox:       "box",
	ShapeCircle:    "circle",
	ShapeEdge:      "edge",
}

func (k ShapeKind) String() string {
	if int(k) < len(shapeNames) {
		return shapeNames[k]
	}
	return "unknown"
}

// ParseShapeKind maps a config name to a kind. Unrecognised names give ShapeUnknown.
func ParseShapeKind(name string) ShapeKind {
	for k, n := range shapeNames {
		if n == name && k != int(ShapeUnknown) {
			return ShapeKind(k)
		}
	}
	return ShapeUnknown
}

// Shape is one collider in body-local coordinates.
type Shape struct {
	Kind   ShapeKind
	Offset r2.Vec
	Size   r2.Vec
	Radius float64
	Paths  [][]r2.Vec
	Points []r2.Vec
}

// Colliders lists every shape attached to a body.
type Colliders struct {
	Shapes []Shape
}
