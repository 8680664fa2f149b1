// Package boundary turns scene colliders into world-space polygons and resolves
// particle collisions against them.
package boundary

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Capacity of the polygon buffer.
const (
	MaxPoints   = 4096
	MaxPolygons = MaxPoints / 3
)

var (
	// ErrBoundaryCapacity is returned when the scene needs more points or polygons than the buffer holds.
	ErrBoundaryCapacity = errors.New("boundary: capacity exceeded")
	// ErrUnknownShape is returned for a collider kind the extractor cannot convert.
	ErrUnknownShape = errors.New("boundary: unknown collider shape")
)

// Buffer is a flat list of polygons: all points back to back, plus the cumulative
// end offset of every polygon. Open polygons (edge chains) have no closing edge.
type Buffer struct {
	Points []r2.Vec
	Ends   []int
	Closed []bool
}

// NewBuffer returns an empty buffer preallocated to full capacity.
func NewBuffer() *Buffer {
	return &Buffer{
		Points: make([]r2.Vec, 0, MaxPoints),
		Ends:   make([]int, 0, MaxPolygons),
		Closed: make([]bool, 0, MaxPolygons),
	}
}

// Reset empties the buffer without releasing storage.
func (b *Buffer) Reset() {
	b.Points = b.Points[:0]
	b.Ends = b.Ends[:0]
	b.Closed = b.Closed[:0]
}

// NumPolygons returns the polygon count.
func (b *Buffer) NumPolygons() int { return len(b.Ends) }

// NumPoints returns the total point count.
func (b *Buffer) NumPoints() int { return len(b.Points) }

// Polygon returns the points of polygon i and whether it is closed.
func (b *Buffer) Polygon(i int) ([]r2.Vec, bool) {
	start := 0
	if i > 0 {
		start = b.Ends[i-1]
	}
	return b.Points[start:b.Ends[i]], b.Closed[i]
}

// begin checks capacity for a polygon of n points and returns the write start.
func (b *Buffer) begin(n int) (int, error) {
	if len(b.Ends)+1 > MaxPolygons {
		return 0, fmt.Errorf("%w: more than %d polygons", ErrBoundaryCapacity, MaxPolygons)
	}
	if len(b.Points)+n > MaxPoints {
		return 0, fmt.Errorf("%w: more than %d points", ErrBoundaryCapacity, MaxPoints)
	}
	return len(b.Points), nil
}

// end closes the polygon opened by begin.
func (b *Buffer) end(closed bool) {
	b.Ends = append(b.Ends, len(b.Points))
	b.Closed = append(b.Closed, closed)
}

// Add appends one polygon given in world space.
func (b *Buffer) Add(points []r2.Vec, closed bool) error {
	if _, err := b.begin(len(points)); err != nil {
		return err
	}
	b.Points = append(b.Points, points...)
	b.end(closed)
	return nil
}
