package boundary

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// skin keeps resolved particles strictly on the open side of a surface.
const skin = 1e-4

// Resolve moves a particle from prev to next against every polygon in b and
// then clamps it to bounds. It returns the final position and velocity.
// The velocity component along a contact normal is reflected and scaled by damping.
func (b *Buffer) Resolve(prev, next, vel r2.Vec, bounds r2.Box, damping float64) (r2.Vec, r2.Vec) {
	pos := next

	// Swept test: earliest crossing of any edge along prev -> next
	if t, n, ok := b.firstHit(prev, next); ok {
		hit := r2.Add(prev, r2.Scale(t, r2.Sub(next, prev)))
		pos = r2.Add(hit, r2.Scale(skin, n))
		vel = reflect(vel, n, damping)
	}

	// Push out of closed polygons the particle still ends up inside
	for i := 0; i < b.NumPolygons(); i++ {
		pts, closed := b.Polygon(i)
		if !closed || len(pts) < 3 || !contains(pts, pos) {
			continue
		}
		nearest := closestOnPolygon(pts, pos)
		n := r2.Sub(nearest, pos)
		d := r2.Norm(n)
		if d == 0 {
			continue
		}
		n = r2.Scale(1/d, n)
		pos = r2.Add(nearest, r2.Scale(skin, n))
		vel = reflect(vel, n, damping)
	}

	return clampBounds(pos, vel, bounds, damping)
}

// firstHit returns the smallest t in [0, 1] at which prev -> next crosses an edge,
// with the edge normal facing prev.
func (b *Buffer) firstHit(prev, next r2.Vec) (float64, r2.Vec, bool) {
	motion := r2.Sub(next, prev)
	if motion == (r2.Vec{}) {
		return 0, r2.Vec{}, false
	}

	best := math.Inf(1)
	var bestN r2.Vec
	for i := 0; i < b.NumPolygons(); i++ {
		pts, closed := b.Polygon(i)
		edges := len(pts) - 1
		if closed {
			edges = len(pts)
		}
		for e := 0; e < edges; e++ {
			a, c := pts[e], pts[(e+1)%len(pts)]
			t, ok := segmentHit(prev, motion, a, c)
			if !ok || t >= best {
				continue
			}
			best = t
			bestN = facingNormal(a, c, prev, motion)
		}
	}
	if math.IsInf(best, 1) {
		return 0, r2.Vec{}, false
	}
	return best, bestN, true
}

// segmentHit intersects p + t*d (t in [0, 1]) with segment a-c.
func segmentHit(p, d, a, c r2.Vec) (float64, bool) {
	e := r2.Sub(c, a)
	denom := r2.Cross(d, e)
	if denom == 0 {
		return 0, false
	}
	ap := r2.Sub(a, p)
	t := r2.Cross(ap, e) / denom
	u := r2.Cross(ap, d) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// facingNormal returns the unit normal of edge a-c on the side of p.
// A point lying on the edge line takes the side opposing its motion.
func facingNormal(a, c, p, motion r2.Vec) r2.Vec {
	e := r2.Sub(c, a)
	n := r2.Unit(r2.Vec{X: -e.Y, Y: e.X})
	side := r2.Dot(r2.Sub(p, a), n)
	if side < 0 || (side == 0 && r2.Dot(motion, n) > 0) {
		n = r2.Scale(-1, n)
	}
	return n
}

// reflect flips the normal velocity component when it points into the surface.
func reflect(vel, n r2.Vec, damping float64) r2.Vec {
	vn := r2.Dot(vel, n)
	if vn >= 0 {
		return vel
	}
	// v_t - v_n*damping == v - v_n*(1+damping)
	return r2.Sub(vel, r2.Scale(vn*(1+damping), n))
}

// contains reports whether p is inside the closed polygon (even-odd rule).
func contains(pts []r2.Vec, p r2.Vec) bool {
	inside := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, c := pts[i], pts[j]
		if (a.Y > p.Y) != (c.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(c.X-a.X)/(c.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// closestOnPolygon returns the point on the polygon outline nearest to p.
func closestOnPolygon(pts []r2.Vec, p r2.Vec) r2.Vec {
	best := math.Inf(1)
	var bestP r2.Vec
	for i := range pts {
		q := closestOnSegment(pts[i], pts[(i+1)%len(pts)], p)
		if d := r2.Norm2(r2.Sub(q, p)); d < best {
			best = d
			bestP = q
		}
	}
	return bestP
}

func closestOnSegment(a, c, p r2.Vec) r2.Vec {
	e := r2.Sub(c, a)
	l2 := r2.Norm2(e)
	if l2 == 0 {
		return a
	}
	t := r2.Dot(r2.Sub(p, a), e) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Add(a, r2.Scale(t, e))
}

// clampBounds keeps p inside the world box, reflecting the velocity on contact.
func clampBounds(p, v r2.Vec, bounds r2.Box, damping float64) (r2.Vec, r2.Vec) {
	if p.X < bounds.Min.X {
		p.X = bounds.Min.X
		if v.X < 0 {
			v.X = -v.X * damping
		}
	} else if p.X > bounds.Max.X {
		p.X = bounds.Max.X
		if v.X > 0 {
			v.X = -v.X * damping
		}
	}
	if p.Y < bounds.Min.Y {
		p.Y = bounds.Min.Y
		if v.Y < 0 {
			v.Y = -v.Y * damping
		}
	} else if p.Y > bounds.Max.Y {
		p.Y = bounds.Max.Y
		if v.Y > 0 {
			v.Y = -v.Y * damping
		}
	}
	return p, v
}
