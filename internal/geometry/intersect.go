package geometry

import "math"

// Orient2D returns twice the signed area of triangle (a, b, p). Positive when
// p lies to the left of the directed line a→b, negative to the right, zero
// when the three points are collinear.
func Orient2D(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// SegmentsIntersect reports whether segments ab and cd intersect, including
// endpoint touches.
func SegmentsIntersect(a, b, c, d Point) bool {
	d1 := Orient2D(c, d, a)
	d2 := Orient2D(c, d, b)
	d3 := Orient2D(a, b, c)
	d4 := Orient2D(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(c, d, a)) ||
		(d2 == 0 && onSegment(c, d, b)) ||
		(d3 == 0 && onSegment(a, b, c)) ||
		(d4 == 0 && onSegment(a, b, d))
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// SegmentIntersection returns the intersection point of segments ab and cd
// together with the parametric coordinates t0 (along ab) and t1 (along cd).
// Parameters are clamped to [0,1] before the point is derived, so near-miss
// endpoint touches index cleanly. ok is false for parallel or disjoint
// segments.
func SegmentIntersection(a, b, c, d Point) (p Point, t0, t1 float64, ok bool) {
	rx, ry := b.X-a.X, b.Y-a.Y
	sx, sy := d.X-c.X, d.Y-c.Y
	denom := rx*sy - ry*sx
	if denom == 0 {
		return Point{}, 0, 0, false
	}
	qpx, qpy := c.X-a.X, c.Y-a.Y
	t0 = (qpx*sy - qpy*sx) / denom
	t1 = (qpx*ry - qpy*rx) / denom
	const eps = 1e-10
	if t0 < -eps || t0 > 1+eps || t1 < -eps || t1 > 1+eps {
		return Point{}, 0, 0, false
	}
	t0 = clamp01(t0)
	t1 = clamp01(t1)
	return Point{X: a.X + t0*rx, Y: a.Y + t0*ry}, t0, t1, true
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// ClosestPointOnSegment returns the point on segment ab nearest to p.
func ClosestPointOnSegment(p, a, b Point) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a
	}
	t := clamp01(((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq)
	return Point{X: a.X + t*dx, Y: a.Y + t*dy}
}
