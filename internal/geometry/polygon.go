package geometry

import "math"

// Polygon is an ordered list of vertices forming a simple closed polygon.
// The closing edge from the last vertex back to the first is implicit.
type Polygon []Point

func (p Polygon) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	minX, minY := p[0].X, p[0].Y
	maxX, maxY := minX, minY
	for _, v := range p[1:] {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Area returns the unsigned area enclosed by the polygon.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i, v := range p {
		w := p[(i+1)%len(p)]
		sum += v.X*w.Y - w.X*v.Y
	}
	return math.Abs(sum) / 2
}

// Contains tests point inclusion with an even-odd crossing count. Points on
// an edge count as inside.
func (p Polygon) Contains(pt Point) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	j := len(p) - 1
	for i := 0; i < len(p); i++ {
		a, b := p[i], p[j]
		if Orient2D(a, b, pt) == 0 && onSegment(a, b, pt) {
			return true
		}
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if pt.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// IsCompleteCircle reports whether the polygon approximates the full disk of
// the given radius around origin: every vertex sits within tolerance of the
// radius. Used to skip soft-edge treatment for unobstructed sources.
func (p Polygon) IsCompleteCircle(origin Point, radius float64) bool {
	if len(p) < 3 || radius <= 0 {
		return false
	}
	tol := math.Max(radius*1e-3, 0.5)
	for _, v := range p {
		if math.Abs(origin.DistanceTo(v)-radius) > tol {
			return false
		}
	}
	return true
}
