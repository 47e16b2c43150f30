package geometry

import "math"

// Ray is a half-open segment from an origin in a fixed direction. Dx/Dy are
// unit-length so parametric distances equal pixel distances.
type Ray struct {
	Origin Point
	Dx     float64
	Dy     float64
	Length float64
}

// RayFromAngle builds a ray from origin at angle theta (radians, scene
// convention: 0 points along +X, angles grow clockwise with +Y down).
func RayFromAngle(origin Point, theta, length float64) Ray {
	return Ray{
		Origin: origin,
		Dx:     math.Cos(theta),
		Dy:     math.Sin(theta),
		Length: length,
	}
}

// Project returns the point at parametric distance t along the ray.
func (r Ray) Project(t float64) Point {
	return Point{X: r.Origin.X + t*r.Dx, Y: r.Origin.Y + t*r.Dy}
}

// End is the far endpoint of the ray.
func (r Ray) End() Point {
	return r.Project(r.Length)
}

// Angle returns the ray direction normalized to [0, 2π).
func (r Ray) Angle() float64 {
	a := math.Atan2(r.Dy, r.Dx)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// IntersectSegment returns the parametric distance along the ray at which it
// crosses segment ab, or ok=false when it misses. Hits beyond Length are
// misses.
func (r Ray) IntersectSegment(a, b Point) (t float64, ok bool) {
	sx, sy := b.X-a.X, b.Y-a.Y
	denom := r.Dx*sy - r.Dy*sx
	if denom == 0 {
		return 0, false
	}
	qpx, qpy := a.X-r.Origin.X, a.Y-r.Origin.Y
	t = (qpx*sy - qpy*sx) / denom
	u := (qpx*r.Dy - qpy*r.Dx) / denom
	const eps = 1e-10
	if t < -eps || u < -eps || u > 1+eps {
		return 0, false
	}
	if t < 0 {
		t = 0
	}
	if r.Length > 0 && t > r.Length {
		return 0, false
	}
	return t, true
}
