package geometry

import "math"

// CirclePolygon approximates the disk of the given radius around c with a
// regular n-gon whose vertices lie on the circle.
func CirclePolygon(c Point, radius float64, n int) Polygon {
	if radius <= 0 {
		return nil
	}
	if n < 8 {
		n = 8
	}
	out := make(Polygon, 0, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		out = append(out, Point{X: c.X + radius*math.Cos(a), Y: c.Y + radius*math.Sin(a)})
	}
	return out
}
