// Package sight computes wall-bounded visibility polygons for point sources.
// The builder runs an angular endpoint sweep: rays are emitted toward every
// candidate wall endpoint (straddled by a small angular epsilon so corners
// are captured) and every wall-wall intersection, each ray keeps its nearest
// blocking hit, and the hit points assembled in angle order form the shape.
package sight

import (
	"math"
	"sort"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/walls"
)

const (
	// sweepEpsilon is the angular offset of the paired rays emitted around
	// each wall endpoint.
	sweepEpsilon = 1e-4
	// minHitDistance rejects self-hits of walls touching the origin.
	minHitDistance = 1e-6
)

// Config parameterizes one build call.
type Config struct {
	// Radius bounds the sweep; the resulting polygon never leaves the disk
	// of this radius around the origin.
	Radius float64
	// Sense selects which wall channel restricts this source.
	Sense walls.SenseType
	// ExternalRadius feeds the wall threshold test.
	ExternalRadius float64
	// DistancePerUnit converts wall thresholds (scene units) to pixels.
	DistancePerUnit float64
	// SoftEdgeOffset pushes wall hits outward by this many pixels (clamped
	// to the bounding disk) so mask edges can be blurred without gaps.
	// Zero disables the offset; complete circles never receive it.
	SoftEdgeOffset float64
}

// Result is the computed shape plus the complete-circle flag consumed by the
// compositor to skip soft-edge blur.
type Result struct {
	Shape          geometry.Polygon
	CompleteCircle bool
}

// Build computes the bounded sight polygon for a source at origin given the
// candidate wall set (normally a quadtree query over the bounding square of
// the source disk, plus the scene boundary walls).
//
// The output is deterministic for identical inputs: candidates are processed
// in id order and sweep rays are ordered by angle with distance and then
// wall id breaking ties.
func Build(origin geometry.Point, cfg Config, candidates []*walls.Wall) Result {
	if cfg.Radius <= 0 {
		return Result{}
	}

	active := filterCandidates(origin, cfg, candidates)
	angles := sweepAngles(origin, cfg.Radius, active)

	shape := make(geometry.Polygon, 0, len(angles))
	blockedAny := false
	for _, theta := range angles {
		ray := geometry.RayFromAngle(origin, theta, cfg.Radius)
		d, blocked := castRay(ray, cfg, active)
		if blocked {
			blockedAny = true
			if cfg.SoftEdgeOffset > 0 {
				d = math.Min(d+cfg.SoftEdgeOffset, cfg.Radius)
			}
		}
		shape = appendVertex(shape, ray.Project(d))
	}
	if len(shape) > 1 && samePoint(shape[0], shape[len(shape)-1]) {
		shape = shape[:len(shape)-1]
	}
	return Result{
		Shape:          shape,
		CompleteCircle: !blockedAny && shape.IsCompleteCircle(origin, cfg.Radius),
	}
}

// filterCandidates applies the candidate rules: irrelevant senses, open
// doors, threshold-suppressed walls, one-way walls facing away, degenerate
// walls, and walls touching the origin vertex are all dropped.
func filterCandidates(origin geometry.Point, cfg Config, candidates []*walls.Wall) []*walls.Wall {
	out := make([]*walls.Wall, 0, len(candidates))
	for _, w := range candidates {
		if w.IsDegenerate() {
			continue
		}
		if w.Restriction(cfg.Sense) == walls.SenseNone {
			continue
		}
		if w.ApplyThreshold(cfg.Sense, origin, cfg.ExternalRadius, cfg.DistancePerUnit) {
			continue
		}
		if !w.BlocksFrom(origin) {
			continue
		}
		// Walls meeting at the source's own vertex cast no backward shadow.
		if w.HasEndpoint(origin) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// sweepAngles collects the ray directions: a regular fan approximating the
// bounding circle, paired offset rays per wall endpoint, and one ray per
// wall-wall intersection inside the candidate set.
func sweepAngles(origin geometry.Point, radius float64, active []*walls.Wall) []float64 {
	ids := make(map[uint32]struct{}, len(active))
	for _, w := range active {
		ids[w.ID] = struct{}{}
	}

	angles := make([]float64, 0, circleSamples(radius)+6*len(active))
	n := circleSamples(radius)
	for i := 0; i < n; i++ {
		angles = append(angles, 2*math.Pi*float64(i)/float64(n))
	}
	for _, w := range active {
		for _, end := range [2]geometry.Point{w.A, w.B} {
			if end.DistanceTo(origin) > radius+1 {
				continue
			}
			a := origin.AngleTo(end)
			angles = append(angles, normalizeAngle(a-sweepEpsilon), a, normalizeAngle(a+sweepEpsilon))
		}
		for otherID, ix := range w.IntersectsWith {
			if _, ok := ids[otherID]; !ok {
				continue
			}
			// Each crossing appears in both walls' maps; keep one ray.
			if otherID < w.ID {
				continue
			}
			p := geometry.Point{X: ix.X, Y: ix.Y}
			if p.DistanceTo(origin) > radius {
				continue
			}
			angles = append(angles, origin.AngleTo(p))
		}
	}

	sort.Float64s(angles)
	dedup := angles[:0]
	for i, a := range angles {
		if i == 0 || a-dedup[len(dedup)-1] > 1e-9 {
			dedup = append(dedup, a)
		}
	}
	return dedup
}

// castRay finds the blocking distance along the ray. Normal walls block at
// the first hit; limited walls only block at the second limited crossing.
func castRay(ray geometry.Ray, cfg Config, active []*walls.Wall) (d float64, blocked bool) {
	type hit struct {
		t  float64
		id uint32
		r  walls.SenseRestriction
	}
	var hits []hit
	for _, w := range active {
		t, ok := ray.IntersectSegment(w.A, w.B)
		if !ok || t < minHitDistance {
			continue
		}
		hits = append(hits, hit{t: t, id: w.ID, r: w.Restriction(cfg.Sense)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].t != hits[j].t {
			return hits[i].t < hits[j].t
		}
		return hits[i].id < hits[j].id
	})
	limited := 0
	for _, h := range hits {
		if h.r == walls.SenseLimited {
			limited++
			if limited < 2 {
				continue
			}
		}
		return h.t, true
	}
	return ray.Length, false
}

// circleSamples picks the fan density for the bounding circle so the chord
// error stays small without exploding vertex counts on huge radii.
func circleSamples(radius float64) int {
	n := int(math.Ceil(radius / 8))
	if n < 16 {
		n = 16
	}
	if n > 256 {
		n = 256
	}
	return n
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func appendVertex(p geometry.Polygon, v geometry.Point) geometry.Polygon {
	if len(p) > 0 && samePoint(p[len(p)-1], v) {
		return p
	}
	return append(p, v)
}

func samePoint(a, b geometry.Point) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}
