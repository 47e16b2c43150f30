// Package walls models occluding wall segments: per-sense restrictions,
// doors, one-way orientation, proximity thresholds, and the symmetric wall
// intersection index used by the sight sweep.
package walls

import (
	"math"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
)

// SenseRestriction describes how a wall restricts one perception channel.
type SenseRestriction uint8

const (
	SenseNone SenseRestriction = iota
	SenseNormal
	SenseLimited
	SenseProximity
	SenseDistance
)

// SenseType selects which channel of a wall a query is interested in.
type SenseType uint8

const (
	Sight SenseType = iota
	Move
	Sound
	Light
)

type DoorKind uint8

const (
	DoorNone DoorKind = iota
	DoorRegular
	DoorSecret
)

type DoorState uint8

const (
	DoorClosed DoorState = iota
	DoorOpen
	DoorLocked
)

// Direction restricts which side of a wall it blocks from.
type Direction uint8

const (
	DirectionBoth Direction = iota
	DirectionLeft
	DirectionRight
)

// Side is the result of orienting a point against a wall.
type Side uint8

const (
	SideBoth Side = iota
	SideLeft
	SideRight
)

// Threshold carries the per-sense proximity parameters, in scene distance
// units (not pixels).
type Threshold struct {
	Sight float64 `json:"sight,omitempty"`
	Sound float64 `json:"sound,omitempty"`
	Light float64 `json:"light,omitempty"`
}

// Intersection records where two walls cross, with the parametric position
// along each segment.
type Intersection struct {
	X  float64
	Y  float64
	T0 float64
	T1 float64
}

// Wall is an oriented occluding segment from A to B.
type Wall struct {
	ID        uint32
	A         geometry.Point
	B         geometry.Point
	Sight     SenseRestriction
	Move      SenseRestriction
	Sound     SenseRestriction
	Light     SenseRestriction
	Door      DoorKind
	DoorState DoorState
	Direction Direction
	Threshold Threshold

	// IntersectsWith maps other wall ids to the crossing point. Maintained
	// symmetrically by Set.UpdateIntersections; walls sharing an endpoint
	// are never entered here.
	IntersectsWith map[uint32]Intersection

	boundary bool
}

// Restriction returns the wall's restriction for the given sense. An open
// door restricts nothing.
func (w *Wall) Restriction(sense SenseType) SenseRestriction {
	if w.Door != DoorNone && w.DoorState == DoorOpen {
		return SenseNone
	}
	switch sense {
	case Move:
		return w.Move
	case Sound:
		return w.Sound
	case Light:
		return w.Light
	default:
		return w.Sight
	}
}

// ThresholdFor returns the per-sense threshold distance in scene units.
func (w *Wall) ThresholdFor(sense SenseType) float64 {
	switch sense {
	case Sound:
		return w.Threshold.Sound
	case Light:
		return w.Threshold.Light
	default:
		return w.Threshold.Sight
	}
}

// IsDegenerate reports coincident endpoints, which produce no valid edge.
func (w *Wall) IsDegenerate() bool {
	return vertexKey(w.A) == vertexKey(w.B)
}

// IsBoundary reports whether this wall belongs to the scene boundary
// rectangles managed by the Set.
func (w *Wall) IsBoundary() bool {
	return w.boundary
}

func (w *Wall) Bounds() geometry.Rect {
	return geometry.NewRect(w.A.X, w.A.Y, w.B.X-w.A.X, w.B.Y-w.A.Y)
}

// Midpoint of the segment, used for distance ordering.
func (w *Wall) Midpoint() geometry.Point {
	return geometry.Point{X: (w.A.X + w.B.X) / 2, Y: (w.A.Y + w.B.Y) / 2}
}

// OrientPoint classifies which side of the wall the point lies on. Collinear
// points are reported as SideBoth so directional walls never exclude a
// source standing exactly on their line.
func (w *Wall) OrientPoint(p geometry.Point) Side {
	o := geometry.Orient2D(w.A, w.B, p)
	switch {
	case o > 0:
		return SideLeft
	case o < 0:
		return SideRight
	default:
		return SideBoth
	}
}

// BlocksFrom reports whether the wall's direction applies to a source at
// origin. A wall with DirectionBoth blocks from everywhere; a one-way wall
// only blocks sources on its declared side.
func (w *Wall) BlocksFrom(origin geometry.Point) bool {
	if w.Direction == DirectionBoth {
		return true
	}
	side := w.OrientPoint(origin)
	if side == SideBoth {
		return true
	}
	return (w.Direction == DirectionLeft) == (side == SideLeft)
}

// ApplyThreshold reports whether the wall's per-sense threshold removes it
// from perception for a source at origin. Proximity walls stop blocking once
// the source is close enough; distance walls are the complement. d is
// measured from the origin to the nearest point on the wall, reduced by the
// source's external radius.
func (w *Wall) ApplyThreshold(sense SenseType, origin geometry.Point, externalRadius, distancePerUnit float64) bool {
	r := w.Restriction(sense)
	if r != SenseProximity && r != SenseDistance {
		return false
	}
	threshold := w.ThresholdFor(sense)
	if threshold <= 0 {
		return false
	}
	d := origin.DistanceTo(geometry.ClosestPointOnSegment(origin, w.A, w.B))
	d = math.Max(d-externalRadius, 0)
	limit := threshold * distancePerUnit
	if r == SenseProximity {
		return d < limit
	}
	return d >= limit
}

// SharesEndpoint reports whether the two walls touch at a quantized vertex.
func (w *Wall) SharesEndpoint(o *Wall) bool {
	ka, kb := vertexKey(w.A), vertexKey(w.B)
	oa, ob := vertexKey(o.A), vertexKey(o.B)
	return ka == oa || ka == ob || kb == oa || kb == ob
}

// HasEndpoint reports whether p coincides with one of the wall's endpoints
// under vertex quantization.
func (w *Wall) HasEndpoint(p geometry.Point) bool {
	k := vertexKey(p)
	return k == vertexKey(w.A) || k == vertexKey(w.B)
}

// vertexKey packs a quantized coordinate pair into a 64-bit key so endpoint
// identity survives floating-point noise.
func vertexKey(p geometry.Point) uint64 {
	x := int32(math.Round(p.X * 16))
	y := int32(math.Round(p.Y * 16))
	return uint64(uint32(x))<<32 | uint64(uint32(y))
}
