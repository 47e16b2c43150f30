// Package source holds the uniform point-source abstraction shared by
// lights, token vision, and movement probes. A source stores its latest
// computed polygons but never computes them itself; shape computation
// belongs to the sight builder.
package source

import (
	"math"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
)

type Kind uint8

const (
	Light Kind = iota
	Vision
	Movement
	GlobalLight
	Darkness
)

func (k Kind) String() string {
	switch k {
	case Light:
		return "light"
	case Vision:
		return "vision"
	case Movement:
		return "movement"
	case GlobalLight:
		return "globalLight"
	case Darkness:
		return "darkness"
	}
	return "unknown"
}

// Data is the configuration of a source. Radii are in scene pixels.
type Data struct {
	X              float64
	Y              float64
	Rotation       float64
	Dim            float64
	Bright         float64
	ExternalRadius float64
	Disabled       bool
	Preview        bool
	ProvidesVision bool
	Blinded        bool
	FromToken      bool
	VisionMode     string
}

// Source is one perception emitter. Updates are staged through Initialize so
// the compositor always observes a whole configuration together with a new
// update id, never a half-applied one.
type Source struct {
	ID   uint32
	Kind Kind

	data     Data
	shape    geometry.Polygon
	fov      geometry.Polygon
	bounds   geometry.Rect
	complete bool
	updateID uint64
	frame    uint64
}

func New(id uint32, kind Kind) *Source {
	return &Source{ID: id, Kind: kind}
}

// Initialize stages a full configuration and bumps the update id. The prior
// shape is kept until the engine rebuilds it; readers see either the old
// polygon or the new one, never a mix.
func (s *Source) Initialize(data Data) {
	s.data = data
	s.updateID++
}

// Refresh is the cheap per-frame update driven by the animation ticker. It
// advances the frame counter without touching configuration or update id, so
// animated pulses never invalidate the light cache.
func (s *Source) Refresh() { s.frame++ }

// Frame is the number of animation frames this source has played.
func (s *Source) Frame() uint64 { return s.frame }

// Destroy clears computed state so a stale polygon can never be composited.
func (s *Source) Destroy() {
	s.shape = nil
	s.fov = nil
	s.bounds = geometry.Rect{}
	s.complete = false
}

func (s *Source) Data() Data       { return s.data }
func (s *Source) UpdateID() uint64 { return s.updateID }

func (s *Source) Origin() geometry.Point {
	return geometry.Point{X: s.data.X, Y: s.data.Y}
}

// Radius is the effective radius, the larger of dim and bright.
func (s *Source) Radius() float64 {
	return math.Max(s.data.Dim, s.data.Bright)
}

func (s *Source) BrightRadius() float64 { return s.data.Bright }

// Active reports whether the source currently contributes to perception.
func (s *Source) Active() bool {
	return !s.data.Disabled && s.Radius() > 0
}

func (s *Source) Disabled() bool       { return s.data.Disabled }
func (s *Source) Preview() bool        { return s.data.Preview }
func (s *Source) ProvidesVision() bool { return s.Kind == Vision || s.data.ProvidesVision }
func (s *Source) Blinded() bool        { return s.Kind == Vision && s.data.Blinded }
func (s *Source) FromToken() bool      { return s.data.FromToken }
func (s *Source) VisionMode() string   { return s.data.VisionMode }

// SetShape installs the polygons computed by the sight builder. A disabled
// source always stores an empty shape.
func (s *Source) SetShape(shape, fov geometry.Polygon, completeCircle bool) {
	if !s.Active() {
		shape, fov, completeCircle = nil, nil, false
	}
	s.shape = shape
	s.fov = fov
	s.complete = completeCircle
	s.bounds = shape.Bounds()
}

func (s *Source) Shape() geometry.Polygon { return s.shape }
func (s *Source) FOV() geometry.Polygon   { return s.fov }
func (s *Source) Bounds() geometry.Rect   { return s.bounds }

// CompleteCircle reports whether the last computed shape was the full
// unobstructed disk, which lets the compositor skip soft-edge work.
func (s *Source) CompleteCircle() bool { return s.complete }
