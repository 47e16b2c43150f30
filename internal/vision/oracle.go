package vision

import (
	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
)

// TestOptions configures one visibility query.
type TestOptions struct {
	// Tolerance is the offset radius of the 8 auxiliary test points around
	// the queried point. Zero means the default of 2 px; negative disables
	// the auxiliary points.
	Tolerance float64
	// IsToken enables the special detection-mode pass.
	IsToken bool
}

// Oracle answers whether a point is perceived by any active source, against
// the compositor's committed state.
type Oracle struct {
	comp      *Compositor
	sceneRect geometry.Rect
	viewerGM  func() bool
}

func NewOracle(comp *Compositor, sceneRect geometry.Rect, viewerGM func() bool) *Oracle {
	return &Oracle{comp: comp, sceneRect: sceneRect, viewerGM: viewerGM}
}

// TestVisibility reports whether some perceiver currently senses p. When a
// special detection mode produced the hit, its id is returned so the caller
// can attach a detection filter.
func (o *Oracle) TestVisibility(p geometry.Point, opts TestOptions) (visible bool, detectedBy string) {
	state := o.comp.state

	// Without any active vision source the scene is GM-only.
	if !state.anyVision {
		return o.viewerGM(), ""
	}

	points := testPoints(p, opts.Tolerance)

	// Pass 1: lights that provide vision.
	for _, l := range state.lights {
		for _, tp := range points {
			if l.shape.Contains(tp) {
				return true, ""
			}
		}
	}

	// Pass 2: basic vision detection per vision source.
	inScene := o.sceneRect.ContainsPoint(p)
	for _, v := range state.visions {
		if o.sceneRect.ContainsPoint(v.origin) != inScene {
			continue
		}
		for _, m := range v.modes {
			if !m.Basic {
				continue
			}
			for _, tp := range points {
				if m.Detects(v.origin, v.los, tp) {
					return true, ""
				}
			}
		}
	}

	// Pass 3: special detection modes, tokens only.
	if opts.IsToken {
		for _, v := range state.visions {
			for _, m := range v.modes {
				if m.Basic {
					continue
				}
				for _, tp := range points {
					if m.Detects(v.origin, v.los, tp) {
						return true, m.ID
					}
				}
			}
		}
	}
	return false, ""
}

// testPoints builds the queried point plus up to 8 offsets at the tolerance
// radius.
func testPoints(p geometry.Point, tolerance float64) []geometry.Point {
	if tolerance == 0 {
		tolerance = 2
	}
	if tolerance < 0 {
		return []geometry.Point{p}
	}
	t := tolerance
	return []geometry.Point{
		p,
		{X: p.X - t, Y: p.Y - t}, {X: p.X, Y: p.Y - t}, {X: p.X + t, Y: p.Y - t},
		{X: p.X - t, Y: p.Y}, {X: p.X + t, Y: p.Y},
		{X: p.X - t, Y: p.Y + t}, {X: p.X, Y: p.Y + t}, {X: p.X + t, Y: p.Y + t},
	}
}
