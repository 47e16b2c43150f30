// Package vision composites per-source polygons into the scene visibility
// mask and answers point visibility queries against the committed result.
package vision

import "github.com/Ko-stant/scene-perception-engine/internal/geometry"

// ChannelState describes one lighting channel's requirement under a vision
// mode.
type ChannelState uint8

const (
	ChannelDisabled ChannelState = iota
	ChannelEnabled
	ChannelRequired
)

// Mode is a named bundle of lighting-channel visibility requirements
// attached to a vision source.
type Mode struct {
	ID           string
	Background   ChannelState
	Illumination ChannelState
	Coloration   ChannelState
	// Preferred modes suppress the background channel when every active
	// vision source agrees on them.
	Preferred bool
}

// Channels is the resolved per-frame channel activation.
type Channels struct {
	Background   bool
	Illumination bool
	Coloration   bool
}

var defaultModes = map[string]Mode{
	"basic": {
		ID:           "basic",
		Background:   ChannelEnabled,
		Illumination: ChannelEnabled,
		Coloration:   ChannelEnabled,
	},
	"darkvision": {
		ID:           "darkvision",
		Background:   ChannelEnabled,
		Illumination: ChannelEnabled,
		Coloration:   ChannelEnabled,
	},
	"monochromatic": {
		ID:           "monochromatic",
		Background:   ChannelRequired,
		Illumination: ChannelDisabled,
		Coloration:   ChannelDisabled,
		Preferred:    true,
	},
	"tremorsense": {
		ID:           "tremorsense",
		Background:   ChannelDisabled,
		Illumination: ChannelDisabled,
		Coloration:   ChannelDisabled,
		Preferred:    true,
	},
}

// ModeByID resolves a vision mode name; unknown names fall back to basic.
func ModeByID(id string) Mode {
	if m, ok := defaultModes[id]; ok {
		return m
	}
	return defaultModes["basic"]
}

// DetectionMode tests whether a vision source perceives a point. Basic modes
// respect the LOS polygon; special modes may ignore walls within a range.
type DetectionMode struct {
	ID          string
	Basic       bool
	Range       float64
	IgnoreWalls bool
}

// Detects runs the mode's test for a source at origin with the given LOS
// polygon against a candidate point.
func (d DetectionMode) Detects(origin geometry.Point, los geometry.Polygon, p geometry.Point) bool {
	if d.Range > 0 && origin.DistanceTo(p) > d.Range {
		return false
	}
	if d.IgnoreWalls {
		return d.Range > 0
	}
	return los.Contains(p)
}
