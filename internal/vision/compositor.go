package vision

import (
	"math"
	"sort"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/raster"
	"github.com/Ko-stant/scene-perception-engine/internal/source"
)

type Logger interface {
	Printf(format string, v ...interface{})
}

// cacheEntry tracks one light source between refreshes so the compositor can
// tell incremental additions apart from changes that invalidate the cache.
type cacheEntry struct {
	active   bool
	updateID uint64
}

// committed is the oracle-visible outcome of one refresh. It is replaced
// wholesale at the end of Refresh, so visibility tests during a frame always
// observe the composite produced at the start of that draw.
type committed struct {
	visions   []committedVision
	lights    []committedLight
	anyVision bool
	channels  Channels
}

type committedVision struct {
	id     uint32
	origin geometry.Point
	los    geometry.Polygon
	modes  []DetectionMode
}

type committedLight struct {
	id    uint32
	shape geometry.Polygon
}

// Compositor maintains the layered vision mask: base (minimum visibility
// disks), cached non-token light FOVs, token FOVs, and LOS polygons, all
// drawn with MAX blending into one single-channel mask.
type Compositor struct {
	sceneRect geometry.Rect
	mask      *raster.Canvas
	light     *raster.Canvas
	cache     map[uint32]cacheEntry
	minRadius float64
	logger    Logger
	state     *committed

	// DetectionModesFor supplies the per-source detection modes consulted
	// by the oracle; nil falls back to basic sight only.
	DetectionModesFor func(s *source.Source) []DetectionMode
}

// RefreshResult reports what a composite pass produced.
type RefreshResult struct {
	// RevealedLOS holds the LOS polygons committed to fog exploration this
	// frame: active, non-blinded, non-preview vision sources only.
	RevealedLOS []geometry.Polygon
	// Revealed is true when any polygon in RevealedLOS drew into the mask.
	Revealed bool
	// FullLightRedraw is true when the light cache was invalidated.
	FullLightRedraw bool
}

// NewCompositor builds mask canvases covering the scene rectangle at the
// given resolution. minRadius is the minimum visibility disk radius used for
// blinded sources and tiny-token fallbacks.
func NewCompositor(sceneRect geometry.Rect, resolution, minRadius float64, logger Logger) *Compositor {
	w := int(math.Ceil(sceneRect.Width * resolution))
	h := int(math.Ceil(sceneRect.Height * resolution))
	mask := raster.NewCanvas(w, h, resolution)
	mask.OffsetX = -sceneRect.X
	mask.OffsetY = -sceneRect.Y
	light := raster.NewCanvas(w, h, resolution)
	light.OffsetX = -sceneRect.X
	light.OffsetY = -sceneRect.Y
	return &Compositor{
		sceneRect: sceneRect,
		mask:      mask,
		light:     light,
		cache:     make(map[uint32]cacheEntry),
		minRadius: minRadius,
		logger:    logger,
		state:     &committed{},
	}
}

// Mask returns the current composite vision mask.
func (c *Compositor) Mask() *raster.Canvas { return c.mask }

// LightCache returns the offscreen non-token light FOV canvas.
func (c *Compositor) LightCache() *raster.Canvas { return c.light }

// Refresh redraws every layer from the given sources and commits the result
// for the oracle. Sources are processed in id order so repeated refreshes of
// an unchanged scene produce identical masks.
func (c *Compositor) Refresh(sources []*source.Source) RefreshResult {
	ordered := make([]*source.Source, len(sources))
	copy(ordered, sources)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var lights, tokenLights, visions []*source.Source
	for _, s := range ordered {
		switch s.Kind {
		case source.Vision:
			visions = append(visions, s)
		case source.Light, source.GlobalLight:
			if s.FromToken() {
				tokenLights = append(tokenLights, s)
			} else {
				lights = append(lights, s)
			}
		}
	}

	full := c.refreshLightCache(lights)

	c.mask.Clear()
	state := &committed{}

	// Base layer: minimum visibility disks. Blinded sources land here and
	// nowhere else.
	for _, s := range visions {
		if !s.Active() || s.Preview() {
			continue
		}
		if s.Blinded() || s.Radius() < c.minRadius {
			r := math.Max(s.Data().ExternalRadius, c.minRadius)
			c.mask.FillPolygonMax(geometry.CirclePolygon(s.Origin(), r, 24), 255)
		}
	}

	c.mask.MaxBlend(c.light)

	for _, s := range tokenLights {
		if !s.Active() || s.Preview() {
			continue
		}
		c.mask.FillPolygonMax(lightShape(s), 255)
		if s.ProvidesVision() {
			state.lights = append(state.lights, committedLight{id: s.ID, shape: lightShape(s)})
		}
	}
	for _, s := range lights {
		if s.Active() && !s.Preview() && s.ProvidesVision() {
			state.lights = append(state.lights, committedLight{id: s.ID, shape: lightShape(s)})
		}
	}

	// LOS layer. Previews draw into the mask for display but are never
	// committed to fog or to the oracle.
	result := RefreshResult{FullLightRedraw: full}
	for _, s := range visions {
		if !s.Active() || s.Blinded() || len(s.Shape()) == 0 {
			continue
		}
		c.mask.FillPolygonMax(s.Shape(), 255)
		if s.Preview() {
			continue
		}
		result.RevealedLOS = append(result.RevealedLOS, s.Shape())
		state.visions = append(state.visions, committedVision{
			id:     s.ID,
			origin: s.Origin(),
			los:    s.Shape(),
			modes:  c.detectionModes(s),
		})
		state.anyVision = true
	}
	result.Revealed = len(result.RevealedLOS) > 0

	state.channels = c.resolveChannels(visions)
	c.state = state
	return result
}

func (c *Compositor) detectionModes(s *source.Source) []DetectionMode {
	if c.DetectionModesFor != nil {
		if modes := c.DetectionModesFor(s); len(modes) > 0 {
			return modes
		}
	}
	return []DetectionMode{{ID: "basicSight", Basic: true}}
}

// refreshLightCache applies the cache protocol: a full redraw happens when a
// tracked source changed its update id, went inactive, or disappeared;
// otherwise newly activated sources draw incrementally onto the cache.
func (c *Compositor) refreshLightCache(lights []*source.Source) (full bool) {
	seen := make(map[uint32]struct{}, len(lights))
	var incremental []*source.Source
	for _, s := range lights {
		seen[s.ID] = struct{}{}
		entry, tracked := c.cache[s.ID]
		switch {
		case !tracked:
			if s.Active() {
				incremental = append(incremental, s)
			}
		case entry.updateID != s.UpdateID():
			full = true
		case entry.active && !s.Active():
			full = true
		case !entry.active && s.Active():
			incremental = append(incremental, s)
		}
	}
	for id := range c.cache {
		if _, ok := seen[id]; !ok {
			full = true
			break
		}
	}

	if full {
		c.light.Clear()
		for _, s := range lights {
			if s.Active() {
				c.light.FillPolygonMax(lightShape(s), 255)
			}
		}
	} else {
		for _, s := range incremental {
			c.light.FillPolygonMax(lightShape(s), 255)
		}
	}

	c.cache = make(map[uint32]cacheEntry, len(lights))
	for _, s := range lights {
		c.cache[s.ID] = cacheEntry{active: s.Active(), updateID: s.UpdateID()}
	}
	return full
}

// resolveChannels performs the single-source vision-mode selection. When
// active vision sources disagree on a preferred mode the background channel
// is forced on.
func (c *Compositor) resolveChannels(visions []*source.Source) Channels {
	var selected *Mode
	preferredAgreement := true
	var firstPreferred *bool
	for _, s := range visions {
		if !s.Active() || s.Preview() {
			continue
		}
		m := ModeByID(s.VisionMode())
		if selected == nil {
			selected = &m
		}
		p := m.Preferred
		if firstPreferred == nil {
			firstPreferred = &p
		} else if *firstPreferred != p {
			preferredAgreement = false
		}
	}
	if selected == nil {
		return Channels{}
	}
	ch := Channels{
		Background:   selected.Background != ChannelDisabled,
		Illumination: selected.Illumination != ChannelDisabled,
		Coloration:   selected.Coloration != ChannelDisabled,
	}
	if !preferredAgreement || selected.Background == ChannelRequired {
		ch.Background = true
	}
	return ch
}

// Channels returns the committed channel activation for the current frame.
func (c *Compositor) Channels() Channels {
	return c.state.channels
}

func lightShape(s *source.Source) geometry.Polygon {
	if fov := s.FOV(); len(fov) > 0 {
		return fov
	}
	return s.Shape()
}
