package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/source"
)

type nopLogger struct{}

func (nopLogger) Printf(format string, v ...interface{}) {}

func newTestCompositor() *Compositor {
	return NewCompositor(geometry.NewRect(0, 0, 1000, 1000), 1, 25, nopLogger{})
}

func visionSource(id uint32, x, y, radius float64) *source.Source {
	s := source.New(id, source.Vision)
	s.Initialize(source.Data{X: x, Y: y, Dim: radius})
	shape := geometry.CirclePolygon(geometry.Point{X: x, Y: y}, radius, 48)
	s.SetShape(shape, shape, true)
	return s
}

func lightSource(id uint32, x, y, radius float64, providesVision bool) *source.Source {
	s := source.New(id, source.Light)
	s.Initialize(source.Data{X: x, Y: y, Dim: radius, ProvidesVision: providesVision})
	shape := geometry.CirclePolygon(geometry.Point{X: x, Y: y}, radius, 48)
	s.SetShape(shape, shape, true)
	return s
}

func TestRefreshDrawsVisionIntoMask(t *testing.T) {
	c := newTestCompositor()
	v := visionSource(1, 200, 200, 100)

	result := c.Refresh([]*source.Source{v})

	assert.True(t, result.Revealed)
	require.Len(t, result.RevealedLOS, 1)
	assert.Equal(t, uint8(255), c.Mask().At(200, 200))
	assert.Equal(t, uint8(0), c.Mask().At(600, 600))
}

func TestRefreshPreviewDrawsButNeverCommits(t *testing.T) {
	c := newTestCompositor()
	s := source.New(1, source.Vision)
	s.Initialize(source.Data{X: 200, Y: 200, Dim: 100, Preview: true})
	shape := geometry.CirclePolygon(geometry.Point{X: 200, Y: 200}, 100, 48)
	s.SetShape(shape, shape, true)

	result := c.Refresh([]*source.Source{s})

	// The preview is visible on the mask but reveals no fog and commits no
	// oracle state.
	assert.Equal(t, uint8(255), c.Mask().At(200, 200))
	assert.False(t, result.Revealed)
	assert.Empty(t, result.RevealedLOS)
	assert.False(t, c.state.anyVision)
}

func TestRefreshBlindedSourceGetsMinimumDisk(t *testing.T) {
	c := newTestCompositor()
	s := source.New(1, source.Vision)
	s.Initialize(source.Data{X: 500, Y: 500, Dim: 300, Blinded: true})
	shape := geometry.CirclePolygon(geometry.Point{X: 500, Y: 500}, 300, 48)
	s.SetShape(shape, shape, true)

	result := c.Refresh([]*source.Source{s})

	// Only the minimum disk is drawn; the LOS polygon stays out of the
	// mask and out of fog.
	assert.Equal(t, uint8(255), c.Mask().At(500, 500))
	assert.Equal(t, uint8(0), c.Mask().At(500, 700))
	assert.False(t, result.Revealed)
}

func TestRefreshLightCacheIncrementalThenFull(t *testing.T) {
	c := newTestCompositor()
	l := lightSource(1, 300, 300, 100, false)

	// New light: incremental, no full redraw.
	first := c.Refresh([]*source.Source{l})
	assert.False(t, first.FullLightRedraw)
	assert.Equal(t, uint8(255), c.LightCache().At(300, 300))

	// Unchanged light: still no full redraw.
	second := c.Refresh([]*source.Source{l})
	assert.False(t, second.FullLightRedraw)

	// Reconfigured light (new update id): full redraw.
	l.Initialize(source.Data{X: 300, Y: 300, Dim: 50})
	shape := geometry.CirclePolygon(geometry.Point{X: 300, Y: 300}, 50, 48)
	l.SetShape(shape, shape, true)
	third := c.Refresh([]*source.Source{l})
	assert.True(t, third.FullLightRedraw)
	// The cache was rebuilt from scratch at the smaller radius.
	assert.Equal(t, uint8(0), c.LightCache().At(300, 390))
}

func TestRefreshLightRemovalForcesFullRedraw(t *testing.T) {
	c := newTestCompositor()
	l := lightSource(1, 300, 300, 100, false)
	c.Refresh([]*source.Source{l})

	result := c.Refresh(nil)

	assert.True(t, result.FullLightRedraw)
	assert.Equal(t, uint8(0), c.LightCache().At(300, 300))
}

func TestRefreshLightDeactivationForcesFullRedraw(t *testing.T) {
	c := newTestCompositor()
	l := lightSource(1, 300, 300, 100, false)
	c.Refresh([]*source.Source{l})

	data := l.Data()
	data.Disabled = true
	l.Initialize(data)
	l.SetShape(nil, nil, false)

	result := c.Refresh([]*source.Source{l})

	assert.True(t, result.FullLightRedraw)
}

func TestRefreshTokenLightBypassesCache(t *testing.T) {
	c := newTestCompositor()
	s := source.New(1, source.Light)
	s.Initialize(source.Data{X: 400, Y: 400, Dim: 80, FromToken: true})
	shape := geometry.CirclePolygon(geometry.Point{X: 400, Y: 400}, 80, 48)
	s.SetShape(shape, shape, true)

	result := c.Refresh([]*source.Source{s})

	assert.False(t, result.FullLightRedraw)
	assert.Equal(t, uint8(255), c.Mask().At(400, 400))
	assert.Equal(t, uint8(0), c.LightCache().At(400, 400))
}

func TestChannelsMonochromaticForcesBackground(t *testing.T) {
	c := newTestCompositor()
	v := visionSource(1, 200, 200, 100)
	d := v.Data()
	d.VisionMode = "monochromatic"
	v.Initialize(d)
	shape := geometry.CirclePolygon(geometry.Point{X: 200, Y: 200}, 100, 48)
	v.SetShape(shape, shape, true)

	c.Refresh([]*source.Source{v})

	ch := c.Channels()
	assert.True(t, ch.Background)
	assert.False(t, ch.Illumination)
	assert.False(t, ch.Coloration)
}

func TestChannelsPreferredDisagreementForcesBackground(t *testing.T) {
	c := newTestCompositor()
	a := visionSource(1, 200, 200, 100)
	b := visionSource(2, 600, 600, 100)
	d := b.Data()
	d.VisionMode = "tremorsense"
	b.Initialize(d)
	shape := geometry.CirclePolygon(geometry.Point{X: 600, Y: 600}, 100, 48)
	b.SetShape(shape, shape, true)

	c.Refresh([]*source.Source{a, b})

	assert.True(t, c.Channels().Background)
}

func TestRefreshTwiceProducesIdenticalTextures(t *testing.T) {
	c := newTestCompositor()
	sources := []*source.Source{
		visionSource(1, 200, 200, 150),
		lightSource(40, 600, 600, 120, true),
		lightSource(41, 350, 350, 80, false),
	}

	c.Refresh(sources)
	mask := c.Mask().Clone()
	light := c.LightCache().Clone()

	c.Refresh(sources)

	require.True(t, c.Mask().Equal(mask))
	assert.True(t, c.LightCache().Equal(light))
}
