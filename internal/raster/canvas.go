// Package raster provides the single-channel 8-bit canvases behind the
// vision mask and the fog exploration texture. Polygons are filled with a
// scanline pass and composited with MAX blending, so accumulation is
// monotonic by construction.
package raster

import (
	"bytes"
	"sort"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
)

// Canvas is a row-major grayscale buffer. Resolution maps scene pixels to
// canvas pixels: canvasX = (sceneX + OffsetX) * Resolution.
type Canvas struct {
	Width      int
	Height     int
	Resolution float64
	OffsetX    float64
	OffsetY    float64
	Pix        []uint8
}

func NewCanvas(width, height int, resolution float64) *Canvas {
	if resolution <= 0 {
		resolution = 1
	}
	return &Canvas{
		Width:      width,
		Height:     height,
		Resolution: resolution,
		Pix:        make([]uint8, width*height),
	}
}

// Clone returns a deep copy sharing no pixel storage.
func (c *Canvas) Clone() *Canvas {
	out := *c
	out.Pix = make([]uint8, len(c.Pix))
	copy(out.Pix, c.Pix)
	return &out
}

// Clear resets every pixel to zero.
func (c *Canvas) Clear() {
	for i := range c.Pix {
		c.Pix[i] = 0
	}
}

// At samples the canvas at a scene coordinate; out-of-range reads are zero.
func (c *Canvas) At(sceneX, sceneY float64) uint8 {
	x := int((sceneX + c.OffsetX) * c.Resolution)
	y := int((sceneY + c.OffsetY) * c.Resolution)
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return 0
	}
	return c.Pix[y*c.Width+x]
}

// Equal reports pixel-identical content at identical geometry.
func (c *Canvas) Equal(o *Canvas) bool {
	return c.Width == o.Width && c.Height == o.Height &&
		c.Resolution == o.Resolution && bytes.Equal(c.Pix, o.Pix)
}

// FillPolygonMax rasterizes the polygon (scene coordinates) writing
// max(existing, value) per covered pixel. Even-odd fill; rows are scanned at
// pixel centers.
func (c *Canvas) FillPolygonMax(poly geometry.Polygon, value uint8) {
	if len(poly) < 3 {
		return
	}
	b := poly.Bounds()
	yMin := int((b.Y + c.OffsetY) * c.Resolution)
	yMax := int((b.Bottom()+c.OffsetY)*c.Resolution) + 1
	if yMin < 0 {
		yMin = 0
	}
	if yMax > c.Height {
		yMax = c.Height
	}

	var xs []float64
	for y := yMin; y < yMax; y++ {
		// Scanline through the row's pixel centers, in scene space.
		sy := (float64(y)+0.5)/c.Resolution - c.OffsetY
		xs = xs[:0]
		j := len(poly) - 1
		for i := 0; i < len(poly); i++ {
			a, bp := poly[i], poly[j]
			j = i
			if (a.Y > sy) == (bp.Y > sy) {
				continue
			}
			x := a.X + (sy-a.Y)/(bp.Y-a.Y)*(bp.X-a.X)
			xs = append(xs, x)
		}
		if len(xs) < 2 {
			continue
		}
		sort.Float64s(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			x0 := int((xs[k] + c.OffsetX) * c.Resolution)
			x1 := int((xs[k+1]+c.OffsetX)*c.Resolution) + 1
			if x0 < 0 {
				x0 = 0
			}
			if x1 > c.Width {
				x1 = c.Width
			}
			row := c.Pix[y*c.Width : (y+1)*c.Width]
			for x := x0; x < x1; x++ {
				if row[x] < value {
					row[x] = value
				}
			}
		}
	}
}

// MaxBlend composites src into c pixelwise with MAX. Both canvases must have
// identical dimensions.
func (c *Canvas) MaxBlend(src *Canvas) {
	if src == nil || len(src.Pix) != len(c.Pix) {
		return
	}
	for i, v := range src.Pix {
		if c.Pix[i] < v {
			c.Pix[i] = v
		}
	}
}

// CoverageAbove returns the fraction of pixels with value >= threshold, for
// diagnostics and tests.
func (c *Canvas) CoverageAbove(threshold uint8) float64 {
	if len(c.Pix) == 0 {
		return 0
	}
	n := 0
	for _, v := range c.Pix {
		if v >= threshold {
			n++
		}
	}
	return float64(n) / float64(len(c.Pix))
}
