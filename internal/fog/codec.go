package fog

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	_ "golang.org/x/image/webp"

	"github.com/Ko-stant/scene-perception-engine/internal/raster"
)

// ErrExtractionFailure marks a failed texture extraction; the save is
// dropped and exploration stays in memory.
var ErrExtractionFailure = fmt.Errorf("fog texture extraction failed")

// Encode serializes the canvas as a base64 single-channel PNG. Stored blobs
// written by other hosts may be WebP instead; Decode accepts both.
func Encode(c *raster.Canvas) (string, error) {
	img := &image.Gray{
		Pix:    c.Pix,
		Stride: c.Width,
		Rect:   image.Rect(0, 0, c.Width, c.Height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailure, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses a stored base64 blob (PNG or WebP) and normalizes it to a
// single channel, taking red for color images so RGBA-stored fog round-trips.
func Decode(explored string) (width, height int, pix []uint8, err error) {
	raw, err := base64.StdEncoding.DecodeString(explored)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode fog blob: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode fog image: %w", err)
	}
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	pix = make([]uint8, width*height)
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			copy(pix[y*width:(y+1)*width], g.Pix[y*g.Stride:y*g.Stride+width])
		}
		return width, height, pix, nil
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			pix[y*width+x] = uint8(r >> 8)
		}
	}
	return width, height, pix, nil
}
