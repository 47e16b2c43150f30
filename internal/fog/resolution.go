// Package fog maintains the persistent fog-of-war exploration texture:
// monotonic accumulation of committed LOS, throttled extraction, store
// persistence, reset, and re-hydration.
package fog

import "math"

// Resolution is the adaptive fog texture scale for a scene. Width and Height
// are the integral texture dimensions; Rho maps scene pixels to texture
// pixels, with Rho*max(sceneW, sceneH) <= the configured cap.
type Resolution struct {
	Rho    float64
	Width  int
	Height int
}

// ComputeResolution picks the fog texture scale for a scene rectangle.
// Scenes fitting the cap on both axes use resolution 1 so fog pixels align
// exactly across sessions. Larger scenes scale down along the reduced
// aspect ratio, so both sceneW*Rho and sceneH*Rho land on whole texels.
func ComputeResolution(sceneW, sceneH float64, maxSize int) Resolution {
	m := math.Max(sceneW, sceneH)
	if m <= float64(maxSize) {
		return Resolution{Rho: 1, Width: int(math.Ceil(sceneW)), Height: int(math.Ceil(sceneH))}
	}
	aw := int(math.Ceil(sceneW))
	ah := int(math.Ceil(sceneH))
	if g := gcd(aw, ah); g > 0 {
		aw /= g
		ah /= g
	}
	if k := maxSize / max(aw, ah); k > 0 {
		w := aw * k
		h := ah * k
		return Resolution{Rho: float64(w) / sceneW, Width: w, Height: h}
	}
	// Coprime dimensions leave no exact scale below the cap; fall back to
	// the dominant axis and accept fractional coverage on the other.
	rho := float64(maxSize) / m
	w := int(math.Floor(sceneW * rho))
	h := int(math.Floor(sceneH * rho))
	if sceneW >= sceneH {
		rho = float64(w) / sceneW
	} else {
		rho = float64(h) / sceneH
	}
	return Resolution{Rho: rho, Width: w, Height: h}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
