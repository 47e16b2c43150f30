// Package scene defines the read-only scene snapshot the perception engine
// consumes, and its JSON loader. The engine never mutates a snapshot;
// changes arrive as new snapshots or as mutation events between frames.
package scene

import (
	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
)

type GridType string

const (
	GridSquare   GridType = "square"
	GridHexRow   GridType = "hexRow"
	GridHexCol   GridType = "hexCol"
	GridGridless GridType = "gridless"
)

// Dimensions describe the scene canvas: the full scene rectangle, the
// playable sub-rectangle, and grid metrics.
type Dimensions struct {
	Rect     geometry.Rect `json:"rect"`
	Playable geometry.Rect `json:"playable"`
	GridType GridType      `json:"gridType"`
	GridSize float64       `json:"gridSize"`
	// Distance is the scene distance units represented by one grid space.
	Distance float64 `json:"distance"`
}

// DistancePerUnit converts scene distance units into pixels.
func (d Dimensions) DistancePerUnit() float64 {
	if d.Distance <= 0 {
		return d.GridSize
	}
	return d.GridSize / d.Distance
}

// Wall is the serialized form of one wall segment.
type Wall struct {
	ID        uint32  `json:"id"`
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	Sight     string  `json:"sight,omitempty"`
	Move      string  `json:"move,omitempty"`
	Sound     string  `json:"sound,omitempty"`
	Light     string  `json:"light,omitempty"`
	Door      string  `json:"door,omitempty"`
	DoorState string  `json:"doorState,omitempty"`
	Direction string  `json:"direction,omitempty"`
	Threshold struct {
		Sight float64 `json:"sight,omitempty"`
		Sound float64 `json:"sound,omitempty"`
		Light float64 `json:"light,omitempty"`
	} `json:"threshold,omitempty"`
}

// Light is a serialized ambient light source.
type Light struct {
	ID             uint32  `json:"id"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Rotation       float64 `json:"rotation,omitempty"`
	Dim            float64 `json:"dim"`
	Bright         float64 `json:"bright"`
	Hidden         bool    `json:"hidden,omitempty"`
	ProvidesVision bool    `json:"providesVision,omitempty"`
}

// Token is a placeable with optional vision and emitted light.
type Token struct {
	ID          uint32  `json:"id"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	DimSight    float64 `json:"dimSight,omitempty"`
	BrightSight float64 `json:"brightSight,omitempty"`
	DimLight    float64 `json:"dimLight,omitempty"`
	BrightLight float64 `json:"brightLight,omitempty"`
	VisionMode  string  `json:"visionMode,omitempty"`
	Blinded     bool    `json:"blinded,omitempty"`
	Hidden      bool    `json:"hidden,omitempty"`
	OwnerID     string  `json:"ownerId,omitempty"`
}

// Center returns the token's center point.
func (t Token) Center() geometry.Point {
	return geometry.Point{X: t.X + t.Width/2, Y: t.Y + t.Height/2}
}

// ExternalRadius is half the token's larger footprint dimension, used by
// wall threshold tests.
func (t Token) ExternalRadius() float64 {
	if t.Width > t.Height {
		return t.Width / 2
	}
	return t.Height / 2
}

// Note is a map annotation revealed by perception or GM status.
type Note struct {
	ID            uint32  `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Text          string  `json:"text,omitempty"`
	GlobalVisible bool    `json:"globalVisible,omitempty"`
}

// Snapshot is the complete read-only scene input of one frame.
type Snapshot struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Dimensions Dimensions `json:"dimensions"`
	Walls      []Wall     `json:"walls"`
	Lights     []Light    `json:"lights"`
	Tokens     []Token    `json:"tokens"`
	Notes      []Note     `json:"notes"`

	GlobalLight          bool    `json:"globalLight"`
	GlobalLightThreshold float64 `json:"globalLightThreshold,omitempty"`
	DarknessLevel        float64 `json:"darknessLevel"`
	TokenVision          bool    `json:"tokenVision"`
	FogExploration       bool    `json:"fogExploration"`
}

// GlobalIllumination reports whether global light currently applies given
// the darkness level and threshold.
func (s *Snapshot) GlobalIllumination() bool {
	if !s.GlobalLight {
		return false
	}
	if s.GlobalLightThreshold <= 0 {
		return true
	}
	return s.DarknessLevel < s.GlobalLightThreshold
}

// User identifies the viewing client.
type User struct {
	ID   string
	Name string
	GM   bool
}

// IsGM reports the viewer's role.
func (u User) IsGM() bool { return u.GM }

// PermissionFor reports whether the user may observe the given token
// regardless of perception (owners and GMs always may).
func (u User) PermissionFor(t Token) bool {
	return u.GM || (t.OwnerID != "" && t.OwnerID == u.ID)
}

// Provider feeds the engine scene snapshots and mutation events.
type Provider interface {
	Scene() *Snapshot
	Subscribe(event string, handler func(payload any))
}

// Scene mutation events delivered through Provider.Subscribe.
const (
	EventWallCreated          = "wallCreated"
	EventWallUpdated          = "wallUpdated"
	EventWallDeleted          = "wallDeleted"
	EventTokenCreated         = "tokenCreated"
	EventTokenUpdated         = "tokenUpdated"
	EventTokenDeleted         = "tokenDeleted"
	EventLightCreated         = "lightCreated"
	EventLightUpdated         = "lightUpdated"
	EventLightDeleted         = "lightDeleted"
	EventSceneLightingChanged = "sceneLightingChanged"
	EventDarknessChanged      = "darknessChanged"
)
