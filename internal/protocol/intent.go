package protocol

import "encoding/json"

// IntentEnvelope wraps client-to-server mutation requests.
type IntentEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Intent types.
const (
	IntentToggleDoor  = "toggleDoor"
	IntentMoveToken   = "moveToken"
	IntentUpdateWall  = "updateWall"
	IntentUpdateLight = "updateLight"
	IntentResetFog    = "resetFog"
)

type RequestToggleDoor struct {
	WallID uint32 `json:"wallId"`
}

type RequestMoveToken struct {
	TokenID uint32  `json:"tokenId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// RequestUpdateWall replaces a wall's endpoints or attributes.
type RequestUpdateWall struct {
	WallID    uint32   `json:"wallId"`
	X0        *float64 `json:"x0,omitempty"`
	Y0        *float64 `json:"y0,omitempty"`
	X1        *float64 `json:"x1,omitempty"`
	Y1        *float64 `json:"y1,omitempty"`
	Sight     *string  `json:"sight,omitempty"`
	Direction *string  `json:"direction,omitempty"`
}

type RequestUpdateLight struct {
	LightID uint32   `json:"lightId"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Dim     *float64 `json:"dim,omitempty"`
	Bright  *float64 `json:"bright,omitempty"`
	Hidden  *bool    `json:"hidden,omitempty"`
}

type RequestResetFog struct {
	SceneID string `json:"sceneId"`
}
