package protocol

// PatchEnvelope wraps every server-to-client perception event with a
// monotonic sequence number.
type PatchEnvelope struct {
	Sequence uint64 `json:"seq"`
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
}

// Patch event types.
const (
	TypeSightRefreshed    = "sightRefreshed"
	TypeLightingRefreshed = "lightingRefreshed"
	TypeDoorStateChanged  = "doorStateChanged"
	TypeDoorsVisible      = "doorsVisible"
	TypeNotesVisible      = "notesVisible"
	TypeTokensVisible     = "tokensVisible"
	TypeFogReset          = "fogReset"
	TypeNotification      = "notification"
)

// SightRefreshed reports a completed perception refresh.
type SightRefreshed struct {
	VisionSources int  `json:"visionSources"`
	LightSources  int  `json:"lightSources"`
	FogRevealed   bool `json:"fogRevealed"`
}

// LightingRefreshed reports a light-cache rebuild.
type LightingRefreshed struct {
	FullRedraw bool `json:"fullRedraw"`
}

type DoorStateChanged struct {
	WallID uint32 `json:"wallId"`
	State  string `json:"state"`
}

// DoorLite is the wire form of a perceivable door control.
type DoorLite struct {
	WallID uint32  `json:"wallId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Kind   string  `json:"kind"`
	State  string  `json:"state"`
}

type DoorsVisible struct {
	Doors []DoorLite `json:"doors"`
}

// NoteLite is the wire form of a revealed map note.
type NoteLite struct {
	ID uint32  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type NotesVisible struct {
	Notes []NoteLite `json:"notes"`
}

// TokenLite is the wire form of a perceivable token.
type TokenLite struct {
	ID         uint32  `json:"id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	DetectedBy string  `json:"detectedBy,omitempty"`
}

type TokensVisible struct {
	Tokens []TokenLite `json:"tokens"`
}

type FogReset struct {
	SceneID string `json:"sceneId"`
}

type Notification struct {
	Message string `json:"message"`
}

// VisibilityResult answers a point visibility query over HTTP.
type VisibilityResult struct {
	Visible    bool   `json:"visible"`
	DetectedBy string `json:"detectedBy,omitempty"`
}
