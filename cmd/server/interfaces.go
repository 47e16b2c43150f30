package main

import (
	"context"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/protocol"
	"github.com/Ko-stant/scene-perception-engine/internal/vision"
)

// Broadcaster interface for WebSocket communication
type Broadcaster interface {
	BroadcastEvent(eventType string, payload any)
}

// Logger interface for logging abstraction
type Logger interface {
	Printf(format string, v ...any)
}

// SequenceGenerator interface for patch sequence numbers
type SequenceGenerator interface {
	Next() uint64
}

// PerceptionEngine interface for the core perception logic
type PerceptionEngine interface {
	Refresh()
	ProcessDoorToggle(req protocol.RequestToggleDoor) (*DoorToggleResult, error)
	ProcessTokenMove(req protocol.RequestMoveToken) (*TokenMoveResult, error)
	ProcessWallUpdate(req protocol.RequestUpdateWall) (*WallUpdateResult, error)
	ProcessLightUpdate(req protocol.RequestUpdateLight) (*LightUpdateResult, error)
	TestVisibility(p geometry.Point, opts vision.TestOptions) protocol.VisibilityResult
	ResetFog(ctx context.Context) error
	State() *SceneState
}

// DoorToggleResult contains the results of a door toggle operation
type DoorToggleResult struct {
	StateChange       *protocol.DoorStateChanged
	NewlyVisibleDoors []protocol.DoorLite
	NewlyVisibleNotes []protocol.NoteLite
	VisibleTokens     []protocol.TokenLite
	Sight             *protocol.SightRefreshed
}

// TokenMoveResult contains the results of a token move operation
type TokenMoveResult struct {
	NewlyVisibleDoors []protocol.DoorLite
	NewlyVisibleNotes []protocol.NoteLite
	VisibleTokens     []protocol.TokenLite
	Sight             *protocol.SightRefreshed
}

// WallUpdateResult contains the results of a wall update operation
type WallUpdateResult struct {
	NewlyVisibleDoors []protocol.DoorLite
	NewlyVisibleNotes []protocol.NoteLite
	VisibleTokens     []protocol.TokenLite
	Sight             *protocol.SightRefreshed
}

// LightUpdateResult contains the results of a light update operation
type LightUpdateResult struct {
	Lighting      *protocol.LightingRefreshed
	VisibleTokens []protocol.TokenLite
	Sight         *protocol.SightRefreshed
}
