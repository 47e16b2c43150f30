package main

import (
	"encoding/json"
	"testing"

	"github.com/Ko-stant/scene-perception-engine/internal/protocol"
	"github.com/Ko-stant/scene-perception-engine/internal/walls"
)

type MockBroadcaster struct {
	events   []string
	payloads []any
}

func (m *MockBroadcaster) BroadcastEvent(eventType string, payload any) {
	m.events = append(m.events, eventType)
	m.payloads = append(m.payloads, payload)
}

func (m *MockBroadcaster) eventCount(eventType string) int {
	count := 0
	for _, e := range m.events {
		if e == eventType {
			count++
		}
	}
	return count
}

func createTestHandlers(t *testing.T) (*IntentHandlers, *MockBroadcaster, *PerceptionEngineImpl) {
	t.Helper()
	engine := createTestEngine(t, createTestSnapshot(), false)
	broadcaster := &MockBroadcaster{}
	handlers := NewIntentHandlers(engine, broadcaster, &MockLogger{})
	return handlers, broadcaster, engine
}

func TestHandleToggleDoor_BroadcastsStateChange(t *testing.T) {
	// Arrange
	handlers, broadcaster, _ := createTestHandlers(t)

	// Act
	err := handlers.HandleToggleDoor(protocol.RequestToggleDoor{WallID: 14})

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if broadcaster.eventCount(protocol.TypeDoorStateChanged) != 1 {
		t.Error("expected a door state change broadcast")
	}
	if broadcaster.eventCount(protocol.TypeSightRefreshed) != 1 {
		t.Error("expected a sight refresh broadcast")
	}
	if broadcaster.eventCount(protocol.TypeDoorsVisible) != 1 {
		t.Error("expected a doors visible broadcast for the far door")
	}

	for i, e := range broadcaster.events {
		if e == protocol.TypeDoorStateChanged {
			change := broadcaster.payloads[i].(protocol.DoorStateChanged)
			if change.WallID != 14 || change.State != "open" {
				t.Errorf("unexpected state change payload: %+v", change)
			}
		}
	}
}

func TestHandleToggleDoor_ErrorBroadcastsNothing(t *testing.T) {
	// Arrange
	handlers, broadcaster, _ := createTestHandlers(t)

	// Act
	err := handlers.HandleToggleDoor(protocol.RequestToggleDoor{WallID: 30})

	// Assert
	if err == nil {
		t.Fatal("expected an error toggling a locked door")
	}
	if len(broadcaster.events) != 0 {
		t.Errorf("expected no broadcasts after a failed toggle, got %v", broadcaster.events)
	}
}

func TestHandleUpdateLight_BroadcastsLighting(t *testing.T) {
	// Arrange
	handlers, broadcaster, _ := createTestHandlers(t)

	// Act
	hidden := true
	err := handlers.HandleUpdateLight(protocol.RequestUpdateLight{LightID: 40, Hidden: &hidden})

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if broadcaster.eventCount(protocol.TypeLightingRefreshed) != 1 {
		t.Error("expected a lighting refresh broadcast")
	}
}

func TestHandleResetFog_Broadcasts(t *testing.T) {
	// Arrange
	handlers, broadcaster, _ := createTestHandlers(t)

	// Act
	err := handlers.HandleResetFog(protocol.RequestResetFog{SceneID: "test-scene"})

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if broadcaster.eventCount(protocol.TypeFogReset) != 1 {
		t.Error("expected a fog reset broadcast")
	}
}

func TestHandleWebSocketMessage_RoutesToggleDoor(t *testing.T) {
	// Arrange
	handlers, _, engine := createTestHandlers(t)
	payload, _ := json.Marshal(protocol.RequestToggleDoor{WallID: 14})
	data, _ := json.Marshal(protocol.IntentEnvelope{Type: protocol.IntentToggleDoor, Payload: payload})

	// Act
	err := handlers.HandleWebSocketMessage(data)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, _ := engine.state.Walls.Get(14)
	if w.DoorState != walls.DoorOpen {
		t.Error("expected the door to open via the websocket intent")
	}
}

func TestHandleWebSocketMessage_UnknownIntentIgnored(t *testing.T) {
	// Arrange
	handlers, broadcaster, _ := createTestHandlers(t)
	data, _ := json.Marshal(protocol.IntentEnvelope{Type: "dance", Payload: []byte(`{}`)})

	// Act
	err := handlers.HandleWebSocketMessage(data)

	// Assert
	if err != nil {
		t.Fatalf("unknown intents should be ignored, got %v", err)
	}
	if len(broadcaster.events) != 0 {
		t.Error("unknown intents should not broadcast anything")
	}
}

func TestHandleWebSocketMessage_MalformedEnvelope(t *testing.T) {
	// Arrange
	handlers, _, _ := createTestHandlers(t)

	// Act
	err := handlers.HandleWebSocketMessage([]byte("{not json"))

	// Assert
	if err == nil {
		t.Error("expected an error for a malformed envelope")
	}
}

func TestSequenceGenerator_Monotonic(t *testing.T) {
	// Arrange
	sg := NewSequenceGenerator()

	// Act & Assert
	for want := uint64(1); want <= 5; want++ {
		if got := sg.Next(); got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}
	if sg.Current() != 5 {
		t.Errorf("expected current sequence 5, got %d", sg.Current())
	}
}

func TestOnceLogger_EmitsEachKeyOnce(t *testing.T) {
	// Arrange
	logger := &MockLogger{}
	once := NewOnceLogger(logger)

	// Act
	once.PrintfOnce("a", "first")
	once.PrintfOnce("a", "repeat")
	once.PrintfOnce("b", "second")

	// Assert
	if len(logger.messages) != 2 {
		t.Errorf("expected 2 logged messages, got %d: %v", len(logger.messages), logger.messages)
	}
}

func TestPerceptionError_Format(t *testing.T) {
	// Arrange
	err := perceptionErrorf(CodeDoorLocked, "door %d is locked", 7)

	// Assert
	if err.Error() != "[DOOR_LOCKED] door 7 is locked" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}
