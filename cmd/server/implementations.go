package main

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Ko-stant/scene-perception-engine/internal/protocol"
	"github.com/Ko-stant/scene-perception-engine/internal/ws"
)

// BroadcasterImpl implements Broadcaster using WebSocket hub
type BroadcasterImpl struct {
	hub      *ws.Hub
	sequence SequenceGenerator
}

func NewBroadcaster(hub *ws.Hub, sequence SequenceGenerator) *BroadcasterImpl {
	return &BroadcasterImpl{
		hub:      hub,
		sequence: sequence,
	}
}

func (b *BroadcasterImpl) BroadcastEvent(eventType string, payload any) {
	seq := b.sequence.Next()
	envelope := protocol.PatchEnvelope{
		Sequence: seq,
		Type:     eventType,
		Payload:  payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("failed to marshal %s: %v", eventType, err)
		return
	}
	b.hub.Broadcast(data)
}

// LoggerImpl implements Logger using standard log package
type LoggerImpl struct{}

func NewLogger() *LoggerImpl {
	return &LoggerImpl{}
}

func (l *LoggerImpl) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

// SequenceGeneratorImpl implements SequenceGenerator using atomic counter
type SequenceGeneratorImpl struct {
	counter uint64
}

func NewSequenceGenerator() *SequenceGeneratorImpl {
	return &SequenceGeneratorImpl{}
}

func (sg *SequenceGeneratorImpl) Next() uint64 {
	return atomic.AddUint64(&sg.counter, 1)
}

func (sg *SequenceGeneratorImpl) Current() uint64 {
	return atomic.LoadUint64(&sg.counter)
}

// OnceLogger wraps a Logger and emits each distinct key only once, so a
// source rebuilt every frame cannot flood the log with the same complaint.
type OnceLogger struct {
	logger Logger
	mu     sync.Mutex
	seen   map[string]bool
}

func NewOnceLogger(logger Logger) *OnceLogger {
	return &OnceLogger{logger: logger, seen: make(map[string]bool)}
}

func (o *OnceLogger) PrintfOnce(key, format string, v ...any) {
	o.mu.Lock()
	dup := o.seen[key]
	o.seen[key] = true
	o.mu.Unlock()
	if dup {
		return
	}
	o.logger.Printf(format, v...)
}

// IntentHandlers uses dependency injection for better testability
type IntentHandlers struct {
	engine      PerceptionEngine
	broadcaster Broadcaster
	logger      Logger
}

func NewIntentHandlers(engine PerceptionEngine, broadcaster Broadcaster, logger Logger) *IntentHandlers {
	return &IntentHandlers{
		engine:      engine,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (h *IntentHandlers) broadcastPerception(doors []protocol.DoorLite, notes []protocol.NoteLite, tokens []protocol.TokenLite, sight *protocol.SightRefreshed) {
	if sight != nil {
		h.broadcaster.BroadcastEvent(protocol.TypeSightRefreshed, *sight)
	}
	if len(doors) > 0 {
		h.broadcaster.BroadcastEvent(protocol.TypeDoorsVisible, protocol.DoorsVisible{Doors: doors})
	}
	if len(notes) > 0 {
		h.broadcaster.BroadcastEvent(protocol.TypeNotesVisible, protocol.NotesVisible{Notes: notes})
	}
	if tokens != nil {
		h.broadcaster.BroadcastEvent(protocol.TypeTokensVisible, protocol.TokensVisible{Tokens: tokens})
	}
}

func (h *IntentHandlers) HandleToggleDoor(req protocol.RequestToggleDoor) error {
	result, err := h.engine.ProcessDoorToggle(req)
	if err != nil {
		h.logger.Printf("door toggle failed: %v", err)
		return err
	}

	if result.StateChange != nil {
		h.broadcaster.BroadcastEvent(protocol.TypeDoorStateChanged, *result.StateChange)
	}
	h.broadcastPerception(result.NewlyVisibleDoors, result.NewlyVisibleNotes, result.VisibleTokens, result.Sight)
	return nil
}

func (h *IntentHandlers) HandleMoveToken(req protocol.RequestMoveToken) error {
	result, err := h.engine.ProcessTokenMove(req)
	if err != nil {
		h.logger.Printf("token move failed: %v", err)
		return err
	}
	h.broadcastPerception(result.NewlyVisibleDoors, result.NewlyVisibleNotes, result.VisibleTokens, result.Sight)
	return nil
}

func (h *IntentHandlers) HandleUpdateWall(req protocol.RequestUpdateWall) error {
	result, err := h.engine.ProcessWallUpdate(req)
	if err != nil {
		h.logger.Printf("wall update failed: %v", err)
		return err
	}
	h.broadcastPerception(result.NewlyVisibleDoors, result.NewlyVisibleNotes, result.VisibleTokens, result.Sight)
	return nil
}

func (h *IntentHandlers) HandleUpdateLight(req protocol.RequestUpdateLight) error {
	result, err := h.engine.ProcessLightUpdate(req)
	if err != nil {
		h.logger.Printf("light update failed: %v", err)
		return err
	}
	if result.Lighting != nil {
		h.broadcaster.BroadcastEvent(protocol.TypeLightingRefreshed, *result.Lighting)
	}
	h.broadcastPerception(nil, nil, result.VisibleTokens, result.Sight)
	return nil
}

func (h *IntentHandlers) HandleResetFog(req protocol.RequestResetFog) error {
	if err := h.engine.ResetFog(context.Background()); err != nil {
		h.logger.Printf("fog reset failed: %v", err)
		return err
	}
	h.broadcaster.BroadcastEvent(protocol.TypeFogReset, protocol.FogReset{SceneID: req.SceneID})
	return nil
}

func (h *IntentHandlers) HandleWebSocketMessage(data []byte) error {
	var env protocol.IntentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	switch env.Type {
	case protocol.IntentToggleDoor:
		var req protocol.RequestToggleDoor
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		return h.HandleToggleDoor(req)

	case protocol.IntentMoveToken:
		var req protocol.RequestMoveToken
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		return h.HandleMoveToken(req)

	case protocol.IntentUpdateWall:
		var req protocol.RequestUpdateWall
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		return h.HandleUpdateWall(req)

	case protocol.IntentUpdateLight:
		var req protocol.RequestUpdateLight
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		return h.HandleUpdateLight(req)

	case protocol.IntentResetFog:
		var req protocol.RequestResetFog
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		return h.HandleResetFog(req)

	default:
		h.logger.Printf("unknown intent type: %s", env.Type)
		return nil
	}
}
