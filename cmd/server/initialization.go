package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Ko-stant/scene-perception-engine/internal/config"
	"github.com/Ko-stant/scene-perception-engine/internal/flags"
	"github.com/Ko-stant/scene-perception-engine/internal/fog"
	"github.com/Ko-stant/scene-perception-engine/internal/fogstore"
	"github.com/Ko-stant/scene-perception-engine/internal/hooks"
	"github.com/Ko-stant/scene-perception-engine/internal/protocol"
	"github.com/Ko-stant/scene-perception-engine/internal/scene"
	"github.com/Ko-stant/scene-perception-engine/internal/vision"
	"github.com/Ko-stant/scene-perception-engine/internal/walls"
	"github.com/Ko-stant/scene-perception-engine/internal/ws"
)

// buildFogStore selects the persistence backend from configuration.
func buildFogStore(cfg config.Config) (fogstore.Store, error) {
	switch cfg.Fog.Backend {
	case "", "memory":
		return fogstore.NewMemory(), nil
	case "minio":
		return fogstore.NewMinio(fogstore.MinioConfig{
			Endpoint:  cfg.Fog.Minio.Endpoint,
			AccessKey: cfg.Fog.Minio.AccessKey,
			SecretKey: cfg.Fog.Minio.SecretKey,
			Bucket:    cfg.Fog.Minio.Bucket,
			Secure:    cfg.Fog.Minio.Secure,
		})
	default:
		return nil, fmt.Errorf("unknown fog backend %q", cfg.Fog.Backend)
	}
}

// buildWallSet indexes the snapshot's walls together with the scene
// boundary.
func buildWallSet(snapshot *scene.Snapshot, logger Logger) *walls.Set {
	inner := snapshot.Dimensions.Playable
	if inner.Width <= 0 || inner.Height <= 0 {
		inner = snapshot.Dimensions.Rect
	}
	set := walls.NewSet(inner, snapshot.Dimensions.Rect, logger)
	for _, w := range snapshot.Walls {
		if err := set.Add(wallFromScene(w)); err != nil {
			logger.Printf("skipping wall %d: %v", w.ID, err)
		}
	}
	return set
}

// assemble wires the full engine for one scene and viewer.
func assemble(ctx context.Context, cfg config.Config, snapshot *scene.Snapshot, viewer scene.User, logger Logger) (*Server, *ws.Hub, error) {
	hub := ws.NewHub()
	sequence := NewSequenceGenerator()
	broadcaster := NewBroadcaster(hub, sequence)

	wallSet := buildWallSet(snapshot, logger)
	state := NewSceneState(snapshot, wallSet, viewer)

	sched := flags.NewScheduler(logger)
	registry := hooks.NewRegistry(logger)

	rect := snapshot.Dimensions.Rect
	res := fog.ComputeResolution(rect.Width, rect.Height, cfg.MaxFogTextureSize)
	comp := vision.NewCompositor(rect, res.Rho, snapshot.Dimensions.GridSize/2, logger)
	oracle := vision.NewOracle(comp, rect, func() bool { return state.Viewer.IsGM() })

	var fogMgr *fog.Manager
	if snapshot.FogExploration {
		store, err := buildFogStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		fogMgr = fog.NewManager(store, snapshot.ID, rect, fog.Options{
			MaxTextureSize:  cfg.MaxFogTextureSize,
			CommitThreshold: cfg.FogCommitThreshold,
			SaveDebounce:    time.Duration(cfg.FogSaveDebounceMs) * time.Millisecond,
		}, logger)
		fogMgr.Notify = func(message string) {
			broadcaster.BroadcastEvent(protocol.TypeNotification, protocol.Notification{Message: message})
		}
		if err := fogMgr.Load(ctx); err != nil {
			logger.Printf("fog load: %v", err)
		}
	}

	engine := NewPerceptionEngine(state, cfg, comp, oracle, fogMgr, registry, sched, logger)
	if err := engine.Initialize(); err != nil {
		return nil, nil, err
	}
	engine.StartAnimation(ctx)

	instrumented := NewInstrumentedEngine(engine, logger)
	intents := NewIntentHandlers(instrumented, broadcaster, logger)
	server := NewServer(instrumented, intents, hub, comp, fogMgr, logger)
	return server, hub, nil
}
