package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Ko-stant/scene-perception-engine/internal/config"
	"github.com/Ko-stant/scene-perception-engine/internal/flags"
	"github.com/Ko-stant/scene-perception-engine/internal/fog"
	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/hooks"
	"github.com/Ko-stant/scene-perception-engine/internal/protocol"
	"github.com/Ko-stant/scene-perception-engine/internal/sight"
	"github.com/Ko-stant/scene-perception-engine/internal/source"
	"github.com/Ko-stant/scene-perception-engine/internal/vision"
	"github.com/Ko-stant/scene-perception-engine/internal/walls"
)

// Derived source ids. Tokens contribute up to two sources (vision and
// emitted light); the high bits keep them apart from each other, from
// ambient light ids, and from the singleton global light.
const (
	sourceVisionBit     = uint32(0x80000000)
	sourceTokenLightBit = uint32(0x40000000)
	globalLightSourceID = uint32(0x20000000)
)

// defaultAnimationPeriod is the light animation frame interval.
const defaultAnimationPeriod = 100 * time.Millisecond

// perceptionDelta accumulates the client-facing outcome of one scheduler
// drain. Intent processors take it after Tick.
type perceptionDelta struct {
	doors    []protocol.DoorLite
	notes    []protocol.NoteLite
	tokens   []protocol.TokenLite
	sight    *protocol.SightRefreshed
	lighting *protocol.LightingRefreshed
}

// PerceptionEngineImpl implements the PerceptionEngine interface
type PerceptionEngineImpl struct {
	state      *SceneState
	cfg        config.Config
	sched      *flags.Scheduler
	perception *flags.Object
	comp       *vision.Compositor
	oracle     *vision.Oracle
	fog        *fog.Manager
	hooks      *hooks.Registry
	logger     Logger
	warn       *OnceLogger
	animPeriod time.Duration

	delta perceptionDelta
}

// NewPerceptionEngine creates a new perception engine with dependencies.
// The fog manager may be nil when the scene does not track exploration.
func NewPerceptionEngine(state *SceneState, cfg config.Config, comp *vision.Compositor, oracle *vision.Oracle, fogMgr *fog.Manager, registry *hooks.Registry, sched *flags.Scheduler, logger Logger) *PerceptionEngineImpl {
	e := &PerceptionEngineImpl{
		state:      state,
		cfg:        cfg,
		comp:       comp,
		oracle:     oracle,
		fog:        fogMgr,
		hooks:      registry,
		sched:      sched,
		logger:     logger,
		warn:       NewOnceLogger(logger),
		animPeriod: defaultAnimationPeriod,
	}
	e.perception = sched.Register(e, perceptionTable, flags.PriorityPerception)
	comp.DetectionModesFor = e.detectionModesFor
	if fogMgr != nil {
		fogMgr.ResetApplied = e.onFogReset
	}
	return e
}

func (e *PerceptionEngineImpl) State() *SceneState {
	return e.state
}

// Initialize builds every source from the snapshot and runs the first
// composite.
func (e *PerceptionEngineImpl) Initialize() error {
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()
	if err := e.perception.Set(map[string]bool{flagRefreshAll: true}); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	e.sched.Tick()
	e.takeDelta()
	return nil
}

// Refresh drains any pending render flags. Draining an empty schedule is a
// no-op, so callers may invoke this freely.
func (e *PerceptionEngineImpl) Refresh() {
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()
	e.sched.Tick()
	e.takeDelta()
}

// StartAnimation runs the light animation loop until the context is done.
// Each frame advances every live emitter. Disabled via the lightAnimation
// config key, in which case no goroutine is started.
func (e *PerceptionEngineImpl) StartAnimation(ctx context.Context) {
	if !e.cfg.AnimationEnabled() {
		return
	}
	go func() {
		ticker := time.NewTicker(e.animPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.animateSources()
			}
		}
	}()
}

func (e *PerceptionEngineImpl) animateSources() {
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()
	for _, s := range e.state.Sources {
		if s.Active() && !s.Preview() {
			s.Refresh()
		}
	}
}

// ApplyRenderFlags interprets one drained flag snapshot. Order matters:
// source sets are rebuilt before shapes, shapes before the composite, the
// composite before occlusion culling.
func (e *PerceptionEngineImpl) ApplyRenderFlags(active map[string]bool) {
	for _, name := range refreshOrder {
		if !active[name] {
			continue
		}
		switch name {
		case flagInitializeVision:
			e.initializeVisionSources()
		case flagInitializeLighting:
			e.initializeLightSources()
		case flagRefreshVision:
			e.rebuildShapes(func(s *source.Source) bool { return s.Kind == source.Vision })
		case flagRefreshLighting:
			e.rebuildShapes(func(s *source.Source) bool { return s.Kind != source.Vision })
		case flagRefreshVisibility:
			e.composite()
		case flagRefreshOcclusion:
			e.refreshOcclusion()
		}
	}
}

func (e *PerceptionEngineImpl) takeDelta() perceptionDelta {
	d := e.delta
	e.delta = perceptionDelta{}
	return d
}

func (e *PerceptionEngineImpl) dropSources(match func(s *source.Source) bool) {
	for id, s := range e.state.Sources {
		if match(s) {
			s.Destroy()
			delete(e.state.Sources, id)
		}
	}
}

// upsertSource reinitializes an existing source or registers a new one. The
// update id only advances when the configuration actually changed, so the
// light cache keeps treating untouched sources as clean across rebuilds.
func (e *PerceptionEngineImpl) upsertSource(id uint32, kind source.Kind, data source.Data) {
	s, ok := e.state.Sources[id]
	if !ok || s.Kind != kind {
		s = source.New(id, kind)
		e.state.Sources[id] = s
	}
	if s.Data() != data {
		s.Initialize(data)
	}
}

// initializeVisionSources rebuilds the vision source set from the tokens the
// viewer perceives through.
func (e *PerceptionEngineImpl) initializeVisionSources() {
	seen := make(map[uint32]bool)
	if e.state.Snapshot.TokenVision {
		dpu := e.state.Snapshot.Dimensions.DistancePerUnit()
		for _, t := range e.state.ControlledTokens() {
			id := t.ID | sourceVisionBit
			c := t.Center()
			e.upsertSource(id, source.Vision, source.Data{
				X:              c.X,
				Y:              c.Y,
				Dim:            t.DimSight * dpu,
				Bright:         t.BrightSight * dpu,
				ExternalRadius: t.ExternalRadius(),
				Blinded:        t.Blinded,
				FromToken:      true,
				VisionMode:     t.VisionMode,
			})
			seen[id] = true
		}
	}
	e.dropSources(func(s *source.Source) bool { return s.Kind == source.Vision && !seen[s.ID] })
	e.hooks.Call(hooks.InitializeVisionSources, nil)
}

// initializeLightSources rebuilds ambient lights, token-emitted lights, and
// the global illumination source.
func (e *PerceptionEngineImpl) initializeLightSources() {
	seen := make(map[uint32]bool)
	dpu := e.state.Snapshot.Dimensions.DistancePerUnit()
	for _, l := range e.state.Lights {
		e.upsertSource(l.ID, source.Light, source.Data{
			X:              l.X,
			Y:              l.Y,
			Rotation:       l.Rotation,
			Dim:            l.Dim * dpu,
			Bright:         l.Bright * dpu,
			Disabled:       l.Hidden,
			ProvidesVision: l.ProvidesVision,
		})
		seen[l.ID] = true
	}
	for _, t := range e.state.Tokens {
		if t.DimLight <= 0 && t.BrightLight <= 0 {
			continue
		}
		id := t.ID | sourceTokenLightBit
		c := t.Center()
		e.upsertSource(id, source.Light, source.Data{
			X:              c.X,
			Y:              c.Y,
			Dim:            t.DimLight * dpu,
			Bright:         t.BrightLight * dpu,
			ExternalRadius: t.ExternalRadius(),
			Disabled:       t.Hidden,
			ProvidesVision: true,
			FromToken:      true,
		})
		seen[id] = true
	}

	rect := e.state.Snapshot.Dimensions.Rect
	center := rect.Center()
	e.upsertSource(globalLightSourceID, source.GlobalLight, source.Data{
		X:              center.X,
		Y:              center.Y,
		Dim:            rect.Width + rect.Height,
		Disabled:       !e.state.Snapshot.GlobalIllumination(),
		ProvidesVision: true,
	})
	seen[globalLightSourceID] = true

	e.dropSources(func(s *source.Source) bool { return s.Kind != source.Vision && !seen[s.ID] })
	e.hooks.Call(hooks.InitializeLightSources, nil)
}

func (e *PerceptionEngineImpl) rebuildShapes(match func(s *source.Source) bool) {
	for _, s := range e.state.Sources {
		if match(s) {
			e.rebuildSource(s)
		}
	}
}

// rebuildSource recomputes a source's sight polygon and bright-radius FOV.
// The global light skips the sweep and covers the whole scene rectangle.
func (e *PerceptionEngineImpl) rebuildSource(s *source.Source) {
	if !s.Active() {
		s.SetShape(nil, nil, false)
		return
	}
	if s.Kind == source.GlobalLight {
		rect := e.state.Snapshot.Dimensions.Rect
		poly := geometry.Polygon{
			{X: rect.X, Y: rect.Y},
			{X: rect.Right(), Y: rect.Y},
			{X: rect.Right(), Y: rect.Bottom()},
			{X: rect.X, Y: rect.Bottom()},
		}
		s.SetShape(poly, poly, true)
		return
	}

	origin := s.Origin()
	radius := s.Radius()
	candidates := e.state.Walls.Candidates(geometry.RectAround(origin, radius))

	sense := walls.Light
	if s.Kind == source.Vision {
		sense = walls.Sight
	}
	softEdge := 0.0
	if e.cfg.SoftEdgesEnabled() {
		softEdge = config.SoftEdgeOffset
	}
	cfg := sight.Config{
		Radius:          radius,
		Sense:           sense,
		ExternalRadius:  s.Data().ExternalRadius,
		DistancePerUnit: e.state.Snapshot.Dimensions.DistancePerUnit(),
		SoftEdgeOffset:  softEdge,
	}
	res := sight.Build(origin, cfg, candidates)
	if len(res.Shape) == 0 {
		e.warn.PrintfOnce(fmt.Sprintf("empty-shape-%d", s.ID),
			"source %d (%s) produced an empty shape at (%.1f,%.1f)", s.ID, s.Kind, origin.X, origin.Y)
	}

	fov := res.Shape
	if br := s.BrightRadius(); br > 0 && br < radius {
		brightCfg := cfg
		brightCfg.Radius = br
		brightCfg.SoftEdgeOffset = 0
		fov = sight.Build(origin, brightCfg, candidates).Shape
	}
	s.SetShape(res.Shape, fov, res.CompleteCircle)
}

// composite redraws the vision mask from every source and feeds revealed
// polygons into fog exploration.
func (e *PerceptionEngineImpl) composite() {
	sources := make([]*source.Source, 0, len(e.state.Sources))
	visionCount, lightCount := 0, 0
	for _, s := range e.state.Sources {
		sources = append(sources, s)
		if s.Kind == source.Vision {
			visionCount++
		} else {
			lightCount++
		}
	}

	result := e.comp.Refresh(sources)

	if e.fog != nil && e.state.Snapshot.FogExploration {
		e.fog.Accumulate(result.RevealedLOS)
	}

	e.delta.sight = &protocol.SightRefreshed{
		VisionSources: visionCount,
		LightSources:  lightCount,
		FogRevealed:   result.Revealed,
	}
	if result.FullLightRedraw {
		e.delta.lighting = &protocol.LightingRefreshed{FullRedraw: true}
	}
	e.hooks.Call(hooks.SightRefresh, nil)
	if result.FullLightRedraw {
		e.hooks.Call(hooks.LightingRefresh, nil)
	}
}

// refreshOcclusion reruns door, note, and token culling against the freshly
// committed composite.
func (e *PerceptionEngineImpl) refreshOcclusion() {
	e.delta.doors = e.checkForNewlyVisibleDoors()
	e.delta.notes = e.checkForNewlyVisibleNotes()
	e.delta.tokens = e.visibleTokens()
	e.hooks.Call(hooks.RefreshOcclusion, nil)
}

func (e *PerceptionEngineImpl) detectionModesFor(s *source.Source) []vision.DetectionMode {
	mode := vision.ModeByID(s.VisionMode())
	modes := []vision.DetectionMode{{ID: "basicSight", Basic: true}}
	if mode.ID != "basic" {
		modes = append(modes, vision.DetectionMode{
			ID:          mode.ID,
			Range:       s.Radius(),
			IgnoreWalls: mode.ID == "tremorsense",
		})
	}
	return modes
}

// TestVisibility answers a point query against the committed composite. The
// state lock serializes it against intent processors, which swap the
// committed state during their Tick.
func (e *PerceptionEngineImpl) TestVisibility(p geometry.Point, opts vision.TestOptions) protocol.VisibilityResult {
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()
	visible, detectedBy := e.oracle.TestVisibility(p, opts)
	return protocol.VisibilityResult{Visible: visible, DetectedBy: detectedBy}
}

// ProcessDoorToggle flips a door between open and closed and reruns the
// perception cascade.
func (e *PerceptionEngineImpl) ProcessDoorToggle(req protocol.RequestToggleDoor) (*DoorToggleResult, error) {
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()

	w, ok := e.state.Walls.Get(req.WallID)
	if !ok {
		return nil, perceptionErrorf(CodeUnknownSceneResource, "wall %d not found", req.WallID)
	}
	if w.Door == walls.DoorNone {
		return nil, perceptionErrorf(CodeNotADoor, "wall %d is not a door", req.WallID)
	}
	if w.DoorState == walls.DoorLocked {
		return nil, perceptionErrorf(CodeDoorLocked, "door %d is locked", req.WallID)
	}

	if w.DoorState == walls.DoorOpen {
		w.DoorState = walls.DoorClosed
	} else {
		w.DoorState = walls.DoorOpen
	}
	if err := e.state.Walls.Update(w); err != nil {
		return nil, err
	}

	if err := e.perception.Set(map[string]bool{
		flagRefreshVision:   true,
		flagRefreshLighting: true,
	}); err != nil {
		return nil, err
	}
	e.sched.Tick()
	d := e.takeDelta()

	return &DoorToggleResult{
		StateChange: &protocol.DoorStateChanged{
			WallID: w.ID,
			State:  doorStateToString(w.DoorState),
		},
		NewlyVisibleDoors: d.doors,
		NewlyVisibleNotes: d.notes,
		VisibleTokens:     d.tokens,
		Sight:             d.sight,
	}, nil
}

// ProcessTokenMove repositions a token and rebuilds the sources derived
// from it.
func (e *PerceptionEngineImpl) ProcessTokenMove(req protocol.RequestMoveToken) (*TokenMoveResult, error) {
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()

	t, ok := e.state.Tokens[req.TokenID]
	if !ok {
		return nil, perceptionErrorf(CodeUnknownSceneResource, "token %d not found", req.TokenID)
	}
	t.X = req.X
	t.Y = req.Y

	if err := e.perception.Set(map[string]bool{
		flagInitializeVision:   true,
		flagInitializeLighting: true,
	}); err != nil {
		return nil, err
	}
	e.sched.Tick()
	d := e.takeDelta()

	return &TokenMoveResult{
		NewlyVisibleDoors: d.doors,
		NewlyVisibleNotes: d.notes,
		VisibleTokens:     d.tokens,
		Sight:             d.sight,
	}, nil
}

// ProcessWallUpdate applies a partial wall edit and reruns the cascade.
func (e *PerceptionEngineImpl) ProcessWallUpdate(req protocol.RequestUpdateWall) (*WallUpdateResult, error) {
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()

	w, ok := e.state.Walls.Get(req.WallID)
	if !ok {
		return nil, perceptionErrorf(CodeUnknownSceneResource, "wall %d not found", req.WallID)
	}
	if req.X0 != nil {
		w.A.X = *req.X0
	}
	if req.Y0 != nil {
		w.A.Y = *req.Y0
	}
	if req.X1 != nil {
		w.B.X = *req.X1
	}
	if req.Y1 != nil {
		w.B.Y = *req.Y1
	}
	if req.Sight != nil {
		w.Sight = senseFromString(*req.Sight, walls.SenseNormal)
	}
	if req.Direction != nil {
		w.Direction = directionFromString(*req.Direction)
	}
	if err := e.state.Walls.Update(w); err != nil {
		return nil, err
	}

	if err := e.perception.Set(map[string]bool{
		flagRefreshVision:   true,
		flagRefreshLighting: true,
	}); err != nil {
		return nil, err
	}
	e.sched.Tick()
	d := e.takeDelta()

	return &WallUpdateResult{
		NewlyVisibleDoors: d.doors,
		NewlyVisibleNotes: d.notes,
		VisibleTokens:     d.tokens,
		Sight:             d.sight,
	}, nil
}

// ProcessLightUpdate applies a partial light edit and rebuilds the light
// layer.
func (e *PerceptionEngineImpl) ProcessLightUpdate(req protocol.RequestUpdateLight) (*LightUpdateResult, error) {
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()

	l, ok := e.state.Lights[req.LightID]
	if !ok {
		return nil, perceptionErrorf(CodeUnknownSceneResource, "light %d not found", req.LightID)
	}
	if req.X != nil {
		l.X = *req.X
	}
	if req.Y != nil {
		l.Y = *req.Y
	}
	if req.Dim != nil {
		l.Dim = *req.Dim
	}
	if req.Bright != nil {
		l.Bright = *req.Bright
	}
	if req.Hidden != nil {
		l.Hidden = *req.Hidden
	}

	if err := e.perception.Set(map[string]bool{flagInitializeLighting: true}); err != nil {
		return nil, err
	}
	e.sched.Tick()
	d := e.takeDelta()

	lighting := d.lighting
	if lighting == nil {
		lighting = &protocol.LightingRefreshed{}
	}
	return &LightUpdateResult{
		Lighting:      lighting,
		VisibleTokens: d.tokens,
		Sight:         d.sight,
	}, nil
}

// ResetFog wipes exploration progress for the scene.
func (e *PerceptionEngineImpl) ResetFog(ctx context.Context) error {
	if e.fog == nil {
		return nil
	}
	return e.fog.Reset(ctx)
}

// onFogReset runs after the fog manager re-initialized exploration, either
// from a local reset intent or a store-side reset notification.
func (e *PerceptionEngineImpl) onFogReset() {
	e.hooks.Call(hooks.FogReset, nil)
	e.state.Lock.Lock()
	defer e.state.Lock.Unlock()
	if err := e.perception.Set(map[string]bool{flagRefreshAll: true}); err != nil {
		e.logger.Printf("fog reset refresh: %v", err)
		return
	}
	e.sched.Tick()
	e.takeDelta()
}
