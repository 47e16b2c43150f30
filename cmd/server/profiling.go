package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/protocol"
	"github.com/Ko-stant/scene-perception-engine/internal/vision"
)

// ProfilingConfig holds configuration for profiling
type ProfilingConfig struct {
	Enabled bool
	Port    string
}

// StartProfiling starts the pprof server when profiling is enabled
func StartProfiling(config ProfilingConfig) {
	if !config.Enabled {
		return
	}

	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)

	if config.Port != "" {
		go func() {
			log.Printf("Starting pprof server on :%s", config.Port)
			log.Printf("CPU profile: http://localhost:%s/debug/pprof/profile", config.Port)
			log.Printf("Heap profile: http://localhost:%s/debug/pprof/heap", config.Port)

			if err := http.ListenAndServe(":"+config.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}
}

// GetProfilingConfigFromEnv creates profiling config from environment variables
func GetProfilingConfigFromEnv() ProfilingConfig {
	enabled := os.Getenv("ENABLE_PROFILING") == "true"
	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = "42069"
	}
	return ProfilingConfig{Enabled: enabled, Port: port}
}

// PerformanceMetrics holds performance tracking data
type PerformanceMetrics struct {
	mu sync.Mutex

	DoorsToggled      int64
	TokensMoved       int64
	VisibilityQueries int64
	AvgDoorToggleTime time.Duration
	AvgTokenMoveTime  time.Duration
	AvgVisibilityTime time.Duration
	PeakGoroutines    int
	StartTime         time.Time
}

func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{StartTime: time.Now()}
}

func runningAverage(avg time.Duration, count int64, sample time.Duration) time.Duration {
	return (avg*time.Duration(count-1) + sample) / time.Duration(count)
}

func (pm *PerformanceMetrics) TrackDoorToggle(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.DoorsToggled++
	pm.AvgDoorToggleTime = runningAverage(pm.AvgDoorToggleTime, pm.DoorsToggled, duration)
}

func (pm *PerformanceMetrics) TrackTokenMove(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.TokensMoved++
	pm.AvgTokenMoveTime = runningAverage(pm.AvgTokenMoveTime, pm.TokensMoved, duration)
}

func (pm *PerformanceMetrics) TrackVisibility(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.VisibilityQueries++
	pm.AvgVisibilityTime = runningAverage(pm.AvgVisibilityTime, pm.VisibilityQueries, duration)

	goroutines := runtime.NumGoroutine()
	if goroutines > pm.PeakGoroutines {
		pm.PeakGoroutines = goroutines
	}
}

// InstrumentedEngine wraps a PerceptionEngine with timing metrics.
type InstrumentedEngine struct {
	engine  PerceptionEngine
	metrics *PerformanceMetrics
	logger  Logger
}

func NewInstrumentedEngine(engine PerceptionEngine, logger Logger) *InstrumentedEngine {
	return &InstrumentedEngine{
		engine:  engine,
		metrics: NewPerformanceMetrics(),
		logger:  logger,
	}
}

func (ie *InstrumentedEngine) Metrics() *PerformanceMetrics {
	return ie.metrics
}

func (ie *InstrumentedEngine) Refresh() {
	ie.engine.Refresh()
}

func (ie *InstrumentedEngine) ProcessDoorToggle(req protocol.RequestToggleDoor) (*DoorToggleResult, error) {
	start := time.Now()
	result, err := ie.engine.ProcessDoorToggle(req)
	ie.metrics.TrackDoorToggle(time.Since(start))
	return result, err
}

func (ie *InstrumentedEngine) ProcessTokenMove(req protocol.RequestMoveToken) (*TokenMoveResult, error) {
	start := time.Now()
	result, err := ie.engine.ProcessTokenMove(req)
	ie.metrics.TrackTokenMove(time.Since(start))
	return result, err
}

func (ie *InstrumentedEngine) ProcessWallUpdate(req protocol.RequestUpdateWall) (*WallUpdateResult, error) {
	return ie.engine.ProcessWallUpdate(req)
}

func (ie *InstrumentedEngine) ProcessLightUpdate(req protocol.RequestUpdateLight) (*LightUpdateResult, error) {
	return ie.engine.ProcessLightUpdate(req)
}

func (ie *InstrumentedEngine) TestVisibility(p geometry.Point, opts vision.TestOptions) protocol.VisibilityResult {
	start := time.Now()
	result := ie.engine.TestVisibility(p, opts)
	ie.metrics.TrackVisibility(time.Since(start))
	return result
}

func (ie *InstrumentedEngine) ResetFog(ctx context.Context) error {
	return ie.engine.ResetFog(ctx)
}

func (ie *InstrumentedEngine) State() *SceneState {
	return ie.engine.State()
}
