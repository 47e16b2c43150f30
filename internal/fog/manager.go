package fog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ko-stant/scene-perception-engine/internal/fogstore"
	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/raster"
)

// ErrResetInFlight marks a save whose exploration handle no longer matches:
// a reset raced the extraction, so the payload is discarded.
var ErrResetInFlight = fmt.Errorf("fog reset raced an in-flight save")

type Logger interface {
	Printf(format string, v ...interface{})
}

// Options configures a Manager; zero values take the engine defaults.
type Options struct {
	MaxTextureSize  int
	CommitThreshold int
	SaveDebounce    time.Duration
}

// Manager owns the persistent exploration texture for one scene. Within a
// session the texture is monotonic: accumulation only raises pixels; reset
// is the only transition back to unexplored.
//
// Load, save, and reset are serialized through a single-slot semaphore so a
// reset during extraction cannot corrupt the canvas reference. Saves detect
// a raced reset by comparing the exploration handle captured before
// extraction against the current one.
type Manager struct {
	store   fogstore.Store
	sceneID string
	rect    geometry.Rect
	res     Resolution
	logger  Logger

	commitThreshold int
	debounce        time.Duration

	sem chan struct{}

	mu           sync.Mutex
	canvas       *raster.Canvas
	handle       uuid.UUID
	refreshCount int
	updated      bool
	timer        *time.Timer

	warnedExtraction bool

	// ResetApplied is invoked after a reset re-initialized exploration; the
	// visibility layer runs a full refresh from it.
	ResetApplied func()
	// Notify surfaces user-visible fog messages (reset notice, repeated
	// save failures).
	Notify func(message string)

	now func() time.Time
}

func NewManager(store fogstore.Store, sceneID string, sceneRect geometry.Rect, opts Options, logger Logger) *Manager {
	if opts.MaxTextureSize <= 0 {
		opts.MaxTextureSize = 4096
	}
	if opts.CommitThreshold <= 0 {
		opts.CommitThreshold = 70
	}
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = 2 * time.Second
	}
	m := &Manager{
		store:           store,
		sceneID:         sceneID,
		rect:            sceneRect,
		res:             ComputeResolution(sceneRect.Width, sceneRect.Height, opts.MaxTextureSize),
		logger:          logger,
		commitThreshold: opts.CommitThreshold,
		debounce:        opts.SaveDebounce,
		sem:             make(chan struct{}, 1),
		handle:          uuid.New(),
		now:             time.Now,
	}
	m.canvas = m.freshCanvas()
	store.OnReset(sceneID, func() {
		if err := m.Reset(context.Background()); err != nil {
			m.logger.Printf("fog reset failed: %v", err)
		}
	})
	return m
}

func (m *Manager) freshCanvas() *raster.Canvas {
	c := raster.NewCanvas(m.res.Width, m.res.Height, m.res.Rho)
	c.OffsetX = -m.rect.X
	c.OffsetY = -m.rect.Y
	return c
}

// Resolution returns the adaptive texture scale in use.
func (m *Manager) Resolution() Resolution { return m.res }

// Texture returns the live exploration canvas.
func (m *Manager) Texture() *raster.Canvas {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canvas
}

// Handle returns the current exploration handle; it changes on every reset
// and reload.
func (m *Manager) Handle() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// RefreshCount returns accumulations since the last successful save.
func (m *Manager) RefreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCount
}

func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.sem
}

// Accumulate draws the frame's committed LOS polygons into the exploration
// texture with MAX blending. Crossing the commit threshold schedules a
// debounced save; repeated accumulation inside the window resets the timer.
func (m *Manager) Accumulate(committed []geometry.Polygon) {
	if len(committed) == 0 {
		return
	}
	m.mu.Lock()
	for _, poly := range committed {
		m.canvas.FillPolygonMax(poly, 255)
	}
	m.refreshCount++
	m.updated = true
	schedule := m.refreshCount > m.commitThreshold
	m.mu.Unlock()
	if schedule {
		m.scheduleSave()
	}
}

func (m *Manager) scheduleSave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Reset(m.debounce)
		return
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		err := m.Save(context.Background())
		switch {
		case err == nil:
		case errors.Is(err, ErrResetInFlight):
			// The reset already discarded this payload.
		case errors.Is(err, fogstore.ErrStoreFailure):
			m.logger.Printf("fog save failed, will retry: %v", err)
			m.scheduleSave()
		default:
			m.logger.Printf("fog save failed: %v", err)
		}
	})
}

// Save extracts the texture, encodes it, and persists the blob. A reset that
// lands between extraction and persistence is detected via the exploration
// handle and discards the payload with ErrResetInFlight.
func (m *Manager) Save(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	m.mu.Lock()
	if !m.updated {
		m.mu.Unlock()
		return nil
	}
	handle := m.handle
	snapshot := m.canvas.Clone()
	m.mu.Unlock()

	explored, err := Encode(snapshot)
	if err != nil {
		if !m.warnedExtraction {
			m.warnedExtraction = true
			m.notify("Failed to save fog exploration")
		}
		return err
	}

	m.mu.Lock()
	stale := m.handle != handle
	m.mu.Unlock()
	if stale {
		return ErrResetInFlight
	}

	blob := &fogstore.Blob{Explored: explored, Timestamp: m.now().UnixMilli()}
	if err := m.store.Put(ctx, m.sceneID, blob); err != nil {
		return fmt.Errorf("%w: %v", fogstore.ErrStoreFailure, err)
	}

	m.mu.Lock()
	if m.handle == handle {
		m.refreshCount = 0
		m.updated = false
	}
	m.mu.Unlock()
	m.logger.Printf("saved fog exploration for scene %s (%dx%d)", m.sceneID, snapshot.Width, snapshot.Height)
	return nil
}

// Load hydrates the canvas from the store. Missing blobs, store failures,
// decode errors, and resolution mismatches all fall back to a fresh
// transparent texture; only store failures are logged.
func (m *Manager) Load(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	fresh := m.freshCanvas()
	blob, err := m.store.Get(ctx, m.sceneID)
	if err != nil {
		m.logger.Printf("fog load failed, starting unexplored: %v", err)
		m.install(fresh)
		return nil
	}
	if blob == nil || blob.Explored == "" {
		m.install(fresh)
		return nil
	}
	w, h, pix, err := Decode(blob.Explored)
	if err != nil {
		m.logger.Printf("stored fog blob unreadable, starting unexplored: %v", err)
		m.install(fresh)
		return nil
	}
	if w != m.res.Width || h != m.res.Height {
		m.logger.Printf("stored fog resolution %dx%d does not match %dx%d, discarding",
			w, h, m.res.Width, m.res.Height)
		m.install(fresh)
		return nil
	}
	copy(fresh.Pix, pix)
	m.install(fresh)
	return nil
}

func (m *Manager) install(c *raster.Canvas) {
	m.mu.Lock()
	m.canvas = c
	m.handle = uuid.New()
	m.refreshCount = 0
	m.updated = false
	m.mu.Unlock()
}

// Reset deactivates the current texture, re-initializes exploration, and
// notifies the visibility layer to run a full refresh.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()
	m.install(m.freshCanvas())
	m.release()

	m.notify("Fog of War exploration progress was reset for this Scene")
	if m.ResetApplied != nil {
		m.ResetApplied()
	}
	return nil
}

func (m *Manager) notify(message string) {
	if m.Notify != nil {
		m.Notify(message)
	} else {
		m.logger.Printf("%s", message)
	}
}
