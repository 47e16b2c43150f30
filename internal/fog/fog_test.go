package fog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ko-stant/scene-perception-engine/internal/fogstore"
	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/raster"
)

type nopLogger struct{}

func (nopLogger) Printf(format string, v ...interface{}) {}

func disk(x, y, r float64) []geometry.Polygon {
	return []geometry.Polygon{geometry.CirclePolygon(geometry.Point{X: x, Y: y}, r, 32)}
}

func newTestManager(t *testing.T, store fogstore.Store) *Manager {
	t.Helper()
	return NewManager(store, "scene-1", geometry.NewRect(0, 0, 400, 400), Options{
		MaxTextureSize:  4096,
		CommitThreshold: 3,
		SaveDebounce:    10 * time.Millisecond,
	}, nopLogger{})
}

func TestComputeResolutionNoScaling(t *testing.T) {
	res := ComputeResolution(2000, 1000, 4096)

	assert.Equal(t, 1.0, res.Rho)
	assert.Equal(t, 2000, res.Width)
	assert.Equal(t, 1000, res.Height)
}

func TestComputeResolutionScalesDown(t *testing.T) {
	res := ComputeResolution(8192, 4096, 4096)

	assert.Less(t, res.Rho, 1.0)
	assert.Equal(t, 4096, res.Width)
	assert.Equal(t, 2048, res.Height)
	assert.Equal(t, 0.5, res.Rho)
}

func TestComputeResolutionBothAxesIntegral(t *testing.T) {
	res := ComputeResolution(5000, 3000, 4096)

	// 5000x3000 reduces to 5:3, so the largest exact texture under the cap
	// is 4095x2457 at rho 0.819, integral on both axes.
	assert.Equal(t, 4095, res.Width)
	assert.Equal(t, 2457, res.Height)
	assert.InDelta(t, float64(res.Width), 5000*res.Rho, 1e-9)
	assert.InDelta(t, float64(res.Height), 3000*res.Rho, 1e-9)
}

func TestComputeResolutionCoprimeFallsBackToDominantAxis(t *testing.T) {
	res := ComputeResolution(5003, 3001, 4096)

	assert.LessOrEqual(t, res.Width, 4096)
	assert.LessOrEqual(t, res.Height, 4096)
	// The dominant axis still lands on a whole texel.
	assert.InDelta(t, float64(res.Width), 5003*res.Rho, 1e-9)
}

func TestCodecRoundTrip(t *testing.T) {
	c := raster.NewCanvas(64, 32, 1)
	c.FillPolygonMax(geometry.CirclePolygon(geometry.Point{X: 20, Y: 16}, 10, 32), 255)

	encoded, err := Encode(c)
	require.NoError(t, err)

	w, h, pix, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
	assert.Equal(t, c.Pix, pix)
}

func TestDecodeGarbageFails(t *testing.T) {
	_, _, _, err := Decode("not base64 at all!!!")
	assert.Error(t, err)

	_, _, _, err = Decode("aGVsbG8=") // valid base64, not an image
	assert.Error(t, err)
}

func TestAccumulateRaisesPixelsMonotonically(t *testing.T) {
	m := newTestManager(t, fogstore.NewMemory())

	m.Accumulate(disk(100, 100, 50))

	tex := m.Texture()
	assert.Equal(t, uint8(255), tex.At(100, 100))
	assert.Equal(t, uint8(0), tex.At(300, 300))
	assert.Equal(t, 1, m.RefreshCount())

	// A second pass elsewhere adds without clearing.
	m.Accumulate(disk(300, 300, 50))
	assert.Equal(t, uint8(255), tex.At(100, 100))
	assert.Equal(t, uint8(255), tex.At(300, 300))
}

func TestSaveRoundTripThroughStore(t *testing.T) {
	store := fogstore.NewMemory()
	m := newTestManager(t, store)
	m.Accumulate(disk(100, 100, 50))

	require.NoError(t, m.Save(context.Background()))

	blob, err := store.Get(context.Background(), "scene-1")
	require.NoError(t, err)
	require.NotNil(t, blob)

	// A fresh manager loads the same exploration.
	m2 := newTestManager(t, store)
	require.NoError(t, m2.Load(context.Background()))
	assert.Equal(t, uint8(255), m2.Texture().At(100, 100))
	assert.Equal(t, uint8(0), m2.Texture().At(300, 300))
}

func TestSaveWithoutChangesIsNoOp(t *testing.T) {
	store := fogstore.NewMemory()
	m := newTestManager(t, store)

	require.NoError(t, m.Save(context.Background()))

	assert.Equal(t, 0, store.Len())
}

func TestSaveResetsRefreshCount(t *testing.T) {
	m := newTestManager(t, fogstore.NewMemory())
	m.Accumulate(disk(100, 100, 50))
	m.Accumulate(disk(120, 100, 50))
	require.Equal(t, 2, m.RefreshCount())

	require.NoError(t, m.Save(context.Background()))

	assert.Equal(t, 0, m.RefreshCount())
}

func TestResetClearsTextureAndChangesHandle(t *testing.T) {
	m := newTestManager(t, fogstore.NewMemory())
	m.Accumulate(disk(100, 100, 50))
	before := m.Handle()

	var applied bool
	m.ResetApplied = func() { applied = true }
	require.NoError(t, m.Reset(context.Background()))

	assert.NotEqual(t, before, m.Handle())
	assert.Equal(t, uint8(0), m.Texture().At(100, 100))
	assert.True(t, applied)
}

func TestResetNotifies(t *testing.T) {
	m := newTestManager(t, fogstore.NewMemory())
	var message string
	m.Notify = func(msg string) { message = msg }

	require.NoError(t, m.Reset(context.Background()))

	assert.Contains(t, message, "reset")
}

func TestStoreResetNotificationResetsManager(t *testing.T) {
	store := fogstore.NewMemory()
	m := newTestManager(t, store)
	m.Accumulate(disk(100, 100, 50))

	store.FireReset("scene-1")

	assert.Equal(t, uint8(0), m.Texture().At(100, 100))
}

func TestLoadResolutionMismatchStartsFresh(t *testing.T) {
	store := fogstore.NewMemory()
	wrong := raster.NewCanvas(10, 10, 1)
	encoded, err := Encode(wrong)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "scene-1", &fogstore.Blob{Explored: encoded}))
	m := newTestManager(t, store)

	require.NoError(t, m.Load(context.Background()))

	assert.Equal(t, 0.0, m.Texture().CoverageAbove(1))
}

func TestLoadCorruptBlobStartsFresh(t *testing.T) {
	store := fogstore.NewMemory()
	require.NoError(t, store.Put(context.Background(), "scene-1", &fogstore.Blob{Explored: "garbage"}))
	m := newTestManager(t, store)

	require.NoError(t, m.Load(context.Background()))

	assert.Equal(t, 0.0, m.Texture().CoverageAbove(1))
}

func TestResetDuringSaveWindowDiscardsPayload(t *testing.T) {
	store := fogstore.NewMemory()
	m := newTestManager(t, store)
	m.Accumulate(disk(100, 100, 50))

	// Simulate the race: exploration is reset after accumulation but the
	// handle captured by an earlier extraction no longer matches.
	handle := m.Handle()
	require.NoError(t, m.Reset(context.Background()))
	assert.NotEqual(t, handle, m.Handle())

	// The reset cleared the dirty flag, so a save persists nothing.
	require.NoError(t, m.Save(context.Background()))
	assert.Equal(t, 0, store.Len())
}

func TestAccumulatePastThresholdSchedulesDebouncedSave(t *testing.T) {
	store := fogstore.NewMemory()
	m := newTestManager(t, store)

	// Threshold is 3; the fourth accumulation schedules the save.
	for i := 0; i < 4; i++ {
		m.Accumulate(disk(float64(100+i*10), 100, 30))
	}

	require.Eventually(t, func() bool {
		return store.Len() == 1 && m.RefreshCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestFailingStoreKeepsDirtyState(t *testing.T) {
	store := fogstore.NewMemory()
	store.FailPuts = true
	m := newTestManager(t, store)
	m.Accumulate(disk(100, 100, 50))

	err := m.Save(context.Background())

	require.ErrorIs(t, err, fogstore.ErrStoreFailure)
	assert.Equal(t, 1, m.RefreshCount())

	// After the store recovers the same payload saves cleanly.
	store.FailPuts = false
	require.NoError(t, m.Save(context.Background()))
	assert.Equal(t, 0, m.RefreshCount())
}
