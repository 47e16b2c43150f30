package sight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/walls"
)

func sightWall(id uint32, ax, ay, bx, by float64) *walls.Wall {
	return &walls.Wall{
		ID:    id,
		A:     geometry.Point{X: ax, Y: ay},
		B:     geometry.Point{X: bx, Y: by},
		Sight: walls.SenseNormal,
		Move:  walls.SenseNormal,
		Sound: walls.SenseNormal,
		Light: walls.SenseNormal,
	}
}

// roomWalls encloses (100,100)-(300,300).
func roomWalls() []*walls.Wall {
	return []*walls.Wall{
		sightWall(1, 100, 100, 300, 100),
		sightWall(2, 300, 100, 300, 300),
		sightWall(3, 300, 300, 100, 300),
		sightWall(4, 100, 300, 100, 100),
	}
}

func TestBuildUnobstructedIsCompleteCircle(t *testing.T) {
	// Arrange
	origin := geometry.Point{X: 500, Y: 500}
	cfg := Config{Radius: 100, Sense: walls.Sight}

	// Act
	res := Build(origin, cfg, nil)

	// Assert
	require.NotEmpty(t, res.Shape)
	assert.True(t, res.CompleteCircle)
	for _, v := range res.Shape {
		assert.InDelta(t, 100, origin.DistanceTo(v), 1e-6)
	}
}

func TestBuildZeroRadius(t *testing.T) {
	res := Build(geometry.Point{X: 0, Y: 0}, Config{Radius: 0}, roomWalls())

	assert.Empty(t, res.Shape)
	assert.False(t, res.CompleteCircle)
}

func TestBuildClosedRoomConfinesShape(t *testing.T) {
	// Arrange
	origin := geometry.Point{X: 200, Y: 200}
	cfg := Config{Radius: 500, Sense: walls.Sight}

	// Act
	res := Build(origin, cfg, roomWalls())

	// Assert
	require.NotEmpty(t, res.Shape)
	assert.False(t, res.CompleteCircle)
	for _, v := range res.Shape {
		assert.LessOrEqual(t, v.X, 300+1e-6)
		assert.GreaterOrEqual(t, v.X, 100-1e-6)
		assert.LessOrEqual(t, v.Y, 300+1e-6)
		assert.GreaterOrEqual(t, v.Y, 100-1e-6)
	}
	assert.False(t, res.Shape.Contains(geometry.Point{X: 350, Y: 200}))
	assert.True(t, res.Shape.Contains(geometry.Point{X: 250, Y: 250}))
}

func TestBuildOpenDoorLetsSightThrough(t *testing.T) {
	// Arrange
	ws := roomWalls()
	ws[1].Door = walls.DoorRegular
	ws[1].DoorState = walls.DoorOpen
	origin := geometry.Point{X: 200, Y: 200}
	cfg := Config{Radius: 500, Sense: walls.Sight}

	// Act
	res := Build(origin, cfg, ws)

	// Assert - the east wall no longer blocks.
	assert.True(t, res.Shape.Contains(geometry.Point{X: 400, Y: 200}))
	assert.False(t, res.Shape.Contains(geometry.Point{X: 200, Y: 350}))
}

func TestBuildDirectionalWallOnlyBlocksDeclaredSide(t *testing.T) {
	// A wall from (100,200) to (300,200); sources above are on its right.
	w := sightWall(1, 100, 200, 300, 200)
	w.Direction = walls.DirectionLeft
	cfg := Config{Radius: 300, Sense: walls.Sight}

	below := Build(geometry.Point{X: 200, Y: 100}, cfg, []*walls.Wall{w})
	above := Build(geometry.Point{X: 200, Y: 300}, cfg, []*walls.Wall{w})

	// One side sees through the wall, the other does not.
	belowBlocked := !below.Shape.Contains(geometry.Point{X: 200, Y: 280})
	aboveBlocked := !above.Shape.Contains(geometry.Point{X: 200, Y: 120})
	assert.NotEqual(t, belowBlocked, aboveBlocked)
	assert.True(t, belowBlocked != aboveBlocked && (below.CompleteCircle || above.CompleteCircle))
}

func TestBuildLimitedWallBlocksAtSecondCrossing(t *testing.T) {
	// Two parallel limited walls between the origin and the probe point.
	first := sightWall(1, 100, 150, 300, 150)
	first.Sight = walls.SenseLimited
	second := sightWall(2, 100, 100, 300, 100)
	second.Sight = walls.SenseLimited
	origin := geometry.Point{X: 200, Y: 200}
	cfg := Config{Radius: 300, Sense: walls.Sight}

	// One limited wall alone does not block.
	one := Build(origin, cfg, []*walls.Wall{first})
	assert.True(t, one.Shape.Contains(geometry.Point{X: 200, Y: 120}))

	// The second limited crossing blocks at the second wall.
	two := Build(origin, cfg, []*walls.Wall{first, second})
	assert.True(t, two.Shape.Contains(geometry.Point{X: 200, Y: 120}))
	assert.False(t, two.Shape.Contains(geometry.Point{X: 200, Y: 50}))
}

func TestBuildProximityThresholdSuppressesNearWall(t *testing.T) {
	w := sightWall(1, 100, 150, 300, 150)
	w.Sight = walls.SenseProximity
	w.Threshold.Sight = 20
	cfg := Config{Radius: 300, Sense: walls.Sight, DistancePerUnit: 5}

	// 50 px from the wall, threshold reach is 100 px: suppressed.
	near := Build(geometry.Point{X: 200, Y: 200}, cfg, []*walls.Wall{w})
	assert.True(t, near.Shape.Contains(geometry.Point{X: 200, Y: 120}))

	// 150 px away: the wall blocks again.
	far := Build(geometry.Point{X: 200, Y: 300}, cfg, []*walls.Wall{w})
	assert.False(t, far.Shape.Contains(geometry.Point{X: 200, Y: 120}))
}

func TestBuildWallTouchingOriginCastsNoShadow(t *testing.T) {
	w := sightWall(1, 200, 200, 300, 200)
	origin := geometry.Point{X: 200, Y: 200}
	cfg := Config{Radius: 100, Sense: walls.Sight}

	res := Build(origin, cfg, []*walls.Wall{w})

	assert.True(t, res.CompleteCircle)
}

func TestBuildSoftEdgePushesBlockedHitsOutward(t *testing.T) {
	w := sightWall(1, 100, 150, 300, 150)
	origin := geometry.Point{X: 200, Y: 250}
	plain := Config{Radius: 300, Sense: walls.Sight}
	soft := plain
	soft.SoftEdgeOffset = 8

	hard := Build(origin, plain, []*walls.Wall{w})
	padded := Build(origin, soft, []*walls.Wall{w})

	// Straight up the wall is 100 px away; the soft shape reaches past it.
	assert.False(t, hard.Shape.Contains(geometry.Point{X: 200, Y: 145}))
	assert.True(t, padded.Shape.Contains(geometry.Point{X: 200, Y: 145}))
}

func TestBuildDeterministic(t *testing.T) {
	origin := geometry.Point{X: 200, Y: 200}
	cfg := Config{Radius: 500, Sense: walls.Sight}

	a := Build(origin, cfg, roomWalls())
	b := Build(origin, cfg, roomWalls())

	assert.Equal(t, a.Shape, b.Shape)
}
