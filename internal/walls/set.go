package walls

import (
	"fmt"
	"sort"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/quadtree"
)

// ErrDegenerateGeometry marks walls whose endpoints coincide.
var ErrDegenerateGeometry = fmt.Errorf("degenerate wall geometry")

// Boundary wall ids occupy the top of the id space so scene walls can use
// small ids freely.
const boundaryIDBase = ^uint32(0) - 8

// Logger is the minimal logging dependency of the wall set.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Set owns every wall of a scene plus the inner (scene rect) and outer
// (padded rect) boundary walls, and keeps the quadtree and the symmetric
// intersection index current.
type Set struct {
	walls    map[uint32]*Wall
	index    *quadtree.Quadtree
	boundary []*Wall
	logger   Logger
	warned   map[uint32]bool
}

// NewSet builds a wall set for a scene rectangle and its padded outer
// rectangle. Boundary walls participate in intersection bookkeeping and are
// always part of the candidate set so sweep polygons stay closed.
func NewSet(inner, outer geometry.Rect, logger Logger) *Set {
	s := &Set{
		walls:  make(map[uint32]*Wall),
		index:  quadtree.New(outer),
		logger: logger,
		warned: make(map[uint32]bool),
	}
	id := boundaryIDBase
	for _, r := range []geometry.Rect{inner, outer} {
		corners := [4]geometry.Point{
			{X: r.X, Y: r.Y},
			{X: r.Right(), Y: r.Y},
			{X: r.Right(), Y: r.Bottom()},
			{X: r.X, Y: r.Bottom()},
		}
		for i := 0; i < 4; i++ {
			w := &Wall{
				ID:             id,
				A:              corners[i],
				B:              corners[(i+1)%4],
				Sight:          SenseNormal,
				Move:           SenseNormal,
				Sound:          SenseNormal,
				Light:          SenseNormal,
				IntersectsWith: make(map[uint32]Intersection),
				boundary:       true,
			}
			s.boundary = append(s.boundary, w)
			id++
		}
	}
	return s
}

// Add registers a wall, indexes it, and computes its intersections.
// Degenerate walls are rejected and logged once.
func (s *Set) Add(w *Wall) error {
	if w.IsDegenerate() {
		if !s.warned[w.ID] {
			s.warned[w.ID] = true
			s.logger.Printf("skipping degenerate wall %d at (%.1f,%.1f)", w.ID, w.A.X, w.A.Y)
		}
		return fmt.Errorf("wall %d: %w", w.ID, ErrDegenerateGeometry)
	}
	if w.IntersectsWith == nil {
		w.IntersectsWith = make(map[uint32]Intersection)
	}
	s.walls[w.ID] = w
	s.index.Insert(w.ID, w.Bounds())
	s.UpdateIntersections(w)
	return nil
}

// Update re-registers a wall after its data changed.
func (s *Set) Update(w *Wall) error {
	s.removeIntersections(w)
	return s.Add(w)
}

// Remove drops a wall and scrubs it from every intersection map.
func (s *Set) Remove(id uint32) {
	w, ok := s.walls[id]
	if !ok {
		return
	}
	s.removeIntersections(w)
	s.index.Remove(id)
	delete(s.walls, id)
}

func (s *Set) Get(id uint32) (*Wall, bool) {
	w, ok := s.walls[id]
	return w, ok
}

// Len returns the number of scene walls (boundary walls excluded).
func (s *Set) Len() int {
	return len(s.walls)
}

// All returns scene walls in ascending id order.
func (s *Set) All() []*Wall {
	out := make([]*Wall, 0, len(s.walls))
	for _, w := range s.walls {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Candidates returns the walls whose bounds intersect rect plus every
// boundary wall, in ascending id order for deterministic sweeps.
func (s *Set) Candidates(rect geometry.Rect) []*Wall {
	ids := s.index.Query(rect)
	out := make([]*Wall, 0, len(ids)+len(s.boundary))
	for id := range ids {
		out = append(out, s.walls[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return append(out, s.boundary...)
}

// UpdateIntersections recomputes w's intersection map against every other
// wall and the boundary rectangles, maintaining the symmetric invariant.
// Walls sharing a quantized endpoint are excluded.
func (s *Set) UpdateIntersections(w *Wall) {
	s.removeIntersections(w)
	others := make([]*Wall, 0, len(s.walls)+len(s.boundary))
	for _, o := range s.walls {
		if o.ID != w.ID {
			others = append(others, o)
		}
	}
	others = append(others, s.boundary...)
	for _, o := range others {
		if w.SharesEndpoint(o) {
			continue
		}
		p, t0, t1, ok := geometry.SegmentIntersection(w.A, w.B, o.A, o.B)
		if !ok {
			continue
		}
		w.IntersectsWith[o.ID] = Intersection{X: p.X, Y: p.Y, T0: t0, T1: t1}
		o.IntersectsWith[w.ID] = Intersection{X: p.X, Y: p.Y, T0: t1, T1: t0}
	}
}

func (s *Set) removeIntersections(w *Wall) {
	for id := range w.IntersectsWith {
		if o, ok := s.walls[id]; ok {
			delete(o.IntersectsWith, w.ID)
		}
	}
	for _, b := range s.boundary {
		delete(b.IntersectsWith, w.ID)
	}
	w.IntersectsWith = make(map[uint32]Intersection)
}
