// Package quadtree provides a rectangle-keyed spatial index over scene
// entities. Queries return a superset of the entities whose bounds intersect
// the query rectangle; callers narrow the result with exact geometry.
package quadtree

import (
	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
)

const (
	splitThreshold = 16
	maxDepth       = 8
)

// Quadtree indexes entity ids by axis-aligned bounding box. Entities whose
// bounds straddle a child split stay on the parent node, so a lookup never
// misses an overlapping entity.
type Quadtree struct {
	root   *node
	bounds map[uint32]geometry.Rect
}

type item struct {
	id   uint32
	aabb geometry.Rect
}

type node struct {
	bounds   geometry.Rect
	depth    int
	items    []item
	children *[4]*node
}

func New(bounds geometry.Rect) *Quadtree {
	return &Quadtree{
		root:   &node{bounds: bounds},
		bounds: make(map[uint32]geometry.Rect),
	}
}

// Insert adds an entity. Inserting an id twice replaces its bounds.
func (q *Quadtree) Insert(id uint32, aabb geometry.Rect) {
	if old, ok := q.bounds[id]; ok {
		q.root.remove(id, old)
	}
	q.bounds[id] = aabb
	q.root.insert(item{id: id, aabb: aabb})
}

// Update moves an entity to new bounds.
func (q *Quadtree) Update(id uint32, aabb geometry.Rect) {
	q.Insert(id, aabb)
}

// Remove deletes an entity; unknown ids are ignored.
func (q *Quadtree) Remove(id uint32) {
	old, ok := q.bounds[id]
	if !ok {
		return
	}
	q.root.remove(id, old)
	delete(q.bounds, id)
}

// Size returns the number of indexed entities.
func (q *Quadtree) Size() int {
	return len(q.bounds)
}

// Contains reports whether the entity is indexed.
func (q *Quadtree) Contains(id uint32) bool {
	_, ok := q.bounds[id]
	return ok
}

// Query collects ids of all entities whose bounds intersect rect. The result
// may include entities that only touch the rectangle; it never omits one
// that overlaps it.
func (q *Quadtree) Query(rect geometry.Rect) map[uint32]struct{} {
	out := make(map[uint32]struct{})
	q.root.query(rect, out)
	return out
}

// Clear drops every entity but keeps the tree bounds.
func (q *Quadtree) Clear() {
	q.root = &node{bounds: q.root.bounds}
	q.bounds = make(map[uint32]geometry.Rect)
}

func (n *node) insert(it item) {
	if n.children != nil {
		if c := n.childFor(it.aabb); c != nil {
			c.insert(it)
			return
		}
		n.items = append(n.items, it)
		return
	}
	n.items = append(n.items, it)
	if len(n.items) > splitThreshold && n.depth < maxDepth {
		n.split()
	}
}

func (n *node) split() {
	hw, hh := n.bounds.Width/2, n.bounds.Height/2
	x, y := n.bounds.X, n.bounds.Y
	n.children = &[4]*node{
		{bounds: geometry.Rect{X: x, Y: y, Width: hw, Height: hh}, depth: n.depth + 1},
		{bounds: geometry.Rect{X: x + hw, Y: y, Width: hw, Height: hh}, depth: n.depth + 1},
		{bounds: geometry.Rect{X: x, Y: y + hh, Width: hw, Height: hh}, depth: n.depth + 1},
		{bounds: geometry.Rect{X: x + hw, Y: y + hh, Width: hw, Height: hh}, depth: n.depth + 1},
	}
	items := n.items
	n.items = nil
	for _, it := range items {
		if c := n.childFor(it.aabb); c != nil {
			c.insert(it)
		} else {
			n.items = append(n.items, it)
		}
	}
}

func (n *node) childFor(aabb geometry.Rect) *node {
	for _, c := range n.children {
		if c.bounds.ContainsRect(aabb) {
			return c
		}
	}
	return nil
}

func (n *node) remove(id uint32, aabb geometry.Rect) bool {
	if n.children != nil {
		if c := n.childFor(aabb); c != nil && c.remove(id, aabb) {
			return true
		}
	}
	for i, it := range n.items {
		if it.id == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

func (n *node) query(rect geometry.Rect, out map[uint32]struct{}) {
	if n.depth > 0 && !n.bounds.Intersects(rect) {
		return
	}
	for _, it := range n.items {
		if it.aabb.Intersects(rect) {
			out[it.id] = struct{}{}
		}
	}
	if n.children != nil {
		for _, c := range n.children {
			c.query(rect, out)
		}
	}
}
