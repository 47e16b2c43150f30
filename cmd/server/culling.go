package main

import (
	"sort"

	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/protocol"
	"github.com/Ko-stant/scene-perception-engine/internal/vision"
	"github.com/Ko-stant/scene-perception-engine/internal/walls"
)

// checkForNewlyVisibleDoors tests every undiscovered door control against
// the current composite and marks the perceived ones as known. Discovery is
// sticky: a door seen once stays on the client even after sight moves away.
func (e *PerceptionEngineImpl) checkForNewlyVisibleDoors() []protocol.DoorLite {
	var ids []uint32
	var lites []protocol.DoorLite

	for _, w := range e.state.Walls.All() {
		if w.Door == walls.DoorNone {
			continue
		}
		if w.Door == walls.DoorSecret && !e.state.Viewer.IsGM() {
			continue
		}
		if e.state.KnownDoors[w.ID] {
			continue
		}
		mid := geometry.Point{X: (w.A.X + w.B.X) / 2, Y: (w.A.Y + w.B.Y) / 2}
		visible, _ := e.oracle.TestVisibility(mid, vision.TestOptions{})
		if !visible {
			continue
		}
		ids = append(ids, w.ID)
		lites = append(lites, protocol.DoorLite{
			WallID: w.ID,
			X:      mid.X,
			Y:      mid.Y,
			Kind:   doorKindToString(w.Door),
			State:  doorStateToString(w.DoorState),
		})
	}

	addKnownDoors(e.state, ids)
	sort.Slice(lites, func(i, j int) bool { return lites[i].WallID < lites[j].WallID })
	return lites
}

// checkForNewlyVisibleNotes reveals map notes the same way doors are
// discovered. Globally visible notes are revealed on the first pass
// regardless of sight.
func (e *PerceptionEngineImpl) checkForNewlyVisibleNotes() []protocol.NoteLite {
	var ids []uint32
	var lites []protocol.NoteLite

	for _, n := range e.state.Notes {
		if e.state.KnownNotes[n.ID] {
			continue
		}
		if !n.GlobalVisible && !e.state.Viewer.IsGM() {
			p := geometry.Point{X: n.X, Y: n.Y}
			visible, _ := e.oracle.TestVisibility(p, vision.TestOptions{})
			if !visible {
				continue
			}
		}
		ids = append(ids, n.ID)
		lites = append(lites, protocol.NoteLite{ID: n.ID, X: n.X, Y: n.Y})
	}

	addKnownNotes(e.state, ids)
	sort.Slice(lites, func(i, j int) bool { return lites[i].ID < lites[j].ID })
	return lites
}

// visibleTokens computes the full set of tokens the viewer currently
// perceives. Unlike doors and notes this is not sticky: a token that walks
// behind a wall disappears from the next update.
func (e *PerceptionEngineImpl) visibleTokens() []protocol.TokenLite {
	var lites []protocol.TokenLite

	for _, t := range e.state.Tokens {
		if t.Hidden && !e.state.Viewer.IsGM() {
			continue
		}
		detectedBy := ""
		if !e.state.Viewer.PermissionFor(*t) {
			c := t.Center()
			visible, mode := e.oracle.TestVisibility(c, vision.TestOptions{
				Tolerance: t.ExternalRadius(),
				IsToken:   true,
			})
			if !visible {
				continue
			}
			detectedBy = mode
		}
		lites = append(lites, protocol.TokenLite{
			ID:         t.ID,
			Name:       t.Name,
			X:          t.X,
			Y:          t.Y,
			DetectedBy: detectedBy,
		})
	}

	sort.Slice(lites, func(i, j int) bool { return lites[i].ID < lites[j].ID })
	return lites
}
