package main

import (
	"sort"
	"sync"

	"github.com/Ko-stant/scene-perception-engine/internal/scene"
	"github.com/Ko-stant/scene-perception-engine/internal/source"
	"github.com/Ko-stant/scene-perception-engine/internal/walls"
)

// SceneState holds the mutable perception state of one loaded scene.
type SceneState struct {
	Snapshot *scene.Snapshot
	Walls    *walls.Set
	Sources  map[uint32]*source.Source
	Tokens   map[uint32]*scene.Token
	Lights   map[uint32]*scene.Light
	Notes    map[uint32]*scene.Note
	Viewer   scene.User

	// KnownDoors and KnownNotes track controls already revealed to the
	// viewer; revelation is sticky within a session.
	KnownDoors map[uint32]bool
	KnownNotes map[uint32]bool

	Lock sync.Mutex
}

func NewSceneState(snapshot *scene.Snapshot, wallSet *walls.Set, viewer scene.User) *SceneState {
	state := &SceneState{
		Snapshot:   snapshot,
		Walls:      wallSet,
		Sources:    make(map[uint32]*source.Source),
		Tokens:     make(map[uint32]*scene.Token),
		Lights:     make(map[uint32]*scene.Light),
		Notes:      make(map[uint32]*scene.Note),
		Viewer:     viewer,
		KnownDoors: make(map[uint32]bool),
		KnownNotes: make(map[uint32]bool),
	}
	for i := range snapshot.Tokens {
		t := snapshot.Tokens[i]
		state.Tokens[t.ID] = &t
	}
	for i := range snapshot.Lights {
		l := snapshot.Lights[i]
		state.Lights[l.ID] = &l
	}
	for i := range snapshot.Notes {
		n := snapshot.Notes[i]
		state.Notes[n.ID] = &n
	}
	return state
}

// ControlledTokens returns the tokens whose vision the viewer perceives
// through, in id order. GMs perceive through every sighted token.
func (st *SceneState) ControlledTokens() []*scene.Token {
	var out []*scene.Token
	for _, t := range st.Tokens {
		if t.DimSight <= 0 && t.BrightSight <= 0 {
			continue
		}
		if st.Viewer.PermissionFor(*t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func addKnownDoors(state *SceneState, ids []uint32) (added []uint32) {
	for _, id := range ids {
		if !state.KnownDoors[id] {
			state.KnownDoors[id] = true
			added = append(added, id)
		}
	}
	return
}

func addKnownNotes(state *SceneState, ids []uint32) (added []uint32) {
	for _, id := range ids {
		if !state.KnownNotes[id] {
			state.KnownNotes[id] = true
			added = append(added, id)
		}
	}
	return
}
