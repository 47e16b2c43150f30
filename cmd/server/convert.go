package main

import (
	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/scene"
	"github.com/Ko-stant/scene-perception-engine/internal/walls"
)

func senseFromString(s string, fallback walls.SenseRestriction) walls.SenseRestriction {
	switch s {
	case "none":
		return walls.SenseNone
	case "normal":
		return walls.SenseNormal
	case "limited":
		return walls.SenseLimited
	case "proximity":
		return walls.SenseProximity
	case "distance":
		return walls.SenseDistance
	}
	return fallback
}

func doorFromString(s string) walls.DoorKind {
	switch s {
	case "door":
		return walls.DoorRegular
	case "secret":
		return walls.DoorSecret
	}
	return walls.DoorNone
}

func doorStateFromString(s string) walls.DoorState {
	switch s {
	case "open":
		return walls.DoorOpen
	case "locked":
		return walls.DoorLocked
	}
	return walls.DoorClosed
}

func doorStateToString(s walls.DoorState) string {
	switch s {
	case walls.DoorOpen:
		return "open"
	case walls.DoorLocked:
		return "locked"
	}
	return "closed"
}

func doorKindToString(k walls.DoorKind) string {
	switch k {
	case walls.DoorSecret:
		return "secret"
	case walls.DoorRegular:
		return "door"
	}
	return "none"
}

func directionFromString(s string) walls.Direction {
	switch s {
	case "left":
		return walls.DirectionLeft
	case "right":
		return walls.DirectionRight
	}
	return walls.DirectionBoth
}

// wallFromScene converts a serialized wall into the occlusion model. Every
// sense defaults to a normal restriction when unset.
func wallFromScene(w scene.Wall) *walls.Wall {
	out := &walls.Wall{
		ID:        w.ID,
		A:         geometry.Point{X: w.X0, Y: w.Y0},
		B:         geometry.Point{X: w.X1, Y: w.Y1},
		Sight:     senseFromString(w.Sight, walls.SenseNormal),
		Move:      senseFromString(w.Move, walls.SenseNormal),
		Sound:     senseFromString(w.Sound, walls.SenseNormal),
		Light:     senseFromString(w.Light, walls.SenseNormal),
		Door:      doorFromString(w.Door),
		DoorState: doorStateFromString(w.DoorState),
		Direction: directionFromString(w.Direction),
	}
	out.Threshold = walls.Threshold{
		Sight: w.Threshold.Sight,
		Sound: w.Threshold.Sound,
		Light: w.Threshold.Light,
	}
	return out
}
