package main

import "github.com/Ko-stant/scene-perception-engine/internal/flags"

// Perception-layer flag names. The engine registers itself as a flag target
// and interprets the drained set in refreshOrder.
const (
	flagInitializeVision   = "initializeVision"
	flagInitializeLighting = "initializeLighting"
	flagRefreshVision      = "refreshVision"
	flagRefreshLighting    = "refreshLighting"
	flagRefreshVisibility  = "refreshVisibility"
	flagRefreshOcclusion   = "refreshOcclusion"
	flagRefreshAll         = "refreshAll"
)

// perceptionTable wires the refresh cascade: re-initializing a layer forces
// its geometry rebuild, any geometry rebuild forces a composite, and a
// composite forces occlusion culling. refreshAll is an alias that fans out
// to both initialize flags without ever being stored itself.
var perceptionTable = flags.Table{
	flagInitializeVision:   {Propagate: []string{flagRefreshVision}},
	flagInitializeLighting: {Propagate: []string{flagRefreshLighting}},
	flagRefreshVision:      {Propagate: []string{flagRefreshVisibility}},
	flagRefreshLighting:    {Propagate: []string{flagRefreshVisibility}},
	flagRefreshVisibility:  {Propagate: []string{flagRefreshOcclusion}},
	flagRefreshOcclusion:   {},
	flagRefreshAll: {
		Alias:     true,
		Propagate: []string{flagInitializeVision, flagInitializeLighting},
	},
}

// refreshOrder is the application order of drained perception flags.
var refreshOrder = []string{
	flagInitializeVision,
	flagInitializeLighting,
	flagRefreshVision,
	flagRefreshLighting,
	flagRefreshVisibility,
	flagRefreshOcclusion,
}
