package engine

import (
	"github.com/nathoo/questsim/engine/rng"
	"github.com/nathoo/questsim/types"
)

// Content markers that delimit the playable range.
const (
	MarkerStart = "adventure_start"
	MarkerEnd   = "adventure_end"
)

// SelectScenes builds the working list from the fetched scenes:
//  1. restrict to the adventure_start..adventure_end range when marked,
//  2. shuffle when RandomOrder is set,
//  3. truncate to MaxScenes when it is positive.
//
// The input is not modified.
func SelectScenes(all []types.Scene, cfg types.SimulationConfig, r *rng.RNG) []types.Scene {
	if len(all) == 0 {
		return nil
	}

	// 1. Marked range. A missing start begins at the first scene; a missing
	// end, or one before the start, runs to the last.
	start, end := 0, len(all)-1
	for i, s := range all {
		if hasMarker(s, MarkerStart) {
			start = i
			break
		}
	}
	for i := start; i < len(all); i++ {
		if hasMarker(all[i], MarkerEnd) {
			end = i
			break
		}
	}
	working := append([]types.Scene{}, all[start:end+1]...)

	// 2. Shuffle.
	if cfg.RandomOrder {
		r.Shuffle(len(working), func(i, j int) {
			working[i], working[j] = working[j], working[i]
		})
	}

	// 3. Truncate.
	if cfg.MaxScenes > 0 && len(working) > cfg.MaxScenes {
		working = working[:cfg.MaxScenes]
	}
	return working
}

func hasMarker(s types.Scene, marker string) bool {
	for _, m := range s.Markers {
		if m == marker {
			return true
		}
	}
	return false
}
