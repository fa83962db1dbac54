// Package scene accumulates per-scene metrics into a finalized
// SceneAnalysis record.
package scene

import (
	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

// HasExitPath reports whether a scene declares any way forward: explicit
// exits, a next-scene pointer, or being an ending.
func HasExitPath(s types.Scene) bool {
	return len(s.Exits) > 0 || s.NextScene != "" || IsEnding(s)
}

// IsEnding reports whether the scene is explicitly an ending.
// The adventure_end marker only bounds scene selection.
func IsEnding(s types.Scene) bool {
	return s.Type == "ending"
}

// OpenExits returns the exits whose flag gate is satisfied and whose
// target is a known scene.
func OpenExits(s types.Scene, flags rules.FlagChecker, known func(id string) bool) []types.Exit {
	var out []types.Exit
	for _, e := range s.Exits {
		if !rules.ExitOpen(e, flags) {
			continue
		}
		if known != nil && !known(e.Target) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Analyzer accumulates metrics for one scene. Create one per scene turn.
type Analyzer struct {
	rec        types.SceneAnalysis
	interacted map[string]bool
	finalized  bool
}

// Start begins a record for s.
func Start(s types.Scene) *Analyzer {
	return &Analyzer{
		rec: types.SceneAnalysis{
			ID:                s.ID,
			Title:             s.Title,
			TriggersAvailable: len(s.Triggers),
			NPCsPresent:       len(s.NPCs),
			HasExitPath:       HasExitPath(s),
			ExitsTaken:        []string{},
			Issues:            []string{},
			Turns:             1,
		},
		interacted: map[string]bool{},
	}
}

// TriggerFired counts a fired trigger.
func (a *Analyzer) TriggerFired() { a.rec.TriggersFired++ }

// CheckAttempted counts a called check and its outcome. Each check is a turn.
func (a *Analyzer) CheckAttempted(passed bool) {
	a.rec.ChecksAttempted++
	a.rec.Turns++
	if passed {
		a.rec.ChecksPassed++
	}
}

// NPCInteracted counts an interaction. Each interaction is a turn; an NPC
// counts once toward npcsInteracted.
func (a *Analyzer) NPCInteracted(id string) {
	a.rec.Turns++
	if !a.interacted[id] {
		a.interacted[id] = true
		a.rec.NPCsInteracted++
	}
}

// Wounded adds wounds taken in this scene.
func (a *Analyzer) Wounded(n int) {
	if n > 0 {
		a.rec.WoundsTaken += n
	}
}

// ExitTaken records the exit the run left by.
func (a *Analyzer) ExitTaken(target string) {
	a.rec.ExitsTaken = append(a.rec.ExitsTaken, target)
}

// Issue attaches an issue code to the scene.
func (a *Analyzer) Issue(code string) {
	a.rec.Issues = append(a.rec.Issues, code)
}

// Turns returns the turns consumed so far.
func (a *Analyzer) Turns() int { return a.rec.Turns }

// Finalize closes the record. completed is false when the run ended
// mid-scene. Further calls return the same record.
func (a *Analyzer) Finalize(completed bool) types.SceneAnalysis {
	if !a.finalized {
		a.rec.Completed = completed
		a.finalized = true
	}
	return copyRecord(a.rec)
}

func copyRecord(r types.SceneAnalysis) types.SceneAnalysis {
	r.ExitsTaken = append([]string{}, r.ExitsTaken...)
	r.Issues = append([]string{}, r.Issues...)
	return r
}
