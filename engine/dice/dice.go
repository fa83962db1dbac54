// Package dice resolves d20-vs-DC checks under a selectable weighting
// policy and accumulates roll statistics for the run report.
package dice

import (
	"github.com/nathoo/questsim/engine/rng"
	"github.com/nathoo/questsim/types"
)

// Sides is the die every check is rolled on.
const Sides = 20

// Policy draws one raw d20 result.
type Policy func(r *rng.RNG) int

// Fair draws uniformly from 1..20.
func Fair(r *rng.RNG) int {
	return r.Roll(Sides)
}

// Blessed always rolls a natural 20.
func Blessed(_ *rng.RNG) int {
	return Sides
}

// Cursed always rolls a natural 1.
func Cursed(_ *rng.RNG) int {
	return 1
}

// Lucky draws uniformly from the upper sub-range 6..20.
func Lucky(r *rng.RNG) int {
	return min(Sides, r.Roll(15)+5)
}

// Unlucky draws uniformly from the lower sub-range 1..15.
func Unlucky(r *rng.RNG) int {
	return max(1, r.Roll(15))
}

// Policies maps each dice mode to its policy.
var Policies = map[types.DiceMode]Policy{
	types.DiceFair:    Fair,
	types.DiceBlessed: Blessed,
	types.DiceCursed:  Cursed,
	types.DiceLucky:   Lucky,
	types.DiceUnlucky: Unlucky,
}

// PolicyFor returns the policy for mode. Unknown modes roll fair.
func PolicyFor(mode types.DiceMode) Policy {
	if p, ok := Policies[mode]; ok {
		return p
	}
	return Fair
}

// Engine rolls checks and keeps statistics.
type Engine struct {
	rng    *rng.RNG
	policy Policy
	stats  types.DiceStats
	high   int // raw rolls >= 10
}

// New creates a dice engine drawing from r under mode.
func New(r *rng.RNG, mode types.DiceMode) *Engine {
	return &Engine{
		rng:    r,
		policy: PolicyFor(mode),
		stats:  types.DiceStats{Rolls: []int{}},
	}
}

// Roll resolves one check against target with the given bonus.
// A natural 20 is always a critical success and a natural 1 always a
// critical failure, regardless of whether the total beats the target.
func (e *Engine) Roll(target, bonus int) types.RollResult {
	roll := e.policy(e.rng)
	total := roll + bonus
	res := types.RollResult{
		Roll:    roll,
		Bonus:   bonus,
		Total:   total,
		Target:  target,
		Success: total >= target,
	}
	switch roll {
	case Sides:
		res.Critical = "success"
	case 1:
		res.Critical = "failure"
	}
	e.record(res)
	return res
}

func (e *Engine) record(res types.RollResult) {
	s := &e.stats
	s.Count++
	s.Rolls = append(s.Rolls, res.Roll)
	s.Mean += (float64(res.Roll) - s.Mean) / float64(s.Count)
	switch res.Critical {
	case "success":
		s.CriticalSuccesses++
	case "failure":
		s.CriticalFailures++
	}
	// The engine does not keep each roll's DC, so success rate counts raw
	// rolls of 10 or more.
	if res.Roll >= 10 {
		e.high++
	}
	s.SuccessRate = float64(e.high) / float64(s.Count)
}

// Stats returns a copy of the accumulated statistics.
func (e *Engine) Stats() types.DiceStats {
	out := e.stats
	out.Rolls = append([]int(nil), e.stats.Rolls...)
	if out.Rolls == nil {
		out.Rolls = []int{}
	}
	return out
}
