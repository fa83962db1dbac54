package engine

import (
	"fmt"

	"github.com/nathoo/questsim/engine/effects"
	"github.com/nathoo/questsim/types"
)

// CheckDamage returns the wounds a resolved check deals: its failure damage
// when it failed, plus its critical-failure damage when the failure was a
// natural 1. A check that succeeds deals nothing, even on a natural 1.
func CheckDamage(ch types.Challenge, roll types.RollResult) (failure, critical int) {
	if roll.Success {
		return 0, 0
	}
	failure = max(0, ch.FailureDamage)
	if roll.Critical == "failure" {
		critical = max(0, ch.CriticalFailureDamage)
	}
	return failure, critical
}

// resolveCheck rolls one called check with the player's skill bonus and
// applies its damage as effects.
func (r *Runner) resolveCheck(s types.Scene, ch types.Challenge) (types.RollResult, effects.Result) {
	bonus := r.player.SkillBonus(ch.Skill)
	roll := r.dice.Roll(ch.Difficulty, bonus)

	msg := fmt.Sprintf("%s: 1d20+%d → [%d]+%d = %d vs DC %d → %s",
		ch.Skill, bonus, roll.Roll, bonus, roll.Total, roll.Target, verdict(roll))
	r.events.Emit("check_resolved", s.ID, msg, map[string]any{
		"challenge": ch.ID,
		"roll":      roll.Roll,
		"total":     roll.Total,
		"success":   roll.Success,
		"critical":  roll.Critical,
		"combat":    r.matcher.IsCombat(ch),
	})

	failure, critical := CheckDamage(ch, roll)
	var effs []types.Effect
	if failure > 0 {
		effs = append(effs, damage(failure))
	}
	if critical > 0 {
		effs = append(effs, damage(critical))
	}
	if len(effs) == 0 {
		return roll, effects.Result{}
	}
	return roll, effects.Apply(r.targets(), effs, effects.Context{SceneID: s.ID, SourceID: ch.ID})
}

func verdict(roll types.RollResult) string {
	switch {
	case roll.Critical == "success":
		return "critical success"
	case roll.Critical == "failure" && !roll.Success:
		return "critical failure"
	case roll.Success:
		return "success"
	}
	return "failure"
}

func damage(n int) types.Effect {
	return types.Effect{Type: "damage", Params: map[string]any{"amount": n}}
}
