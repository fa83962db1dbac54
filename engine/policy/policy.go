// Package policy holds the GM and player behavior predicates. Each
// behavior value maps to one named pure function; the only input besides
// the content element is the run's RNG, used by the random behaviors.
package policy

import (
	"github.com/nathoo/questsim/engine/rng"
	"github.com/nathoo/questsim/types"
)

// SupportiveMaxDifficulty is the hardest check a supportive GM calls.
const SupportiveMaxDifficulty = 10

// TriggerPolicy decides whether the GM fires a trigger.
type TriggerPolicy func(tr types.Trigger, r *rng.RNG) bool

// ChallengePolicy decides whether the GM calls for a challenge.
type ChallengePolicy func(ch types.Challenge, r *rng.RNG) bool

// InteractPolicy decides whether the player engages an NPC.
type InteractPolicy func(npc types.NPCReference, r *rng.RNG) bool

// GMTriggers maps each GM behavior to its trigger predicate.
var GMTriggers = map[types.GMBehavior]TriggerPolicy{
	types.GMThorough:    fireAlways,
	types.GMEfficient:   fireRequired,
	types.GMDramatic:    fireDramatic,
	types.GMRandom:      fireCoinFlip,
	types.GMAdversarial: fireHarmful,
	types.GMSupportive:  fireHelpful,
}

// GMChallenges maps each GM behavior to its challenge predicate.
var GMChallenges = map[types.GMBehavior]ChallengePolicy{
	types.GMThorough:    callAlways,
	types.GMEfficient:   callRequired,
	types.GMDramatic:    callDangerous,
	types.GMRandom:      callCoinFlip,
	types.GMAdversarial: callAlways,
	types.GMSupportive:  callEasy,
}

// PlayerInteractions maps each player behavior to its NPC predicate.
var PlayerInteractions = map[types.PlayerBehavior]InteractPolicy{
	types.PlayerThorough:   interactAlways,
	types.PlayerAggressive: interactAlways,
	types.PlayerCautious:   interactNonHostile,
	types.PlayerRandom:     interactCoinFlip,
	types.PlayerSpeedrun:   interactRequired,
	types.PlayerOptimal:    interactUseful,
}

// Trigger returns the trigger policy for b. Unknown values act thorough.
func Trigger(b types.GMBehavior) TriggerPolicy {
	if p, ok := GMTriggers[b]; ok {
		return p
	}
	return fireAlways
}

// Challenge returns the challenge policy for b. Unknown values act thorough.
func Challenge(b types.GMBehavior) ChallengePolicy {
	if p, ok := GMChallenges[b]; ok {
		return p
	}
	return callAlways
}

// Interact returns the interaction policy for b. Unknown values act thorough.
func Interact(b types.PlayerBehavior) InteractPolicy {
	if p, ok := PlayerInteractions[b]; ok {
		return p
	}
	return interactAlways
}

func fireAlways(types.Trigger, *rng.RNG) bool { return true }

func fireRequired(tr types.Trigger, _ *rng.RNG) bool { return tr.Required }

func fireDramatic(tr types.Trigger, _ *rng.RNG) bool { return tr.Irreversible || tr.Dramatic }

func fireCoinFlip(_ types.Trigger, r *rng.RNG) bool { return r.Chance(0.5) }

func fireHarmful(tr types.Trigger, _ *rng.RNG) bool { return tr.Harmful }

func fireHelpful(tr types.Trigger, _ *rng.RNG) bool { return tr.Helpful }

func callAlways(types.Challenge, *rng.RNG) bool { return true }

func callRequired(ch types.Challenge, _ *rng.RNG) bool { return ch.Required }

// callDangerous calls checks that can hurt or are fights.
func callDangerous(ch types.Challenge, _ *rng.RNG) bool {
	return ch.Combat || ch.FailureDamage > 0 || ch.CriticalFailureDamage > 0
}

func callCoinFlip(_ types.Challenge, r *rng.RNG) bool { return r.Chance(0.5) }

func callEasy(ch types.Challenge, _ *rng.RNG) bool {
	return ch.Difficulty <= SupportiveMaxDifficulty
}

func interactAlways(types.NPCReference, *rng.RNG) bool { return true }

func interactNonHostile(n types.NPCReference, _ *rng.RNG) bool { return !n.Hostile }

func interactCoinFlip(_ types.NPCReference, r *rng.RNG) bool { return r.Chance(0.5) }

func interactRequired(n types.NPCReference, _ *rng.RNG) bool { return n.Required }

// interactUseful talks to anyone required plus every non-hostile NPC.
func interactUseful(n types.NPCReference, _ *rng.RNG) bool {
	return n.Required || !n.Hostile
}
