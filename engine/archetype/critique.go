package archetype

import (
	"fmt"

	"github.com/nathoo/questsim/types"
)

// Trait thresholds that unlock each critique.
const (
	highTrait = 70
	lowTrait  = 40

	// dragTurns is the turn count past which an impatient player calls a
	// scene slow.
	dragTurns = 6
)

// Critique derives the archetype's non-action feedback for one finished
// scene from its traits, the scene content, the scene's metrics and the
// lookups made in it.
func Critique(arch types.PlayerArchetype, scene types.Scene, sa types.SceneAnalysis, lookups []types.InformationLookup) []types.ArchetypeFeedback {
	var out []types.ArchetypeFeedback
	add := func(ft types.FeedbackType, sev types.Severity, desc, sugg string) {
		out = append(out, types.ArchetypeFeedback{
			SceneID:     scene.ID,
			ArchetypeID: arch.ID,
			Type:        ft,
			Description: desc,
			Suggestion:  sugg,
			Severity:    sev,
		})
	}

	// Missing content: unanswered questions the archetype cares about.
	for _, l := range lookups {
		if l.Found || l.Question.Context.SceneID != scene.ID {
			continue
		}
		if arch.QuestionWeights[l.Question.Type] < 50 {
			continue
		}
		desc := fmt.Sprintf("%s asked %q and found no answer", arch.Name, l.Question.Query)
		if id := l.Question.Context.NPCID; id != "" {
			desc += fmt.Sprintf(" (npc: %s)", id)
		}
		sev := types.SeverityMedium
		if l.Question.Type == types.QuestionNPCInfo || l.Question.Type == types.QuestionNPCMotivation {
			sev = types.SeverityHigh
		}
		add(types.FeedbackMissingContent, sev, desc,
			"Add the answer to the scene text or the conversation guide.")
	}

	// Unclear direction: nowhere obvious to go.
	if !sa.HasExitPath {
		sev := types.SeverityMedium
		if arch.Traits.Patience < lowTrait {
			sev = types.SeverityHigh
		}
		add(types.FeedbackUnclearDirection, sev,
			fmt.Sprintf("%s could not tell where to go after %s", arch.Name, scene.ID),
			"Add an exit, a next scene, or mark the scene as an ending.")
	}

	// Shallow NPCs: empathetic players notice flat characters.
	if arch.Traits.Empathy >= highTrait {
		for _, n := range scene.NPCs {
			if n.Motivation == "" && n.Description == "" {
				add(types.FeedbackShallowNPC, types.SeverityLow,
					fmt.Sprintf("%s (npc: %s) has no described personality or motivation", npcName(n), n.ID),
					"Give the NPC a want and a distinguishing detail.")
			}
		}
	}

	// Emotional gap: NPCs present but nothing to talk to them about.
	if arch.Traits.Empathy >= highTrait && len(scene.NPCs) > 0 && len(scene.Conversation) == 0 {
		add(types.FeedbackEmotionalGap, types.SeverityMedium,
			fmt.Sprintf("%s found no conversation guide for the people in %s", arch.Name, scene.ID),
			"Add conversation topics that let players connect with the NPCs.")
	}

	// Pacing.
	switch {
	case arch.Traits.Patience < lowTrait && sa.Turns > dragTurns:
		add(types.FeedbackPacingIssue, types.SeverityLow,
			fmt.Sprintf("%s felt %s dragged over %d turns", arch.Name, scene.ID, sa.Turns),
			"Trim checks or merge NPC beats.")
	case arch.Traits.RiskTolerance >= highTrait && len(scene.Challenges) == 0 && len(scene.Triggers) == 0:
		add(types.FeedbackPacingIssue, types.SeverityLow,
			fmt.Sprintf("%s found nothing at stake in %s", arch.Name, scene.ID),
			"Add a complication, a check or a timed trigger.")
	}

	// Logic gaps: suspicious players poke at how checks are framed.
	for _, ch := range scene.Challenges {
		if ch.Difficulty > 20 {
			add(types.FeedbackLogicGap, types.SeverityHigh,
				fmt.Sprintf("Challenge %s has difficulty %d, beyond any natural d20", ch.ID, ch.Difficulty),
				"Lower the difficulty or explain how bonuses make it reachable.")
			continue
		}
		if arch.Traits.Suspicion >= highTrait && ch.Type == types.ChallengeHidden && ch.GMDescription == "" {
			add(types.FeedbackLogicGap, types.SeverityMedium,
				fmt.Sprintf("%s hit hidden challenge %s with no explanation of what it represents", arch.Name, ch.ID),
				"Describe what the hidden check detects and how the GM narrates it.")
		}
	}

	// Immersion: curious players need something to look at.
	if arch.Traits.Curiosity >= highTrait && scene.Narrative == "" && scene.Environment == nil {
		add(types.FeedbackImmersionBreak, types.SeverityMedium,
			fmt.Sprintf("%s had nothing to picture in %s", arch.Name, scene.ID),
			"Add read-aloud narrative or an environment block.")
	}

	return out
}
