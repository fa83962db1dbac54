package archetype

import (
	"fmt"

	"github.com/nathoo/questsim/engine/parser"
	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

// creative lists the non-standard actions each archetype attempts.
var creative = map[string][]string{
	Detective:   {"interrogate the witnesses", "search for hidden clues"},
	ChaosAgent:  {"ally with enemies", "betray companion", "set fire to the scenery"},
	Empath:      {"comfort the grieving", "negotiate a peaceful resolution"},
	Tactician:   {"ambush the enemy", "climb to high ground"},
	Explorer:    {"search for secret passages", "climb the walls"},
	Speedrunner: {"sneak past everything", "escape through the nearest exit"},
	Roleplayer:  {"persuade with an in-character speech", "deceive with a false identity"},
	Skeptic:     {"refuse the quest", "steal the evidence"},
}

// CreativeActions returns the creative actions the archetype attempts in
// a scene. Actions aimed at people are skipped when the scene has no NPCs.
func CreativeActions(arch types.PlayerArchetype, scene types.Scene) []string {
	var out []string
	for _, a := range creative[arch.ID] {
		if len(scene.NPCs) == 0 && needsNPC(parser.ParseAction(a).Verb) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func needsNPC(verb string) bool {
	switch verb {
	case "interrogate", "comfort", "persuade", "deceive", "betray", "ally", "negotiate":
		return true
	}
	return false
}

// CheckActions tests each action against the scene's content and returns
// one medium-severity unhandled_action feedback per unsupported action.
func CheckActions(m *rules.Matcher, arch types.PlayerArchetype, scene types.Scene, actions []string) []types.ArchetypeFeedback {
	var out []types.ArchetypeFeedback
	for _, a := range actions {
		if m.SupportsAction(parser.ParseAction(a), scene) {
			continue
		}
		out = append(out, types.ArchetypeFeedback{
			SceneID:     scene.ID,
			ArchetypeID: arch.ID,
			Type:        types.FeedbackUnhandledAction,
			Description: fmt.Sprintf("%s tried to %s, but no trigger, challenge or exit in %s covers it", arch.Name, a, scene.ID),
			Suggestion:  fmt.Sprintf("Give the GM a note on how the scene responds if players %s.", a),
			Severity:    types.SeverityMedium,
		})
	}
	return out
}
