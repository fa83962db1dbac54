package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/nathoo/questsim/content"
	"github.com/nathoo/questsim/types"
)

// ValidationError is the content package's error type; the loader adds
// DSL-specific problems to the same lists.
type ValidationError = content.ValidationError

// Known effect types.
var validEffectTypes = map[string]bool{
	"say":           true,
	"damage":        true,
	"heal":          true,
	"set_flag":      true,
	"clear_flag":    true,
	"give_item":     true,
	"remove_item":   true,
	"set_npc_state": true,
	"disposition":   true,
	"emit_event":    true,
	"stop":          true,
}

// Valid targets of set_npc_state.
var validNPCStates = map[types.NPCState]bool{
	types.NPCActive:   true,
	types.NPCPassive:  true,
	types.NPCHidden:   true,
	types.NPCDefeated: true,
	types.NPCAbsent:   true,
}

// validate checks the compiled adventure for referential integrity.
func validate(coll *collector, adv content.Adventure) error {
	ve := &ValidationError{}

	if coll.adventure == nil || getString(coll.adventure, "title") == "" {
		ve.Errors = append(ve.Errors, "Adventure.title is required")
	}
	if len(adv.Scenes) == 0 {
		ve.Errors = append(ve.Errors, "at least one Scene is required")
	}

	// Ids and scene references.
	warnings, err := content.Validate(adv.Scenes)
	var cve *content.ValidationError
	if errors.As(err, &cve) {
		ve.Errors = append(ve.Errors, cve.Errors...)
	}
	ve.Warnings = append(ve.Warnings, warnings...)

	scenes := map[string]bool{}
	npcs := map[string]bool{}
	for _, s := range adv.Scenes {
		scenes[s.ID] = true
		for _, n := range s.NPCs {
			npcs[n.ID] = true
		}
	}

	if coll.adventure != nil {
		for _, id := range stringList(getTable(coll.adventure, "order")) {
			if !scenes[id] {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"Adventure.order names undefined scene %q", id))
			}
		}
	}

	for _, s := range adv.Scenes {
		for _, t := range s.Triggers {
			validateEffects(s.ID, t, npcs, ve)
		}
		for npcID := range s.Conversation {
			if !npcs[npcID] {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"scene %q has conversation topics for unknown npc %q", s.ID, npcID))
			}
		}
	}

	// Guide references.
	for _, sec := range coll.secrets {
		if r := getString(sec.table, "reveal_scene"); r != "" && !scenes[r] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"secret %q reveals in undefined scene %q", sec.id, r))
		}
	}
	for i, m := range coll.mysteries {
		if getString(m, "question") == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("mystery #%d has no question", i+1))
		}
		if r := getString(m, "reveal_scene"); r != "" && !scenes[r] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"mystery #%d reveals in undefined scene %q", i+1, r))
		}
	}
	for _, ns := range coll.npcSecrets {
		if !npcs[ns.id] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"npc secret for %q does not match any npc in a scene", ns.id))
		}
	}

	// Print warnings to stderr.
	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateEffects(sceneID string, t types.Trigger, npcs map[string]bool, ve *ValidationError) {
	for _, eff := range t.Effects {
		if !validEffectTypes[eff.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"scene %q trigger %q: unknown effect type %q", sceneID, t.ID, eff.Type))
			continue
		}

		switch eff.Type {
		case "set_npc_state", "disposition":
			npc, _ := eff.Params["npc"].(string)
			if !npcs[npc] {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"scene %q trigger %q: effect %s references undefined npc %q", sceneID, t.ID, eff.Type, npc))
			}
			if eff.Type == "set_npc_state" {
				st, _ := eff.Params["state"].(string)
				if !validNPCStates[types.NPCState(st)] {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"scene %q trigger %q: unknown npc state %q", sceneID, t.ID, st))
				}
			}
		}
	}
}
