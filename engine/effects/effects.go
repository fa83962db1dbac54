// Package effects implements centralized state mutation via the Apply function.
// Every effect type is one atomic operation on the run's trackers.
package effects

import (
	"strings"

	"github.com/nathoo/questsim/engine/state"
	"github.com/nathoo/questsim/types"
)

// Targets are the trackers effects may mutate.
type Targets struct {
	Player *state.Player
	NPCs   *state.NPCRegistry
}

// Context carries where the effects fired, for template interpolation and
// event tagging.
type Context struct {
	SceneID  string
	SourceID string // trigger or challenge id
}

// Result is what a batch of effects produced.
type Result struct {
	Events      []types.Event
	WoundsDealt int
	NearDeath   bool
	Dead        bool
}

// Apply applies a list of effects in order. Application stops at the first
// effect that kills the player, or at a "stop" effect.
func Apply(t Targets, effs []types.Effect, ctx Context) Result {
	var res Result
	emit := func(typ string, data map[string]any) {
		res.Events = append(res.Events, types.Event{
			Type:    typ,
			SceneID: ctx.SceneID,
			Data:    data,
		})
	}

	for _, eff := range effs {
		switch eff.Type {
		case "say":
			text, _ := eff.Params["text"].(string)
			res.Events = append(res.Events, types.Event{
				Type:    "narration",
				SceneID: ctx.SceneID,
				Message: interpolate(text, ctx),
			})

		case "damage":
			amount := toInt(eff.Params["amount"])
			out := t.Player.DealWound(amount)
			res.WoundsDealt += out.After - out.Before
			emit("player_wounded", map[string]any{
				"amount": amount, "wounds": out.After, "source": ctx.SourceID,
			})
			if out.NearDeath {
				res.NearDeath = true
				emit("near_death", map[string]any{"wounds": out.After})
			}
			if out.Dead {
				res.Dead = true
				emit("player_defeated", map[string]any{"source": ctx.SourceID})
				return res
			}

		case "heal":
			amount := toInt(eff.Params["amount"])
			current := t.Player.HealWound(amount)
			emit("player_healed", map[string]any{"amount": amount, "wounds": current})

		case "set_flag":
			flag, _ := eff.Params["flag"].(string)
			t.Player.SetFlag(flag)
			emit("flag_changed", map[string]any{"flag": flag, "value": true})

		case "clear_flag":
			flag, _ := eff.Params["flag"].(string)
			t.Player.ClearFlag(flag)
			emit("flag_changed", map[string]any{"flag": flag, "value": false})

		case "give_item":
			item, _ := eff.Params["item"].(string)
			t.Player.AddItem(item)
			emit("item_taken", map[string]any{"item": item})

		case "remove_item":
			item, _ := eff.Params["item"].(string)
			t.Player.RemoveItem(item)
			emit("item_dropped", map[string]any{"item": item})

		case "set_npc_state":
			npc, _ := eff.Params["npc"].(string)
			st, _ := eff.Params["state"].(string)
			if t.NPCs.SetState(npc, types.NPCState(st)) {
				emit("npc_state_changed", map[string]any{"npc": npc, "state": st})
			}

		case "disposition":
			npc, _ := eff.Params["npc"].(string)
			amount := toInt(eff.Params["amount"])
			if v, ok := t.NPCs.AdjustDisposition(npc, amount); ok {
				emit("disposition_changed", map[string]any{"npc": npc, "amount": amount, "disposition": v})
			}

		case "emit_event":
			event, _ := eff.Params["event"].(string)
			emit(event, map[string]any{})

		case "stop":
			return res

		default:
			// Unknown effect type — ignore silently.
		}
	}

	return res
}

func interpolate(text string, ctx Context) string {
	r := strings.NewReplacer(
		"{scene}", ctx.SceneID,
		"{source}", ctx.SourceID,
	)
	return r.Replace(text)
}

// toInt accepts the numeric shapes produced by the Lua and YAML loaders.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
