package content

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/questsim/types"
)

// DefaultDifficulty applies to challenges that name no difficulty.
const DefaultDifficulty = 10

// Field aliases accepted in raw scene data, in lookup order.
var (
	difficultyKeys    = []string{"dc", "difficulty", "target"}
	exitKeys          = []string{"exits", "transitions"}
	nextSceneKeys     = []string{"nextScene", "next_scene", "next"}
	narrativeKeys     = []string{"narrative", "description", "text"}
	failureDamageKeys = []string{"failureDamage", "failure_damage"}
	critDamageKeys    = []string{"criticalFailureDamage", "critical_failure_damage"}
	gmDescriptionKeys = []string{"gmDescription", "gm_description", "description"}
	requiresFlagKeys  = []string{"requiresFlag", "requires_flag", "requires"}
	challengeKeys     = []string{"challenges", "checks"}
)

// NormalizeAdventure canonicalizes a raw adventure document with id,
// title, scenes and guide keys.
func NormalizeAdventure(raw map[string]any) (Adventure, error) {
	adv := Adventure{
		ID:    str(raw, "id"),
		Title: str(raw, "title"),
		Guide: mapVal(raw, "guide"),
	}
	for i, v := range list(raw, "scenes") {
		m, ok := v.(map[string]any)
		if !ok {
			return Adventure{}, fmt.Errorf("scene #%d: expected a table, got %T", i+1, v)
		}
		s, err := NormalizeScene(m)
		if err != nil {
			return Adventure{}, fmt.Errorf("scene #%d: %w", i+1, err)
		}
		adv.Scenes = append(adv.Scenes, s)
	}
	if adv.Guide == nil {
		adv.Guide = map[string]any{}
	}
	return adv, nil
}

// NormalizeScene canonicalizes one raw scene. Only the id is required.
func NormalizeScene(raw map[string]any) (types.Scene, error) {
	id := str(raw, "id")
	if id == "" {
		return types.Scene{}, fmt.Errorf("scene has no id")
	}

	s := types.Scene{
		ID:        id,
		Title:     str(raw, "title", "name"),
		Location:  str(raw, "location"),
		Narrative: str(raw, narrativeKeys...),
		Type:      str(raw, "type"),
		NextScene: str(raw, nextSceneKeys...),
	}
	if s.Title == "" {
		s.Title = id
	}

	for i, v := range list(raw, "npcs") {
		n, err := normalizeNPC(v)
		if err != nil {
			return types.Scene{}, fmt.Errorf("scene %q npc #%d: %w", id, i+1, err)
		}
		s.NPCs = append(s.NPCs, n)
	}
	for i, v := range list(raw, challengeKeys...) {
		m, ok := v.(map[string]any)
		if !ok {
			return types.Scene{}, fmt.Errorf("scene %q challenge #%d: expected a table, got %T", id, i+1, v)
		}
		s.Challenges = append(s.Challenges, normalizeChallenge(m, i))
	}
	for i, v := range list(raw, "triggers") {
		m, ok := v.(map[string]any)
		if !ok {
			return types.Scene{}, fmt.Errorf("scene %q trigger #%d: expected a table, got %T", id, i+1, v)
		}
		s.Triggers = append(s.Triggers, normalizeTrigger(m, i))
	}

	exits, err := normalizeExits(raw)
	if err != nil {
		return types.Scene{}, fmt.Errorf("scene %q: %w", id, err)
	}
	s.Exits = exits

	s.Environment = normalizeEnvironment(raw["environment"])
	s.Conversation = normalizeConversation(mapVal(raw, "conversation"))
	s.Markers = normalizeMarkers(raw)
	return s, nil
}

func normalizeNPC(v any) (types.NPCReference, error) {
	switch val := v.(type) {
	case string:
		return types.NPCReference{ID: val, Name: val, State: types.NPCActive}, nil
	case map[string]any:
		n := types.NPCReference{
			ID:          str(val, "id"),
			Name:        str(val, "name"),
			Role:        str(val, "role"),
			State:       types.NPCState(strings.ToLower(str(val, "state"))),
			Description: str(val, "description"),
			Motivation:  str(val, "motivation"),
			Hostile:     boolVal(val, "hostile"),
			Required:    boolVal(val, "required"),
		}
		if n.ID == "" {
			return n, fmt.Errorf("npc has no id")
		}
		if n.Name == "" {
			n.Name = n.ID
		}
		switch n.State {
		case types.NPCActive, types.NPCPassive, types.NPCHidden, types.NPCDefeated, types.NPCAbsent:
		default:
			n.State = types.NPCActive
		}
		return n, nil
	}
	return types.NPCReference{}, fmt.Errorf("expected a name or a table, got %T", v)
}

func normalizeChallenge(m map[string]any, idx int) types.Challenge {
	c := types.Challenge{
		ID:                    str(m, "id"),
		Skill:                 str(m, "skill"),
		Difficulty:            intVal(m, DefaultDifficulty, difficultyKeys...),
		Type:                  types.ChallengeType(strings.ToLower(str(m, "type"))),
		FailureDamage:         intVal(m, 0, failureDamageKeys...),
		CriticalFailureDamage: intVal(m, 0, critDamageKeys...),
		GMDescription:         str(m, gmDescriptionKeys...),
		Combat:                boolVal(m, "combat"),
		Required:              boolVal(m, "required"),
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("challenge_%d", idx+1)
	}
	switch c.Type {
	case types.ChallengeActive, types.ChallengePassive, types.ChallengeHidden:
	default:
		c.Type = types.ChallengeActive
	}
	return c
}

func normalizeTrigger(m map[string]any, idx int) types.Trigger {
	t := types.Trigger{
		ID:           str(m, "id"),
		Label:        str(m, "label", "name"),
		Text:         str(m, "text", "narrative"),
		Irreversible: boolVal(m, "irreversible"),
		Damage:       intVal(m, 0, "damage"),
		Required:     boolVal(m, "required"),
		Dramatic:     boolVal(m, "dramatic"),
		Harmful:      boolVal(m, "harmful"),
		Helpful:      boolVal(m, "helpful"),
	}
	if t.ID == "" {
		t.ID = fmt.Sprintf("trigger_%d", idx+1)
	}
	if t.Label == "" {
		t.Label = t.ID
	}
	for _, e := range list(m, "effects") {
		if em, ok := e.(map[string]any); ok {
			t.Effects = append(t.Effects, NormalizeEffect(em))
		}
	}
	return t
}

// NormalizeEffect accepts either {type, params = {...}} or a flat table
// whose non-type keys are the params.
func NormalizeEffect(m map[string]any) types.Effect {
	e := types.Effect{Type: str(m, "type"), Params: map[string]any{}}
	if p := mapVal(m, "params"); p != nil {
		for k, v := range p {
			e.Params[k] = v
		}
		return e
	}
	for k, v := range m {
		if k != "type" {
			e.Params[k] = v
		}
	}
	return e
}

// normalizeExits accepts a list of targets, a list of tables, or a
// label -> target map under any exit alias.
func normalizeExits(raw map[string]any) ([]types.Exit, error) {
	for _, key := range exitKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case []any:
			var out []types.Exit
			for i, item := range val {
				switch x := item.(type) {
				case string:
					out = append(out, types.Exit{Target: x})
				case map[string]any:
					e := types.Exit{
						Target:       str(x, "target", "to", "scene"),
						Label:        str(x, "label"),
						RequiresFlag: str(x, requiresFlagKeys...),
					}
					if e.Target == "" {
						return nil, fmt.Errorf("%s #%d has no target", key, i+1)
					}
					out = append(out, e)
				default:
					return nil, fmt.Errorf("%s #%d: unexpected %T", key, i+1, item)
				}
			}
			return out, nil
		case map[string]any:
			labels := make([]string, 0, len(val))
			for k := range val {
				labels = append(labels, k)
			}
			sort.Strings(labels)
			var out []types.Exit
			for _, label := range labels {
				if target, ok := val[label].(string); ok {
					out = append(out, types.Exit{Target: target, Label: label})
				}
			}
			return out, nil
		}
	}
	return nil, nil
}

func normalizeEnvironment(v any) *types.Environment {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return &types.Environment{Description: val}
	case map[string]any:
		return &types.Environment{
			Description: str(val, "description"),
			Lighting:    str(val, "lighting"),
			Terrain:     str(val, "terrain"),
			Features:    strList(val, "features"),
			Hazards:     strList(val, "hazards"),
		}
	}
	return nil
}

func normalizeConversation(raw map[string]any) types.Conversation {
	if len(raw) == 0 {
		return nil
	}
	conv := types.Conversation{}
	for npcID, topics := range raw {
		tm, ok := topics.(map[string]any)
		if !ok {
			continue
		}
		conv[npcID] = map[string]types.TopicDef{}
		for key, t := range tm {
			switch tv := t.(type) {
			case string:
				conv[npcID][key] = types.TopicDef{Text: tv}
			case map[string]any:
				conv[npcID][key] = types.TopicDef{
					Text:     str(tv, "text"),
					Requires: strList(tv, "requires"),
				}
			}
		}
	}
	return conv
}

func normalizeMarkers(raw map[string]any) []string {
	markers := strList(raw, "markers")
	has := func(m string) bool {
		for _, x := range markers {
			if x == m {
				return true
			}
		}
		return false
	}
	if boolVal(raw, "adventure_start", "adventureStart") && !has("adventure_start") {
		markers = append(markers, "adventure_start")
	}
	if boolVal(raw, "adventure_end", "adventureEnd") && !has("adventure_end") {
		markers = append(markers, "adventure_end")
	}
	return markers
}

// str returns the first non-empty string among keys.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// intVal returns the first numeric value among keys, or def.
func intVal(m map[string]any, def int, keys ...string) int {
	for _, k := range keys {
		switch n := m[k].(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func boolVal(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if b, ok := m[k].(bool); ok {
			return b
		}
	}
	return false
}

func list(m map[string]any, keys ...string) []any {
	for _, k := range keys {
		if l, ok := m[k].([]any); ok {
			return l
		}
	}
	return nil
}

func strList(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []any:
		var out []string
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

func mapVal(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}
