package gmvalidator

import (
	"fmt"
	"strings"

	"github.com/nathoo/questsim/types"
)

// BuildKnowledge canonicalizes a guide payload into AdventureKnowledge.
// Field names are accepted in snake_case or camelCase; entries that are
// not tables are skipped.
func BuildKnowledge(payload map[string]any) types.AdventureKnowledge {
	var k types.AdventureKnowledge
	if payload == nil {
		return k
	}

	k.Tone = str(payload, "tone")
	k.Themes = strs(payload, "themes")

	for i, v := range list(payload, "secrets") {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		s := types.Secret{
			ID:               str(m, "id"),
			Description:      str(m, "description", "text"),
			RevealScene:      str(m, "reveal_scene", "revealScene", "reveal"),
			RelatedNPCs:      strs(m, "related_npcs", "relatedNpcs", "relatedNPCs", "npcs"),
			QuestionPatterns: strs(m, "question_patterns", "questionPatterns", "patterns"),
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("secret_%d", i+1)
		}
		k.Secrets = append(k.Secrets, s)
	}

	for _, v := range list(payload, "mysteries") {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		k.Mysteries = append(k.Mysteries, types.Mystery{
			Question:     str(m, "question"),
			Answer:       str(m, "answer"),
			RevealScene:  str(m, "reveal_scene", "revealScene", "reveal"),
			IsRedHerring: flag(m, "red_herring", "redHerring", "is_red_herring", "isRedHerring"),
		})
	}

	for _, v := range list(payload, "npc_secrets", "npcSecrets") {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		k.NPCSecrets = append(k.NPCSecrets, types.NPCSecret{
			NPCID:           str(m, "npc_id", "npcId", "npcID", "npc"),
			Public:          str(m, "public", "public_description", "publicDescription"),
			Secret:          str(m, "secret"),
			RevealCondition: str(m, "reveal_condition", "revealCondition"),
		})
	}
	return k
}

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func flag(m map[string]any, keys ...string) bool {
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

// strs reads a list of strings, or a single string as a one-item list.
func strs(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			return []string{v}
		case []string:
			return append([]string{}, v...)
		case []any:
			var out []string
			for _, e := range v {
				if s, ok := e.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}
