package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/nathoo/questsim/engine/dialogue"
	"github.com/nathoo/questsim/engine/parser"
	"github.com/nathoo/questsim/engine/resolve"
	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

// questionNoise are words that shape a question without naming what it is
// about.
var questionNoise = map[string]bool{
	"look": true, "like": true, "anything": true, "worth": true,
	"note": true, "tell": true, "know": true, "happen": true,
	"best": true, "fastest": true, "really": true,
}

// Index is the searchable view of an adventure's scenes.
type Index struct {
	order  []string
	scenes map[string]types.Scene
	flags  rules.FlagChecker
}

type noFlags struct{}

func (noFlags) HasFlag(string) bool { return false }

// NewIndex indexes scenes in content order. A nil flag checker treats
// every flag as unset.
func NewIndex(scenes []types.Scene, flags rules.FlagChecker) *Index {
	if flags == nil {
		flags = noFlags{}
	}
	ix := &Index{scenes: map[string]types.Scene{}, flags: flags}
	for _, s := range scenes {
		if _, dup := ix.scenes[s.ID]; dup {
			continue
		}
		ix.order = append(ix.order, s.ID)
		ix.scenes[s.ID] = s
	}
	return ix
}

// Scene returns an indexed scene.
func (ix *Index) Scene(id string) (types.Scene, bool) {
	s, ok := ix.scenes[id]
	return s, ok
}

// focus returns the keywords of the question that are not the place name,
// an NPC name or question noise.
func focus(q types.PlayerQuestion, s types.Scene) []string {
	skip := map[string]bool{}
	for _, w := range parser.Keywords(s.Location + " " + s.Title) {
		skip[w] = true
	}
	for _, n := range s.NPCs {
		for _, w := range parser.Keywords(n.Name) {
			skip[w] = true
		}
	}
	var out []string
	for _, w := range parser.Keywords(q.Query) {
		if !skip[w] && !questionNoise[w] {
			out = append(out, w)
		}
	}
	return out
}

func mentionsAny(text string, kws []string) bool {
	text = strings.ToLower(text)
	for _, kw := range kws {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// targetNPCs returns the NPC the question is about, or the NPCs its text
// mentions.
func targetNPCs(q types.PlayerQuestion, s types.Scene) []types.NPCReference {
	ids := resolve.Mentioned(s, q.Query)
	if q.Context.NPCID != "" {
		ids = []string{q.Context.NPCID}
	}
	var out []types.NPCReference
	for _, id := range ids {
		for _, n := range s.NPCs {
			if n.ID == id {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func sceneLoc(sceneID, part string) string {
	return fmt.Sprintf("scene:%s/%s", sceneID, part)
}

// npcAnswers reports whether the scene's own NPC entry answers q.
func npcAnswers(q types.PlayerQuestion, n types.NPCReference) bool {
	switch q.Type {
	case types.QuestionNPCInfo:
		return n.Description != "" || n.Role != ""
	case types.QuestionNPCMotivation:
		return n.Motivation != ""
	case types.QuestionBackstory:
		return n.Description != ""
	}
	return false
}

func findInSceneNPCs(ctx context.Context, ix *Index, q types.PlayerQuestion) (string, bool) {
	s, ok := ix.Scene(q.Context.SceneID)
	if !ok || ctx.Err() != nil {
		return "", false
	}
	for _, n := range targetNPCs(q, s) {
		if npcAnswers(q, n) {
			return sceneLoc(s.ID, "npc:"+n.ID), true
		}
	}
	return "", false
}

func findInConversation(ctx context.Context, ix *Index, q types.PlayerQuestion) (string, bool) {
	s, ok := ix.Scene(q.Context.SceneID)
	if !ok || ctx.Err() != nil || len(s.Conversation) == 0 {
		return "", false
	}

	npcID := ""
	if targets := targetNPCs(q, s); len(targets) > 0 {
		npcID = targets[0].ID
	}

	// Any topic the NPC will talk about tells players who they are.
	if q.Type == types.QuestionNPCInfo && npcID != "" {
		if topics := dialogue.AvailableTopics(s.Conversation, npcID, ix.flags); len(topics) > 0 {
			return sceneLoc(s.ID, fmt.Sprintf("conversation:%s.%s", npcID, topics[0])), true
		}
	}

	query := strings.Join(focus(q, s), " ")
	if m, ok := dialogue.Find(s.Conversation, npcID, query, ix.flags); ok {
		return sceneLoc(s.ID, fmt.Sprintf("conversation:%s.%s", m.NPCID, m.Topic)), true
	}
	return "", false
}

func findInSceneText(ctx context.Context, ix *Index, q types.PlayerQuestion) (string, bool) {
	s, ok := ix.Scene(q.Context.SceneID)
	if !ok || ctx.Err() != nil {
		return "", false
	}
	if where, ok := textAnswer(q, s); ok {
		return where, true
	}
	return "", false
}

// textAnswer applies the per-type rules, then falls back to matching the
// question's focus words against the scene's descriptive text.
func textAnswer(q types.PlayerQuestion, s types.Scene) (string, bool) {
	kws := focus(q, s)

	switch q.Type {
	case types.QuestionLocationDetail:
		switch q.Context.Topic {
		case "traps":
			for _, ch := range s.Challenges {
				if ch.Type == types.ChallengeHidden {
					return sceneLoc(s.ID, "challenge:"+ch.ID), true
				}
			}
			if s.Environment != nil && len(s.Environment.Hazards) > 0 {
				return sceneLoc(s.ID, "environment"), true
			}
		case "secrets":
			// Falls through to the keyword search below.
		default:
			if s.Narrative != "" {
				return sceneLoc(s.ID, "narrative"), true
			}
		}
	case types.QuestionEnvironment:
		if env := s.Environment; env != nil {
			if q.Context.Topic != "terrain" || env.Terrain != "" || len(env.Features) > 0 {
				return sceneLoc(s.ID, "environment"), true
			}
		}
	case types.QuestionItemInfo:
		for _, t := range s.Triggers {
			for _, e := range t.Effects {
				if e.Type == "give_item" {
					return sceneLoc(s.ID, "trigger:"+t.ID), true
				}
			}
		}
		if s.Environment != nil && len(s.Environment.Features) > 0 {
			return sceneLoc(s.ID, "environment"), true
		}
	case types.QuestionSkillCheck:
		for _, ch := range s.Challenges {
			if (q.Context.ItemID == "" || ch.ID == q.Context.ItemID) && ch.GMDescription != "" {
				return sceneLoc(s.ID, "challenge:"+ch.ID), true
			}
		}
	case types.QuestionNextSteps:
		if len(s.Exits) > 0 {
			return sceneLoc(s.ID, "exits"), true
		}
		if s.NextScene != "" {
			return sceneLoc(s.ID, "next_scene"), true
		}
	case types.QuestionNPCInfo:
		for _, n := range targetNPCs(q, s) {
			if n.Name != "" && strings.Contains(strings.ToLower(s.Narrative), strings.ToLower(n.Name)) {
				return sceneLoc(s.ID, "narrative"), true
			}
		}
	}

	if len(kws) == 0 {
		return "", false
	}
	if mentionsAny(s.Narrative, kws) {
		return sceneLoc(s.ID, "narrative"), true
	}
	if env := s.Environment; env != nil {
		envText := env.Description + " " + env.Terrain + " " + strings.Join(env.Features, " ") + " " + strings.Join(env.Hazards, " ")
		if mentionsAny(envText, kws) {
			return sceneLoc(s.ID, "environment"), true
		}
	}
	for _, t := range s.Triggers {
		if mentionsAny(t.Label+" "+t.Text, kws) {
			return sceneLoc(s.ID, "trigger:"+t.ID), true
		}
	}
	return "", false
}

// findGlobally searches every other scene: NPC entries with the same id,
// then conversation guides, then scene text.
func findGlobally(ctx context.Context, ix *Index, q types.PlayerQuestion) (string, bool) {
	here, _ := ix.Scene(q.Context.SceneID)
	kws := focus(q, here)
	query := strings.Join(kws, " ")

	for _, id := range ix.order {
		if ctx.Err() != nil {
			return "", false
		}
		if id == q.Context.SceneID {
			continue
		}
		s := ix.scenes[id]

		if q.Context.NPCID != "" {
			for _, n := range s.NPCs {
				if n.ID == q.Context.NPCID && npcAnswers(q, n) {
					return sceneLoc(s.ID, "npc:"+n.ID), true
				}
			}
			if topics := dialogue.AvailableTopics(s.Conversation, q.Context.NPCID, ix.flags); len(topics) > 0 && q.Type == types.QuestionNPCInfo {
				return sceneLoc(s.ID, fmt.Sprintf("conversation:%s.%s", q.Context.NPCID, topics[0])), true
			}
		}
		if query == "" {
			continue
		}
		if m, ok := dialogue.Find(s.Conversation, "", query, ix.flags); ok {
			return sceneLoc(s.ID, fmt.Sprintf("conversation:%s.%s", m.NPCID, m.Topic)), true
		}
		if mentionsAny(s.Narrative, kws) {
			return sceneLoc(s.ID, "narrative"), true
		}
	}
	return "", false
}
