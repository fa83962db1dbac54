package archetype

import (
	"fmt"
	"sort"

	"github.com/nathoo/questsim/engine/rng"
	"github.com/nathoo/questsim/types"
)

// FallbackChances are the fixed per-type probabilities used when a run has
// no archetype. Types not listed are never asked.
var FallbackChances = map[types.QuestionType]float64{
	types.QuestionNPCInfo:        0.5,
	types.QuestionLocationDetail: 0.3,
	types.QuestionEnvironment:    0.3,
	types.QuestionNextSteps:      0.4,
}

// Generator draws questions from the run's RNG.
type Generator struct {
	rng *rng.RNG
}

// NewGenerator creates a generator over r.
func NewGenerator(r *rng.RNG) *Generator {
	return &Generator{rng: r}
}

// Questions generates the archetype's questions for a scene:
//  1. one Bernoulli trial per question type against its weight,
//  2. the archetype's hand-authored templates,
//  3. a stable sort by descending type weight.
func (g *Generator) Questions(arch types.PlayerArchetype, scene types.Scene) []types.PlayerQuestion {
	var qs []types.PlayerQuestion

	// 1. Weighted inclusion per type.
	for _, qt := range QuestionTypes {
		if g.rng.Float64()*100 >= float64(arch.QuestionWeights[qt]) {
			continue
		}
		if q, ok := baseQuestion(qt, scene); ok {
			qs = append(qs, q)
		}
	}

	// 2. Archetype templates.
	if tmpl, ok := templates[arch.ID]; ok {
		qs = append(qs, tmpl(scene)...)
	}

	// 3. Higher-affinity types first.
	sort.SliceStable(qs, func(i, j int) bool {
		return arch.QuestionWeights[qs[i].Type] > arch.QuestionWeights[qs[j].Type]
	})
	return qs
}

// FallbackQuestions generates questions without an archetype, using
// FallbackChances in QuestionTypes order.
func (g *Generator) FallbackQuestions(scene types.Scene) []types.PlayerQuestion {
	var qs []types.PlayerQuestion
	for _, qt := range QuestionTypes {
		p, ok := FallbackChances[qt]
		if !ok || !g.rng.Chance(p) {
			continue
		}
		if q, ok := baseQuestion(qt, scene); ok {
			qs = append(qs, q)
		}
	}
	return qs
}

// baseQuestion builds the generic question of type qt. NPC questions need
// an NPC in the scene.
func baseQuestion(qt types.QuestionType, scene types.Scene) (types.PlayerQuestion, bool) {
	ctx := types.QuestionContext{SceneID: scene.ID}
	place := placeName(scene)

	var query string
	switch qt {
	case types.QuestionNPCInfo:
		if len(scene.NPCs) == 0 {
			return types.PlayerQuestion{}, false
		}
		n := scene.NPCs[0]
		ctx.NPCID = n.ID
		query = fmt.Sprintf("Who is %s?", npcName(n))
	case types.QuestionNPCMotivation:
		if len(scene.NPCs) == 0 {
			return types.PlayerQuestion{}, false
		}
		n := scene.NPCs[0]
		ctx.NPCID = n.ID
		query = fmt.Sprintf("What does %s want?", npcName(n))
	case types.QuestionLocationDetail:
		ctx.Topic = "location"
		query = fmt.Sprintf("What does %s look like?", place)
	case types.QuestionItemInfo:
		ctx.Topic = "items"
		query = fmt.Sprintf("What items of note are in %s?", place)
	case types.QuestionSkillCheck:
		if len(scene.Challenges) == 0 {
			ctx.Topic = "checks"
			query = fmt.Sprintf("Is there anything in %s worth a roll?", place)
			break
		}
		ch := scene.Challenges[0]
		ctx.ItemID = ch.ID
		query = fmt.Sprintf("What would a %s check reveal?", ch.Skill)
	case types.QuestionEnvironment:
		ctx.Topic = "environment"
		query = fmt.Sprintf("What are the surroundings like in %s?", place)
	case types.QuestionBackstory:
		ctx.Topic = "history"
		query = fmt.Sprintf("What is the history of %s?", place)
	case types.QuestionNextSteps:
		ctx.Topic = "exits"
		query = fmt.Sprintf("Where do we go after %s?", place)
	default:
		return types.PlayerQuestion{}, false
	}
	return types.PlayerQuestion{Type: qt, Query: query, Context: ctx}, true
}

type templateFunc func(scene types.Scene) []types.PlayerQuestion

// templates holds one hand-authored question template per archetype.
var templates = map[string]templateFunc{
	Detective: func(s types.Scene) []types.PlayerQuestion {
		if len(s.NPCs) < 2 {
			return nil
		}
		a, b := s.NPCs[0], s.NPCs[1]
		return []types.PlayerQuestion{{
			Type:    types.QuestionNPCInfo,
			Query:   fmt.Sprintf("Do the stories of %s and %s contradict each other?", npcName(a), npcName(b)),
			Context: types.QuestionContext{SceneID: s.ID, NPCID: a.ID, Topic: "contradiction"},
		}}
	},
	Skeptic: func(s types.Scene) []types.PlayerQuestion {
		place := placeName(s)
		return []types.PlayerQuestion{
			{
				Type:    types.QuestionLocationDetail,
				Query:   fmt.Sprintf("What traps or ambushes could be waiting in %s?", place),
				Context: types.QuestionContext{SceneID: s.ID, Topic: "traps"},
			},
			{
				Type:    types.QuestionNextSteps,
				Query:   fmt.Sprintf("What is the escape route out of %s?", place),
				Context: types.QuestionContext{SceneID: s.ID, Topic: "escape"},
			},
		}
	},
	ChaosAgent: func(s types.Scene) []types.PlayerQuestion {
		n, ok := pickNPC(s, func(n types.NPCReference) bool { return n.Hostile })
		if !ok {
			return nil
		}
		return []types.PlayerQuestion{{
			Type:    types.QuestionNPCMotivation,
			Query:   fmt.Sprintf("What would %s do if we switched sides?", npcName(n)),
			Context: types.QuestionContext{SceneID: s.ID, NPCID: n.ID, Topic: "leverage"},
		}}
	},
	Empath: func(s types.Scene) []types.PlayerQuestion {
		n, ok := pickNPC(s, nil)
		if !ok {
			return nil
		}
		return []types.PlayerQuestion{{
			Type:    types.QuestionNPCMotivation,
			Query:   fmt.Sprintf("How is %s feeling?", npcName(n)),
			Context: types.QuestionContext{SceneID: s.ID, NPCID: n.ID, Topic: "feelings"},
		}}
	},
	Tactician: func(s types.Scene) []types.PlayerQuestion {
		return []types.PlayerQuestion{{
			Type:    types.QuestionEnvironment,
			Query:   fmt.Sprintf("Where is the best defensive position in %s?", placeName(s)),
			Context: types.QuestionContext{SceneID: s.ID, Topic: "terrain"},
		}}
	},
	Explorer: func(s types.Scene) []types.PlayerQuestion {
		return []types.PlayerQuestion{{
			Type:    types.QuestionLocationDetail,
			Query:   fmt.Sprintf("Are there hidden passages in %s?", placeName(s)),
			Context: types.QuestionContext{SceneID: s.ID, Topic: "secrets"},
		}}
	},
	Speedrunner: func(s types.Scene) []types.PlayerQuestion {
		return []types.PlayerQuestion{{
			Type:    types.QuestionNextSteps,
			Query:   fmt.Sprintf("What is the fastest way through %s?", placeName(s)),
			Context: types.QuestionContext{SceneID: s.ID, Topic: "exits"},
		}}
	},
	Roleplayer: func(s types.Scene) []types.PlayerQuestion {
		if n, ok := pickNPC(s, nil); ok {
			return []types.PlayerQuestion{{
				Type:    types.QuestionBackstory,
				Query:   fmt.Sprintf("What is the personal history of %s?", npcName(n)),
				Context: types.QuestionContext{SceneID: s.ID, NPCID: n.ID, Topic: "history"},
			}}
		}
		return []types.PlayerQuestion{{
			Type:    types.QuestionBackstory,
			Query:   fmt.Sprintf("What legends are told about %s?", placeName(s)),
			Context: types.QuestionContext{SceneID: s.ID, Topic: "history"},
		}}
	},
}

// pickNPC returns the first scene NPC matching keep (any NPC when nil).
func pickNPC(s types.Scene, keep func(types.NPCReference) bool) (types.NPCReference, bool) {
	for _, n := range s.NPCs {
		if keep == nil || keep(n) {
			return n, true
		}
	}
	return types.NPCReference{}, false
}

func npcName(n types.NPCReference) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

func placeName(s types.Scene) string {
	switch {
	case s.Location != "":
		return s.Location
	case s.Title != "":
		return s.Title
	}
	return s.ID
}
