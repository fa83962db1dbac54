// Package archetype defines the synthetic player personalities and the
// question, creative-action and critique generators they drive.
package archetype

import "github.com/nathoo/questsim/types"

// Archetype ids — the 8 player personalities.
const (
	Detective   = "detective"
	ChaosAgent  = "chaos_agent"
	Empath      = "empath"
	Tactician   = "tactician"
	Explorer    = "explorer"
	Speedrunner = "speedrunner"
	Roleplayer  = "roleplayer"
	Skeptic     = "skeptic"
)

// QuestionTypes lists every question type in generation order.
var QuestionTypes = []types.QuestionType{
	types.QuestionNPCInfo,
	types.QuestionLocationDetail,
	types.QuestionItemInfo,
	types.QuestionSkillCheck,
	types.QuestionEnvironment,
	types.QuestionBackstory,
	types.QuestionNextSteps,
	types.QuestionNPCMotivation,
}

// weights builds a question weight table in QuestionTypes order.
func weights(w ...int) map[types.QuestionType]int {
	m := make(map[types.QuestionType]int, len(QuestionTypes))
	for i, qt := range QuestionTypes {
		m[qt] = w[i]
	}
	return m
}

var catalogOrder = []string{
	Detective, ChaosAgent, Empath, Tactician,
	Explorer, Speedrunner, Roleplayer, Skeptic,
}

// builtin maps archetype id to its profile. Weight columns follow
// QuestionTypes: npc_info, location_detail, item_info, skill_check,
// environment, backstory, next_steps, npc_motivation.
var builtin = map[string]types.PlayerArchetype{
	Detective: {
		ID:               Detective,
		Name:             "The Detective",
		Motivation:       "Piece together what really happened.",
		Traits:           types.Traits{RiskTolerance: 40, Curiosity: 90, Empathy: 50, Suspicion: 85, Creativity: 50, Patience: 80},
		QuestionWeights:  weights(80, 60, 70, 40, 50, 70, 40, 90),
		ObservationFocus: []string{"contradictions", "clues", "motives"},
		Approach:         types.Approach{Check: "careful", Combat: "avoid", NPC: "interrogate"},
	},
	ChaosAgent: {
		ID:               ChaosAgent,
		Name:             "The Chaos Agent",
		Motivation:       "See what breaks when pushed.",
		Traits:           types.Traits{RiskTolerance: 95, Curiosity: 60, Empathy: 20, Suspicion: 30, Creativity: 95, Patience: 20},
		QuestionWeights:  weights(40, 30, 50, 60, 30, 20, 30, 50),
		ObservationFocus: []string{"leverage", "weak points", "factions"},
		Approach:         types.Approach{Check: "reckless", Combat: "provoke", NPC: "manipulate"},
	},
	Empath: {
		ID:               Empath,
		Name:             "The Empath",
		Motivation:       "Understand and help the people in the story.",
		Traits:           types.Traits{RiskTolerance: 30, Curiosity: 60, Empathy: 95, Suspicion: 20, Creativity: 50, Patience: 80},
		QuestionWeights:  weights(80, 30, 20, 20, 30, 60, 30, 90),
		ObservationFocus: []string{"feelings", "relationships", "needs"},
		Approach:         types.Approach{Check: "cooperative", Combat: "de-escalate", NPC: "comfort"},
	},
	Tactician: {
		ID:               Tactician,
		Name:             "The Tactician",
		Motivation:       "Win every encounter with the least risk.",
		Traits:           types.Traits{RiskTolerance: 40, Curiosity: 50, Empathy: 30, Suspicion: 70, Creativity: 60, Patience: 70},
		QuestionWeights:  weights(40, 70, 60, 80, 80, 20, 50, 40),
		ObservationFocus: []string{"terrain", "threats", "resources"},
		Approach:         types.Approach{Check: "prepared", Combat: "flank", NPC: "recruit"},
	},
	Explorer: {
		ID:               Explorer,
		Name:             "The Explorer",
		Motivation:       "See every corner of the world.",
		Traits:           types.Traits{RiskTolerance: 70, Curiosity: 95, Empathy: 40, Suspicion: 30, Creativity: 70, Patience: 60},
		QuestionWeights:  weights(40, 90, 60, 40, 90, 60, 50, 20),
		ObservationFocus: []string{"landmarks", "secrets", "routes"},
		Approach:         types.Approach{Check: "bold", Combat: "avoid", NPC: "ask directions"},
	},
	Speedrunner: {
		ID:               Speedrunner,
		Name:             "The Speedrunner",
		Motivation:       "Reach the end as fast as possible.",
		Traits:           types.Traits{RiskTolerance: 80, Curiosity: 10, Empathy: 10, Suspicion: 40, Creativity: 40, Patience: 5},
		QuestionWeights:  weights(10, 10, 20, 30, 10, 5, 90, 10),
		ObservationFocus: []string{"exits", "objectives"},
		Approach:         types.Approach{Check: "skip", Combat: "rush", NPC: "ignore"},
	},
	Roleplayer: {
		ID:               Roleplayer,
		Name:             "The Roleplayer",
		Motivation:       "Live inside the character and the world.",
		Traits:           types.Traits{RiskTolerance: 50, Curiosity: 70, Empathy: 75, Suspicion: 30, Creativity: 85, Patience: 90},
		QuestionWeights:  weights(70, 50, 30, 20, 40, 90, 30, 80),
		ObservationFocus: []string{"history", "culture", "voice"},
		Approach:         types.Approach{Check: "in character", Combat: "dramatic", NPC: "converse"},
	},
	Skeptic: {
		ID:               Skeptic,
		Name:             "The Skeptic",
		Motivation:       "Trust nothing the adventure hands over.",
		Traits:           types.Traits{RiskTolerance: 20, Curiosity: 60, Empathy: 30, Suspicion: 95, Creativity: 50, Patience: 50},
		QuestionWeights:  weights(60, 70, 40, 60, 70, 40, 60, 70),
		ObservationFocus: []string{"traps", "lies", "escape routes"},
		Approach:         types.Approach{Check: "cautious", Combat: "retreat", NPC: "doubt"},
	},
}

// Catalog is the fixed, read-only set of archetypes.
type Catalog struct {
	byID  map[string]types.PlayerArchetype
	order []string
}

// NewCatalog returns the built-in catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: builtin, order: catalogOrder}
}

// Get returns a copy of the archetype with the given id.
func (c *Catalog) Get(id string) (types.PlayerArchetype, bool) {
	a, ok := c.byID[id]
	if !ok {
		return types.PlayerArchetype{}, false
	}
	return clone(a), true
}

// All returns copies of every archetype in catalog order.
func (c *Catalog) All() []types.PlayerArchetype {
	out := make([]types.PlayerArchetype, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clone(c.byID[id]))
	}
	return out
}

// IDs returns every archetype id in catalog order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

func clone(a types.PlayerArchetype) types.PlayerArchetype {
	w := make(map[types.QuestionType]int, len(a.QuestionWeights))
	for k, v := range a.QuestionWeights {
		w[k] = v
	}
	a.QuestionWeights = w
	a.ObservationFocus = append([]string(nil), a.ObservationFocus...)
	return a
}
