// Package gmvalidator reviews archetype critiques the way the adventure's
// GM would. A critique that points at something the adventure withholds
// on purpose, or at a choice the GM is expected to improvise around, is
// not a content bug; everything else is a valid issue.
package gmvalidator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

// Validator classifies feedback against one adventure's knowledge.
type Validator struct {
	k     types.AdventureKnowledge
	m     *rules.Matcher
	order map[string]int
}

// New creates a validator. sceneIDs is the adventure's content order; a
// nil matcher uses rules.Default().
func New(k types.AdventureKnowledge, sceneIDs []string, m *rules.Matcher) *Validator {
	if m == nil {
		m = rules.Default()
	}
	order := make(map[string]int, len(sceneIDs))
	for i, id := range sceneIDs {
		if _, dup := order[id]; !dup {
			order[id] = i
		}
	}
	return &Validator{k: k, m: m, order: order}
}

// Knowledge returns the knowledge the validator works from.
func (v *Validator) Knowledge() types.AdventureKnowledge { return v.k }

// SceneIndex returns a scene's position in content order, or -1.
func (v *Validator) SceneIndex(id string) int {
	if i, ok := v.order[id]; ok {
		return i
	}
	return -1
}

// ValidateCritique classifies one feedback item raised at sceneIndex. The
// checks run in a fixed order and the first that matches wins:
//  1. withheld knowledge revealed in a later scene,
//  2. NPC secrets,
//  3. player agency in unhandled actions,
//  4. emotional distance under a noir or grief tone,
//  5. otherwise a valid issue.
//
// A negative sceneIndex is out of scope unless step 1 matches. Step 2
// matches the NPC id, and the first word of the public description only
// when it is longer than three letters, so an article like "A" or "The"
// never turns every critique into an intentional mystery.
func (v *Validator) ValidateCritique(fb types.ArchetypeFeedback, sceneIndex int) types.GMValidation {
	if strings.TrimSpace(fb.Description) == "" {
		return types.GMValidation{
			Status:    types.StatusFalsePositive,
			Reasoning: "the critique does not say what is wrong",
		}
	}

	// 1. Mysteries, then secrets, revealed strictly later.
	for _, my := range v.k.Mysteries {
		word, ok := rules.SharesKeyword(fb.Description, my.Question)
		if !ok || !v.revealedAfter(my.RevealScene, sceneIndex) {
			continue
		}
		status := types.StatusDelayedReveal
		if my.IsRedHerring {
			status = types.StatusRedHerring
		}
		return types.GMValidation{
			Status:      status,
			Reasoning:   fmt.Sprintf("shares %q with the mystery %q, which is answered in %s", word, my.Question, my.RevealScene),
			RevealScene: my.RevealScene,
			GMNotes:     my.Answer,
		}
	}
	for _, s := range v.k.Secrets {
		word, ok := rules.SharesKeyword(fb.Description, s.Description)
		if !ok {
			word, ok = rules.MentionsAny(fb.Description, s.QuestionPatterns)
		}
		if !ok || !v.revealedAfter(s.RevealScene, sceneIndex) {
			continue
		}
		return types.GMValidation{
			Status:      types.StatusDelayedReveal,
			Reasoning:   fmt.Sprintf("touches the secret %s (%q), which is revealed in %s", s.ID, word, s.RevealScene),
			RevealScene: s.RevealScene,
			GMNotes:     s.Description,
		}
	}

	if sceneIndex < 0 {
		return types.GMValidation{
			Status:    types.StatusOutOfScope,
			Reasoning: fmt.Sprintf("scene %q is not part of this adventure", fb.SceneID),
		}
	}

	// 2. NPC secrets: the critique names the NPC or their public face.
	for _, ns := range v.k.NPCSecrets {
		patterns := []string{ns.NPCID}
		if w := firstWord(ns.Public); len(w) > 3 {
			patterns = append(patterns, w)
		}
		if p, ok := rules.MentionsAny(fb.Description, patterns); ok {
			return types.GMValidation{
				Status:    types.StatusIntentionalMystery,
				Reasoning: fmt.Sprintf("mentions %q; %s is hiding something by design", p, ns.NPCID),
				GMNotes:   ns.Secret,
			}
		}
	}

	// 3. Player agency is not a content bug.
	if fb.Type == types.FeedbackUnhandledAction {
		if v.m.IsBetrayalOrAlliance(fb.Description) {
			return types.GMValidation{
				Status:    types.StatusGMDiscretion,
				Reasoning: "betrayals, alliances and reversals are left to the GM to improvise",
			}
		}
		if v.m.IsPlayerChoice(fb.Description) {
			return types.GMValidation{
				Status:    types.StatusPlayerChoice,
				Reasoning: "refusing or ignoring the hook is a choice the players are free to make",
			}
		}
	}

	// 4. Emotional distance may be the tone.
	if fb.Type == types.FeedbackEmotionalGap || fb.Type == types.FeedbackShallowNPC {
		if v.m.HasToneMarker(v.k.Tone, v.k.Themes) {
			return types.GMValidation{
				Status:    types.StatusGMDiscretion,
				Reasoning: fmt.Sprintf("emotional distance fits the adventure's tone (%s)", toneLabel(v.k)),
			}
		}
	}

	// 5. Nothing excuses it.
	return types.GMValidation{
		Status:    types.StatusValidIssue,
		Reasoning: "no adventure knowledge explains this",
	}
}

func (v *Validator) revealedAfter(sceneID string, sceneIndex int) bool {
	i, ok := v.order[sceneID]
	return ok && i > sceneIndex
}

// Annotate returns copies of the feedback with a validation attached to
// each. The input is not modified.
func (v *Validator) Annotate(feedback []types.ArchetypeFeedback) []types.ArchetypeFeedback {
	out := make([]types.ArchetypeFeedback, len(feedback))
	for i, fb := range feedback {
		val := v.ValidateCritique(fb, v.SceneIndex(fb.SceneID))
		fb.Validation = &val
		out[i] = fb
	}
	return out
}

// GenerateValidatedReport validates every item and partitions the result.
func (v *Validator) GenerateValidatedReport(feedback []types.ArchetypeFeedback) types.GMValidatedReport {
	return Partition(v.Annotate(feedback))
}

// Partition sorts validated feedback into buckets and tallies them. Items
// without a validation count as valid issues.
func Partition(validated []types.ArchetypeFeedback) types.GMValidatedReport {
	rep := types.GMValidatedReport{
		ValidIssues:       []types.ArchetypeFeedback{},
		IntentionalDesign: []types.ArchetypeFeedback{},
		GMDiscretion:      []types.ArchetypeFeedback{},
		FalsePositives:    []types.ArchetypeFeedback{},
	}
	for _, fb := range validated {
		status := types.StatusValidIssue
		if fb.Validation != nil {
			status = fb.Validation.Status
		}
		switch status {
		case types.StatusIntentionalMystery, types.StatusDelayedReveal, types.StatusRedHerring:
			rep.IntentionalDesign = append(rep.IntentionalDesign, fb)
		case types.StatusGMDiscretion, types.StatusPlayerChoice:
			rep.GMDiscretion = append(rep.GMDiscretion, fb)
		case types.StatusOutOfScope, types.StatusFalsePositive:
			rep.FalsePositives = append(rep.FalsePositives, fb)
		default:
			rep.ValidIssues = append(rep.ValidIssues, fb)
		}
	}
	rep.Summary = types.ValidationSummary{
		Total:             len(validated),
		ValidIssues:       len(rep.ValidIssues),
		IntentionalDesign: len(rep.IntentionalDesign),
		GMDiscretion:      len(rep.GMDiscretion),
		FalsePositive:     len(rep.FalsePositives),
	}
	return rep
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
}

func toneLabel(k types.AdventureKnowledge) string {
	parts := []string{}
	if k.Tone != "" {
		parts = append(parts, k.Tone)
	}
	parts = append(parts, k.Themes...)
	return strings.Join(parts, ", ")
}
