package rules

import (
	"strings"

	"github.com/nathoo/questsim/engine/parser"
	"github.com/nathoo/questsim/types"
)

// Matcher applies a Table to scenes and free text.
type Matcher struct {
	table Table
}

// NewMatcher creates a matcher over t.
func NewMatcher(t Table) *Matcher {
	return &Matcher{table: t}
}

// Default returns a matcher over DefaultTable.
func Default() *Matcher {
	return NewMatcher(DefaultTable())
}

// Table returns the matcher's vocabulary.
func (m *Matcher) Table() Table { return m.table }

// SupportsAction reports whether any trigger, challenge or exit of the
// scene mentions a support word for the intent's verb. The verb itself
// always counts as a support word.
func (m *Matcher) SupportsAction(intent types.Intent, scene types.Scene) bool {
	if intent.Verb == "" {
		return false
	}
	patterns := append([]string{intent.Verb}, m.table.ActionSupport[intent.Verb]...)
	for _, text := range actionSurfaces(scene) {
		if _, ok := MentionsAny(text, patterns); ok {
			return true
		}
	}
	return false
}

// actionSurfaces lists the texts a creative action can be supported by.
func actionSurfaces(scene types.Scene) []string {
	var out []string
	for _, tr := range scene.Triggers {
		out = append(out, tr.ID+" "+tr.Label+" "+tr.Text)
	}
	for _, ch := range scene.Challenges {
		out = append(out, ch.ID+" "+ch.Skill+" "+ch.GMDescription)
	}
	for _, ex := range scene.Exits {
		out = append(out, ex.Target+" "+ex.Label)
	}
	return out
}

// SharesKeyword returns the first word of a longer than three letters
// that also appears in b. Stopwords count: "here" links "why is the
// stranger here" to "Why is X here?".
func SharesKeyword(a, b string) (string, bool) {
	kb := map[string]bool{}
	for _, w := range parser.LongWords(b) {
		kb[w] = true
	}
	for _, w := range parser.LongWords(a) {
		if kb[w] {
			return w, true
		}
	}
	return "", false
}

// MentionsAny returns the first pattern found as a case-insensitive
// substring of text. Empty patterns never match.
func MentionsAny(text string, patterns []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// IsBetrayalOrAlliance reports betrayal, alliance or "opposite of what"
// phrasing in text.
func (m *Matcher) IsBetrayalOrAlliance(text string) bool {
	for _, list := range [][]string{m.table.Betrayal, m.table.Alliance, m.table.Opposite} {
		if _, ok := MentionsAny(text, list); ok {
			return true
		}
	}
	return false
}

// IsPlayerChoice reports refusal/ignore phrasing in text.
func (m *Matcher) IsPlayerChoice(text string) bool {
	_, ok := MentionsAny(text, m.table.PlayerChoice)
	return ok
}

// IsCombatSkill reports whether skill names a combat skill. Case-sensitive,
// like skill bonus lookup.
func (m *Matcher) IsCombatSkill(skill string) bool {
	for _, s := range m.table.CombatSkills {
		if s == skill {
			return true
		}
	}
	return false
}

// IsCombat reports whether a challenge is combat-flavored: explicitly
// flagged, a combat skill, or combat words in its id or description.
func (m *Matcher) IsCombat(ch types.Challenge) bool {
	if ch.Combat || m.IsCombatSkill(ch.Skill) {
		return true
	}
	_, ok := MentionsAny(ch.ID+" "+ch.GMDescription, m.table.CombatWords)
	return ok
}

// HasToneMarker reports whether the tone or any theme carries a marker
// that makes emotional distance plausibly stylistic.
func (m *Matcher) HasToneMarker(tone string, themes []string) bool {
	if _, ok := MentionsAny(tone, m.table.ToneMarkers); ok {
		return true
	}
	for _, th := range themes {
		if _, ok := MentionsAny(th, m.table.ToneMarkers); ok {
			return true
		}
	}
	return false
}
