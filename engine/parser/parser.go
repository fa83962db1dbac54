// Package parser turns free text into the coarse tokens the heuristic
// matcher works on: keyword sets and creative-action intents.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strings"
	"unicode"

	"github.com/nathoo/questsim/types"
)

var verbAliases = map[string]string{
	// Betrayal
	"double-cross": "betray",
	"doublecross":  "betray",
	"backstab":     "betray",
	"sell":         "betray",
	"abandon":      "betray",

	// Alliance
	"befriend": "ally",
	"recruit":  "ally",
	"join":     "ally",
	"bargain":  "ally",
	"parley":   "negotiate",
	"haggle":   "negotiate",
	"bribe":    "negotiate",

	// Refusal
	"decline": "refuse",
	"reject":  "refuse",
	"skip":    "ignore",
	"bypass":  "ignore",

	// Investigation
	"inspect":     "search",
	"examine":     "search",
	"investigate": "search",
	"explore":     "search",
	"study":       "search",
	"question":    "interrogate",
	"grill":       "interrogate",

	// Social
	"ask":      "talk",
	"speak":    "talk",
	"chat":     "talk",
	"console":  "comfort",
	"soothe":   "comfort",
	"charm":    "persuade",
	"convince": "persuade",
	"lie":      "deceive",
	"bluff":    "deceive",
	"threaten": "intimidate",

	// Movement / stealth
	"sneak":  "sneak",
	"creep":  "sneak",
	"hide":   "sneak",
	"scale":  "climb",
	"flee":   "escape",
	"run":    "escape",
	"leave":  "escape",

	// Force
	"hit":     "attack",
	"fight":   "attack",
	"strike":  "attack",
	"kill":    "attack",
	"ambush":  "attack",
	"smash":   "break",
	"destroy": "break",
	"burn":    "burn",
	"ignite":  "burn",
	"steal":   "steal",
	"pocket":  "steal",
	"rob":     "steal",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "from": true,
	"about": true, "against": true, "past": true,
	"into": true, "for": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Stopwords are dropped by Keywords. Only words longer than three letters
// survive the length filter anyway, so short function words are omitted.
var Stopwords = map[string]bool{
	"that": true, "this": true, "these": true, "those": true,
	"with": true, "from": true, "into": true, "onto": true,
	"they": true, "them": true, "their": true, "there": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
	"would": true, "could": true, "should": true,
	"have": true, "been": true, "were": true, "will": true, "does": true,
	"your": true, "than": true, "then": true, "here": true, "just": true,
	"some": true, "only": true, "about": true, "very": true, "also": true,
	"more": true, "most": true, "other": true, "such": true, "each": true,
}

// Keywords returns LongWords with stopwords removed.
func Keywords(text string) []string {
	var out []string
	for _, w := range LongWords(text) {
		if !Stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

// LongWords returns the distinct lower-cased words of text longer than
// three letters, in first-seen order, with punctuation removed.
// Hyphenated words are kept whole.
func LongWords(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range words(text) {
		if len([]rune(w)) <= 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// words lower-cases text and splits it on anything that is not a letter,
// digit, hyphen or apostrophe.
func words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParseAction converts a creative-action phrase into an Intent.
func ParseAction(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	ws := words(input)
	if len(ws) == 0 {
		return types.Intent{}
	}

	// Handle multi-word verb phrases before general parsing.
	ws = expandMultiWordVerbs(ws)

	// Apply verb aliases.
	if alias, ok := verbAliases[ws[0]]; ok {
		ws[0] = alias
	}

	verb := ws[0]
	rest := stripArticles(ws[1:])

	// Use the first preposition as a delimiter between object and target.
	object, target := splitOnPreposition(rest)

	return types.Intent{
		Verb:   verb,
		Object: object,
		Target: target,
	}
}

// expandMultiWordVerbs handles "side with", "talk to", "look for" etc.
func expandMultiWordVerbs(ws []string) []string {
	if len(ws) < 2 {
		return ws
	}

	switch ws[0] {
	case "side", "team":
		if ws[1] == "with" {
			return append([]string{"ally"}, ws[2:]...)
		}
		if ws[1] == "up" && len(ws) > 2 && ws[2] == "with" {
			return append([]string{"ally"}, ws[3:]...)
		}
	case "turn":
		if ws[1] == "on" || ws[1] == "against" {
			return append([]string{"betray"}, ws[2:]...)
		}
	case "look":
		if ws[1] == "for" || ws[1] == "at" || ws[1] == "around" {
			return append([]string{"search"}, ws[2:]...)
		}
	case "talk", "speak", "chat":
		if ws[1] == "to" || ws[1] == "with" {
			return append([]string{"talk"}, ws[2:]...)
		}
	case "walk", "run":
		if ws[1] == "away" {
			return append([]string{"refuse"}, ws[2:]...)
		}
	case "set":
		if ws[1] == "fire" {
			return append([]string{"burn"}, ws[2:]...)
		}
	case "do":
		// "do the opposite of what ..." stays verbatim as an opposite intent.
		if ws[1] == "the" && len(ws) > 2 && ws[2] == "opposite" {
			return append([]string{"oppose"}, ws[3:]...)
		}
	}

	return ws
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(ws []string) []string {
	result := make([]string, 0, len(ws))
	for _, w := range ws {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// splitOnPreposition splits words on the first preposition.
// Words before the preposition become the object, words after become the target.
// If no preposition is found, all words become the object.
func splitOnPreposition(ws []string) (object, target string) {
	for i, w := range ws {
		if prepositions[w] {
			object = strings.Join(ws[:i], " ")
			target = strings.Join(ws[i+1:], " ")
			return object, target
		}
	}
	return strings.Join(ws, " "), ""
}
