// Package resolve maps NPC names mentioned in question text to NPC ids
// within a scene.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/questsim/types"
)

// AmbiguityError indicates multiple NPCs matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no NPC matched a name.
type NotFoundError struct {
	Name    string
	SceneID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no NPC %q in scene %s", e.Name, e.SceneID)
}

// NPC resolves a single name to the id of an NPC listed by the scene.
func NPC(scene types.Scene, name string) (string, error) {
	nameLower := strings.ToLower(strings.TrimSpace(name))

	// 1. Exact id match.
	for _, n := range scene.NPCs {
		if n.ID == name {
			return n.ID, nil
		}
	}

	// 2. Search by name among the scene's NPCs.
	var matches []string
	for _, n := range scene.NPCs {
		if matchesName(n, nameLower) {
			matches = append(matches, n.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name, SceneID: scene.ID}
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// Mentioned returns the ids of every scene NPC whose id or any name word
// (longer than two letters) appears in text, in scene order.
func Mentioned(scene types.Scene, text string) []string {
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), isSep) {
		words[w] = true
	}
	full := strings.ToLower(text)

	var out []string
	for _, n := range scene.NPCs {
		if words[strings.ToLower(n.ID)] || (n.Name != "" && strings.Contains(full, strings.ToLower(n.Name))) {
			out = append(out, n.ID)
			continue
		}
		for _, w := range strings.Fields(strings.ToLower(n.Name)) {
			if len(w) > 2 && words[w] {
				out = append(out, n.ID)
				break
			}
		}
	}
	return out
}

func isSep(r rune) bool {
	return !(r == '_' || r == '-' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
}

// matchesName checks if an NPC's name matches the query (case-insensitive).
// Supports exact match, word-based partial match, and id match.
func matchesName(n types.NPCReference, nameLower string) bool {
	if n.Name != "" {
		entityNameLower := strings.ToLower(n.Name)
		// Exact match.
		if entityNameLower == nameLower {
			return true
		}
		// Word-based partial match: query matches any word in the name.
		// e.g. "marta" matches "Old Marta", "captain" matches "Captain Vell".
		for _, word := range strings.Fields(entityNameLower) {
			if word == nameLower {
				return true
			}
		}
	}
	idLower := strings.ToLower(n.ID)
	if idLower == nameLower {
		return true
	}
	// Underscore normalization: "old marta" matches id "old_marta".
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}
